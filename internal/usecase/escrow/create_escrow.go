package escrow

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

type CreateEscrowInput struct {
	Actor        valueobject.Actor
	EngagementID uuid.UUID
	// Amount nil означает полную сумму контракта.
	Amount        *decimal.Decimal
	Currency      string
	PaymentMethod string
}

type CreateEscrowUseCase struct {
	l *Ledger
}

func NewCreateEscrowUseCase(l *Ledger) *CreateEscrowUseCase {
	return &CreateEscrowUseCase{l: l}
}

func (uc *CreateEscrowUseCase) Execute(ctx context.Context, input CreateEscrowInput) (*entity.EscrowPayment, error) {
	l := uc.l
	eng, err := l.engagementRepo.FindByID(ctx, input.EngagementID)
	if err != nil {
		return nil, err
	}
	if !input.Actor.IsAdmin() && !eng.IsSeeker(input.Actor) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "оплатить контракт может только заказчик")
	}
	if err := l.ensureNotDisputed(ctx, eng); err != nil {
		return nil, err
	}
	if eng.Status != valueobject.EngagementStatusActive {
		return nil, apperror.New(apperror.ErrCodeConflict, "эскроу создаётся только для активного контракта")
	}

	account, err := l.payouts.FindByProviderID(ctx, eng.ProviderID)
	if err != nil {
		return nil, err
	}
	if !account.IsUsable() {
		return nil, apperror.New(apperror.ErrCodeConflict, "у исполнителя нет реквизитов для выплат")
	}

	currency := eng.Currency
	if input.Currency != "" {
		if currency, err = valueobject.NewCurrency(input.Currency); err != nil {
			return nil, err
		}
		if currency != eng.Currency {
			return nil, apperror.New(apperror.ErrCodeValidation, "валюта платежа не совпадает с валютой контракта")
		}
	}
	amount := eng.TotalAmount
	if input.Amount != nil {
		amount = *input.Amount
	}
	if amount, err = valueobject.NewPositiveAmount(amount, "сумма эскроу"); err != nil {
		return nil, err
	}

	p, err := uc.pendingPayment(ctx, eng, amount, currency, input.PaymentMethod)
	if err != nil {
		return nil, err
	}
	return uc.authorize(ctx, p)
}

// pendingPayment возвращает ожидающий платёж без intent, оставшийся от прерванной попытки,
// или создаёт новый.
func (uc *CreateEscrowUseCase) pendingPayment(ctx context.Context, eng *entity.Engagement, amount decimal.Decimal, currency, method string) (*entity.EscrowPayment, error) {
	l := uc.l
	open, err := l.escrowRepo.FindOpenByEngagementID(ctx, eng.ID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		if open.Status == valueobject.EscrowStatusPending && !open.IsAuthorized() && open.Amount.Equal(amount) {
			return open, nil
		}
		return nil, apperror.New(apperror.ErrCodeConflict, "по контракту уже есть незавершённый платёж")
	}

	split := l.calc.Split(amount)
	p, err := entity.NewEscrowPayment(entity.NewEscrowParams{
		Engagement:     eng,
		Amount:         split.Amount,
		PlatformFee:    split.PlatformFee,
		ProviderAmount: split.ProviderAmount,
		ProcessorFee:   l.calc.ProcessorFee(split.Amount),
		Currency:       currency,
		PaymentMethod:  method,
	}, l.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := l.escrowRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *CreateEscrowUseCase) authorize(ctx context.Context, p *entity.EscrowPayment) (*entity.EscrowPayment, error) {
	l := uc.l
	key := payment.IdempotencyKey(p.ID, valueobject.EscrowStatusPending, nil)

	var intentID string
	err := l.callProcessor(ctx, p, payment.OpAuthorize, key, func(ctx context.Context) error {
		var err error
		intentID, err = l.processor.AuthorizeCharge(ctx, repository.ChargeRequest{
			Amount:         p.Amount,
			Currency:       p.Currency,
			PaymentMethod:  p.PaymentMethod,
			IdempotencyKey: key,
			Metadata:       metadata(p),
		})
		return err
	})
	if err != nil {
		if apperror.IsProcessorPermanent(err) {
			if delErr := l.escrowRepo.DeleteUnauthorized(ctx, p.ID); delErr != nil {
				return nil, delErr
			}
		}
		return nil, err
	}

	if err := p.AttachIntent(intentID, l.clock.Now()); err != nil {
		return nil, err
	}
	if err := l.save(ctx, p, valueobject.EscrowStatusPending, key); err != nil {
		return nil, err
	}
	return p, nil
}
