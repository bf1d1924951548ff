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
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

// SettleDisputeUseCase делит удерживаемые средства по решению спора: сначала возврат
// заказчику, затем отдельный перевод остатка исполнителю. Комиссия платформы с остатка
// не удерживается. Каждый шаг сохраняется, поэтому повтор пропускает выполненные шаги.
//
// Вызывается только из разрешения спора, поэтому запрет на время спора здесь не действует.
type SettleDisputeUseCase struct {
	l *Ledger
}

func NewSettleDisputeUseCase(l *Ledger) *SettleDisputeUseCase {
	return &SettleDisputeUseCase{l: l}
}

func (uc *SettleDisputeUseCase) Execute(ctx context.Context, escrowID uuid.UUID, refundAmount decimal.Decimal, reason *string) (*entity.EscrowPayment, error) {
	l := uc.l
	p, err := l.escrowRepo.FindByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}

	refundAmount = refundAmount.Round(2)
	if !refundAmount.IsPositive() || refundAmount.GreaterThan(p.Amount) {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма возврата должна быть больше нуля и не больше суммы эскроу")
	}

	// повтор после завершённого раздела
	if p.Status == valueobject.EscrowStatusRefunded && p.RefundedAmount.Equal(refundAmount) {
		return p, nil
	}
	if err := p.EnsureHeld("разделить"); err != nil {
		return nil, err
	}

	if refundAmount.Equal(p.Amount) && p.RefundID == nil {
		return l.refundFull(ctx, p, reason)
	}

	if p.RefundID == nil {
		if err := uc.refundPart(ctx, p, refundAmount, reason); err != nil {
			return nil, err
		}
	} else if !p.RefundedAmount.Equal(refundAmount) {
		return nil, apperror.New(apperror.ErrCodeConflict, "по платежу уже выполнен возврат на другую сумму")
	}

	if err := uc.transferRemainder(ctx, p); err != nil {
		return nil, err
	}
	l.notify(service.EventEscrowRefunded, p)
	return p, nil
}

func (uc *SettleDisputeUseCase) refundPart(ctx context.Context, p *entity.EscrowPayment, amount decimal.Decimal, reason *string) error {
	l := uc.l
	key := payment.IdempotencyKey(p.ID, valueobject.EscrowStatusRefunded, &amount)
	refundID, err := l.refund(ctx, p, &amount, key)
	if err != nil {
		return err
	}
	if err := p.RecordPartialRefund(refundID, amount, reason, l.clock.Now()); err != nil {
		return err
	}
	return l.save(ctx, p, valueobject.EscrowStatusHeld, key)
}

func (uc *SettleDisputeUseCase) transferRemainder(ctx context.Context, p *entity.EscrowPayment) error {
	l := uc.l
	remainder := p.Remainder()
	dest, err := l.payoutDestination(ctx, valueobject.Actor{}, p.ProviderID, "")
	if err != nil {
		return err
	}

	key := payment.IdempotencyKey(p.ID, valueobject.EscrowStatusReleased, &remainder)
	var transferID string
	err = l.callProcessor(ctx, p, payment.OpTransfer, key, func(ctx context.Context) error {
		var err error
		transferID, err = l.processor.Transfer(ctx, repository.TransferRequest{
			Amount:         remainder,
			Currency:       p.Currency,
			Destination:    dest,
			IdempotencyKey: key,
			Metadata:       metadata(p),
		})
		return err
	})
	if err != nil {
		return err
	}

	if err := p.CompleteSplit(transferID, dest, l.clock.Now()); err != nil {
		return err
	}
	return l.save(ctx, p, valueobject.EscrowStatusHeld, key)
}
