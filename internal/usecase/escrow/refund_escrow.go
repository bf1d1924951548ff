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

type RefundEscrowUseCase struct {
	l *Ledger
}

func NewRefundEscrowUseCase(l *Ledger) *RefundEscrowUseCase {
	return &RefundEscrowUseCase{l: l}
}

// Execute возвращает заказчику всю удерживаемую сумму. Заказчик может запросить
// возврат по расторгнутому контракту или по отменённому до начала работ.
// Если работа уже шла, спорные средства делятся через спор.
func (uc *RefundEscrowUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID, reason *string) (*entity.EscrowPayment, error) {
	l := uc.l
	p, err := l.escrowRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	eng, err := l.engagementRepo.FindByID(ctx, p.EngagementID)
	if err != nil {
		return nil, err
	}
	if !canRefund(actor, p, eng) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "недостаточно прав для возврата")
	}
	if err := l.ensureNotDisputed(ctx, eng); err != nil {
		return nil, err
	}
	if err := p.EnsureHeld("вернуть"); err != nil {
		return nil, err
	}
	if p.RefundID != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "возврат по платежу уже выполнен")
	}
	return l.refundFull(ctx, p, reason)
}

func canRefund(actor valueobject.Actor, p *entity.EscrowPayment, eng *entity.Engagement) bool {
	switch {
	case actor.IsAdmin(), actor.IsProvider(p.ProviderID):
		return true
	case actor.IsSeekerOf(p.SeekerCompanyID):
		switch eng.Status {
		case valueobject.EngagementStatusTerminated:
			return true
		case valueobject.EngagementStatusCancelled:
			return eng.StartedAt == nil
		}
	}
	return false
}

func (l *Ledger) refundFull(ctx context.Context, p *entity.EscrowPayment, reason *string) (*entity.EscrowPayment, error) {
	key := payment.IdempotencyKey(p.ID, valueobject.EscrowStatusRefunded, nil)
	refundID, err := l.refund(ctx, p, nil, key)
	if err != nil {
		return nil, err
	}
	if err := p.MarkRefunded(refundID, reason, l.clock.Now()); err != nil {
		return nil, err
	}
	if err := l.save(ctx, p, valueobject.EscrowStatusHeld, key); err != nil {
		return nil, err
	}
	l.notify(service.EventEscrowRefunded, p)
	return p, nil
}

func (l *Ledger) refund(ctx context.Context, p *entity.EscrowPayment, amount *decimal.Decimal, key string) (string, error) {
	if !p.IsAuthorized() {
		return "", apperror.New(apperror.ErrCodeConflict, "у платежа нет авторизации в процессоре")
	}
	var refundID string
	err := l.callProcessor(ctx, p, payment.OpRefund, key, func(ctx context.Context) error {
		var err error
		refundID, err = l.processor.Refund(ctx, repository.RefundRequest{
			PaymentIntentID: *p.PaymentIntentID,
			Amount:          amount,
			IdempotencyKey:  key,
			Metadata:        metadata(p),
		})
		return err
	})
	return refundID, err
}
