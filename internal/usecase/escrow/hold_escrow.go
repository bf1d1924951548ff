package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

type HoldEscrowUseCase struct {
	l *Ledger
}

func NewHoldEscrowUseCase(l *Ledger) *HoldEscrowUseCase {
	return &HoldEscrowUseCase{l: l}
}

// Execute списывает авторизованный платёж. Платёж становится held только после
// подтверждённого списания.
func (uc *HoldEscrowUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID) (*entity.EscrowPayment, error) {
	l := uc.l
	p, err := l.escrowRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.IsSeekerOf(p.SeekerCompanyID) {
		return nil, apperror.ErrForbidden
	}
	eng, err := l.engagementRepo.FindByID(ctx, p.EngagementID)
	if err != nil {
		return nil, err
	}
	if err := l.ensureNotDisputed(ctx, eng); err != nil {
		return nil, err
	}
	if err := p.EnsureHoldable(); err != nil {
		return nil, err
	}

	key := payment.IdempotencyKey(p.ID, valueobject.EscrowStatusHeld, nil)
	err = l.callProcessor(ctx, p, payment.OpCapture, key, func(ctx context.Context) error {
		return l.processor.CaptureCharge(ctx, *p.PaymentIntentID, key)
	})
	if err != nil {
		return nil, err
	}

	if err := p.MarkHeld(l.clock.Now()); err != nil {
		return nil, err
	}
	if err := l.save(ctx, p, valueobject.EscrowStatusPending, key); err != nil {
		return nil, err
	}
	l.notify(service.EventEscrowHeld, p)
	return p, nil
}
