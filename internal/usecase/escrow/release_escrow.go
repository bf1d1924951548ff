package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

type ReleaseEscrowUseCase struct {
	l *Ledger
}

func NewReleaseEscrowUseCase(l *Ledger) *ReleaseEscrowUseCase {
	return &ReleaseEscrowUseCase{l: l}
}

// Execute выплачивает исполнителю ProviderAmount по завершённому контракту.
// Повторная выплата отклоняется с Conflict без второго перевода.
func (uc *ReleaseEscrowUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID, destination string) (*entity.EscrowPayment, error) {
	l := uc.l
	p, err := l.escrowRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.IsSeekerOf(p.SeekerCompanyID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "выплату подтверждает заказчик")
	}
	eng, err := l.engagementRepo.FindByID(ctx, p.EngagementID)
	if err != nil {
		return nil, err
	}
	return l.release(ctx, actor, p, eng, destination)
}

// ReleaseOnCompletionUseCase выплачивает эскроу в момент завершения контракта.
// Контракт передаётся уже в статусе completed, но ещё не сохранённым.
type ReleaseOnCompletionUseCase struct {
	l *Ledger
}

func NewReleaseOnCompletionUseCase(l *Ledger) *ReleaseOnCompletionUseCase {
	return &ReleaseOnCompletionUseCase{l: l}
}

func (uc *ReleaseOnCompletionUseCase) Execute(ctx context.Context, actor valueobject.Actor, eng *entity.Engagement, destination string) (*entity.EscrowPayment, error) {
	l := uc.l
	p, err := l.escrowRepo.FindOpenByEngagementID(ctx, eng.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		// выплата могла пройти в прошлой попытке, до сохранения контракта
		payments, err := l.escrowRepo.FindByEngagementID(ctx, eng.ID)
		if err != nil {
			return nil, err
		}
		for _, prev := range payments {
			if prev.Status == valueobject.EscrowStatusReleased {
				return prev, nil
			}
		}
		return nil, apperror.New(apperror.ErrCodeConflict, "по контракту нет удерживаемого эскроу")
	}
	return l.release(ctx, actor, p, eng, destination)
}

func (l *Ledger) release(ctx context.Context, actor valueobject.Actor, p *entity.EscrowPayment, eng *entity.Engagement, destination string) (*entity.EscrowPayment, error) {
	if err := l.ensureNotDisputed(ctx, eng); err != nil {
		return nil, err
	}
	if err := p.EnsureHeld("выплатить"); err != nil {
		return nil, err
	}
	if eng.Status != valueobject.EngagementStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeConflict, "выплата возможна только по завершённому контракту")
	}
	if p.RefundID != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "по платежу уже выполнен частичный возврат")
	}

	dest, err := l.payoutDestination(ctx, actor, p.ProviderID, destination)
	if err != nil {
		return nil, err
	}

	// ключ не зависит от получателя: повтор с другим получателем процессор отклонит,
	// а не выполнит второй перевод
	key := payment.IdempotencyKey(p.ID, valueobject.EscrowStatusReleased, nil)
	var transferID string
	err = l.callProcessor(ctx, p, payment.OpTransfer, key, func(ctx context.Context) error {
		var err error
		transferID, err = l.processor.Transfer(ctx, repository.TransferRequest{
			Amount:         p.ProviderAmount,
			Currency:       p.Currency,
			Destination:    dest,
			IdempotencyKey: key,
			Metadata:       metadata(p),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := p.MarkReleased(transferID, dest, l.clock.Now()); err != nil {
		return nil, err
	}
	if err := l.save(ctx, p, valueobject.EscrowStatusHeld, key); err != nil {
		return nil, err
	}
	l.notify(service.EventEscrowReleased, p)
	return p, nil
}
