package engagement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/metrics"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/clock"
)

// EnsureNotDisputed - общий запрет обычных переходов, пока по контракту идёт спор.
func EnsureNotDisputed(ctx context.Context, disputeRepo repository.DisputeRepository, e *entity.Engagement) error {
	if e.Status == valueobject.EngagementStatusDisputed {
		return apperror.ErrBlockedByDispute
	}
	active, err := disputeRepo.FindActiveByEngagementID(ctx, e.ID)
	if err != nil {
		return err
	}
	if active != nil {
		return apperror.ErrBlockedByDispute
	}
	return nil
}

type permission func(actor valueobject.Actor, e *entity.Engagement) bool

func participantOrAdmin(actor valueobject.Actor, e *entity.Engagement) bool {
	return actor.IsAdmin() || e.IsParticipant(actor)
}

func seekerOrAdmin(actor valueobject.Actor, e *entity.Engagement) bool {
	return actor.IsAdmin() || e.IsSeeker(actor)
}

func adminOnly(actor valueobject.Actor, _ *entity.Engagement) bool {
	return actor.IsAdmin()
}

// transitioner выполняет переход: чтение, проверка прав и спора, запись с проверкой статуса.
type transitioner struct {
	engagementRepo repository.EngagementRepository
	disputeRepo    repository.DisputeRepository
	clock          clock.Clock
}

func (t transitioner) apply(
	ctx context.Context,
	actor valueobject.Actor,
	id uuid.UUID,
	allowed permission,
	mutate func(e *entity.Engagement, now time.Time) error,
) (*entity.Engagement, error) {
	e, err := t.engagementRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allowed(actor, e) {
		return nil, apperror.ErrForbidden
	}
	if err := EnsureNotDisputed(ctx, t.disputeRepo, e); err != nil {
		return nil, err
	}

	expected := e.Status
	if err := mutate(e, t.clock.Now()); err != nil {
		return nil, err
	}
	if err := t.engagementRepo.Update(ctx, e, expected); err != nil {
		return nil, err
	}
	if e.Status != expected {
		metrics.EngagementTransitionsTotal.WithLabelValues(string(e.Status)).Inc()
	}
	return e, nil
}
