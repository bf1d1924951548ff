package dispute

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/metrics"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/clock"
)

type StartReviewUseCase struct {
	disputeRepo repository.DisputeRepository
	clock       clock.Clock
}

func NewStartReviewUseCase(disputeRepo repository.DisputeRepository, clk clock.Clock) *StartReviewUseCase {
	return &StartReviewUseCase{disputeRepo: disputeRepo, clock: clk}
}

func (uc *StartReviewUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID) (*entity.Dispute, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	d, err := uc.disputeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := d.Status
	if err := d.StartReview(actor.UserID, uc.clock.Now()); err != nil {
		return nil, err
	}
	if err := uc.disputeRepo.Update(ctx, d, expected); err != nil {
		return nil, err
	}
	metrics.DisputeTransitionsTotal.WithLabelValues(string(d.Status)).Inc()
	return d, nil
}

// CloseDisputeUseCase закрывает спор без движения средств и возвращает контракт
// в статус до спора.
type CloseDisputeUseCase struct {
	disputeRepo    repository.DisputeRepository
	engagementRepo repository.EngagementRepository
	tx             repository.Transactor
	clock          clock.Clock
}

func NewCloseDisputeUseCase(disputeRepo repository.DisputeRepository, engagementRepo repository.EngagementRepository, tx repository.Transactor, clk clock.Clock) *CloseDisputeUseCase {
	return &CloseDisputeUseCase{disputeRepo: disputeRepo, engagementRepo: engagementRepo, tx: tx, clock: clk}
}

func (uc *CloseDisputeUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID, notes *string) (*entity.Dispute, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	d, err := uc.disputeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	eng, err := uc.engagementRepo.FindByID(ctx, d.EngagementID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		expected := d.Status
		if err := d.Close(notes, actor.UserID, now); err != nil {
			return err
		}
		if err := uc.disputeRepo.Update(ctx, d, expected); err != nil {
			return err
		}
		return releaseEngagement(ctx, uc.engagementRepo, eng, valueobject.DisputeOutcomeRestore, nil, now)
	})
	if err != nil {
		return nil, err
	}
	metrics.DisputeTransitionsTotal.WithLabelValues(string(d.Status)).Inc()
	return d, nil
}

type GetDisputeUseCase struct {
	disputeRepo    repository.DisputeRepository
	engagementRepo repository.EngagementRepository
}

func NewGetDisputeUseCase(disputeRepo repository.DisputeRepository, engagementRepo repository.EngagementRepository) *GetDisputeUseCase {
	return &GetDisputeUseCase{disputeRepo: disputeRepo, engagementRepo: engagementRepo}
}

func (uc *GetDisputeUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID) (*entity.Dispute, error) {
	d, err := uc.disputeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return d, nil
	}
	eng, err := uc.engagementRepo.FindByID(ctx, d.EngagementID)
	if err != nil {
		return nil, err
	}
	if !eng.IsParticipant(actor) {
		return nil, apperror.ErrForbidden
	}
	return d, nil
}

type ListEngagementDisputesUseCase struct {
	disputeRepo    repository.DisputeRepository
	engagementRepo repository.EngagementRepository
}

func NewListEngagementDisputesUseCase(disputeRepo repository.DisputeRepository, engagementRepo repository.EngagementRepository) *ListEngagementDisputesUseCase {
	return &ListEngagementDisputesUseCase{disputeRepo: disputeRepo, engagementRepo: engagementRepo}
}

func (uc *ListEngagementDisputesUseCase) Execute(ctx context.Context, actor valueobject.Actor, engagementID uuid.UUID) ([]*entity.Dispute, error) {
	eng, err := uc.engagementRepo.FindByID(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !eng.IsParticipant(actor) {
		return nil, apperror.ErrForbidden
	}
	return uc.disputeRepo.FindByEngagementID(ctx, engagementID)
}
