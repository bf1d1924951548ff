package engagement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/clock"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

type ScheduleInterviewUseCase struct {
	t transitioner
}

func NewScheduleInterviewUseCase(engagementRepo repository.EngagementRepository, disputeRepo repository.DisputeRepository, clk clock.Clock) *ScheduleInterviewUseCase {
	return &ScheduleInterviewUseCase{t: transitioner{engagementRepo, disputeRepo, clk}}
}

func (uc *ScheduleInterviewUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID) (*entity.Engagement, error) {
	return uc.t.apply(ctx, actor, id, seekerOrAdmin, func(e *entity.Engagement, now time.Time) error {
		return e.ScheduleInterview(now)
	})
}

type ActivateEngagementUseCase struct {
	t transitioner
}

func NewActivateEngagementUseCase(engagementRepo repository.EngagementRepository, disputeRepo repository.DisputeRepository, clk clock.Clock) *ActivateEngagementUseCase {
	return &ActivateEngagementUseCase{t: transitioner{engagementRepo, disputeRepo, clk}}
}

func (uc *ActivateEngagementUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID) (*entity.Engagement, error) {
	return uc.t.apply(ctx, actor, id, seekerOrAdmin, func(e *entity.Engagement, now time.Time) error {
		return e.Activate(now)
	})
}

type StartEngagementUseCase struct {
	t transitioner
}

func NewStartEngagementUseCase(engagementRepo repository.EngagementRepository, disputeRepo repository.DisputeRepository, clk clock.Clock) *StartEngagementUseCase {
	return &StartEngagementUseCase{t: transitioner{engagementRepo, disputeRepo, clk}}
}

func (uc *StartEngagementUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID) (*entity.Engagement, error) {
	return uc.t.apply(ctx, actor, id, participantOrAdmin, func(e *entity.Engagement, now time.Time) error {
		return e.Start(now)
	})
}

type PauseEngagementUseCase struct {
	t transitioner
}

func NewPauseEngagementUseCase(engagementRepo repository.EngagementRepository, disputeRepo repository.DisputeRepository, clk clock.Clock) *PauseEngagementUseCase {
	return &PauseEngagementUseCase{t: transitioner{engagementRepo, disputeRepo, clk}}
}

func (uc *PauseEngagementUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID) (*entity.Engagement, error) {
	return uc.t.apply(ctx, actor, id, participantOrAdmin, func(e *entity.Engagement, now time.Time) error {
		return e.Pause(now)
	})
}

type ResumeEngagementUseCase struct {
	t transitioner
}

func NewResumeEngagementUseCase(engagementRepo repository.EngagementRepository, disputeRepo repository.DisputeRepository, clk clock.Clock) *ResumeEngagementUseCase {
	return &ResumeEngagementUseCase{t: transitioner{engagementRepo, disputeRepo, clk}}
}

func (uc *ResumeEngagementUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID) (*entity.Engagement, error) {
	return uc.t.apply(ctx, actor, id, participantOrAdmin, func(e *entity.Engagement, now time.Time) error {
		return e.Resume(now)
	})
}

// CancelEngagementUseCase отменяет контракт. Эскроу при этом не возвращается:
// возврат выполняется отдельным действием.
type CancelEngagementUseCase struct {
	t             transitioner
	notifications *service.NotificationService
}

func NewCancelEngagementUseCase(
	engagementRepo repository.EngagementRepository,
	disputeRepo repository.DisputeRepository,
	clk clock.Clock,
	notifications *service.NotificationService,
) *CancelEngagementUseCase {
	return &CancelEngagementUseCase{t: transitioner{engagementRepo, disputeRepo, clk}, notifications: notifications}
}

func (uc *CancelEngagementUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID, notes *string) (*entity.Engagement, error) {
	e, err := uc.t.apply(ctx, actor, id, participantOrAdmin, func(e *entity.Engagement, now time.Time) error {
		return e.Cancel(notes, now)
	})
	if err != nil {
		return nil, err
	}
	notifyEngagement(uc.notifications, service.EventEngagementCancelled, e)
	return e, nil
}

type TerminateEngagementUseCase struct {
	t             transitioner
	notifications *service.NotificationService
}

func NewTerminateEngagementUseCase(
	engagementRepo repository.EngagementRepository,
	disputeRepo repository.DisputeRepository,
	clk clock.Clock,
	notifications *service.NotificationService,
) *TerminateEngagementUseCase {
	return &TerminateEngagementUseCase{t: transitioner{engagementRepo, disputeRepo, clk}, notifications: notifications}
}

func (uc *TerminateEngagementUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID, notes *string) (*entity.Engagement, error) {
	e, err := uc.t.apply(ctx, actor, id, adminOnly, func(e *entity.Engagement, now time.Time) error {
		return e.Terminate(notes, now)
	})
	if err != nil {
		return nil, err
	}
	notifyEngagement(uc.notifications, service.EventEngagementCancelled, e)
	return e, nil
}

type GetEngagementUseCase struct {
	engagementRepo repository.EngagementRepository
}

func NewGetEngagementUseCase(engagementRepo repository.EngagementRepository) *GetEngagementUseCase {
	return &GetEngagementUseCase{engagementRepo: engagementRepo}
}

func (uc *GetEngagementUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID) (*entity.Engagement, error) {
	e, err := uc.engagementRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !participantOrAdmin(actor, e) {
		return nil, apperror.ErrForbidden
	}
	return e, nil
}

func notifyEngagement(notifications *service.NotificationService, event string, e *entity.Engagement) {
	notifications.Dispatch(repository.Notification{
		Event:      event,
		UserIDs:    []uuid.UUID{e.ProviderID},
		CompanyIDs: []uuid.UUID{e.SeekerCompanyID},
		Data: map[string]any{
			"engagement_id": e.ID,
			"status":        e.Status,
		},
	})
}
