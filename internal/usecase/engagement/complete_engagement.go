package engagement

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/metrics"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/clock"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

// PaymentReleaser выплачивает эскроу по завершённому контракту.
// Повторный вызов после успешной выплаты возвращает тот же платёж.
type PaymentReleaser interface {
	Execute(ctx context.Context, actor valueobject.Actor, engagement *entity.Engagement, destination string) (*entity.EscrowPayment, error)
}

type CompleteEngagementInput struct {
	Actor          valueobject.Actor
	EngagementID   uuid.UUID
	Deliverables   []entity.Deliverable
	Notes          *string
	ReleasePayment bool
	Destination    string
}

type CompleteEngagementResult struct {
	Engagement *entity.Engagement
	Payment    *entity.EscrowPayment
}

type CompleteEngagementUseCase struct {
	engagementRepo repository.EngagementRepository
	disputeRepo    repository.DisputeRepository
	releaser       PaymentReleaser
	clock          clock.Clock
	notifications  *service.NotificationService
}

func NewCompleteEngagementUseCase(
	engagementRepo repository.EngagementRepository,
	disputeRepo repository.DisputeRepository,
	releaser PaymentReleaser,
	clk clock.Clock,
	notifications *service.NotificationService,
) *CompleteEngagementUseCase {
	return &CompleteEngagementUseCase{
		engagementRepo: engagementRepo,
		disputeRepo:    disputeRepo,
		releaser:       releaser,
		clock:          clk,
		notifications:  notifications,
	}
}

// Execute завершает контракт. При ReleasePayment контракт сохраняется как completed
// только после успешной выплаты: ошибка процессора оставляет его в прежнем статусе.
func (uc *CompleteEngagementUseCase) Execute(ctx context.Context, input CompleteEngagementInput) (*CompleteEngagementResult, error) {
	e, err := uc.engagementRepo.FindByID(ctx, input.EngagementID)
	if err != nil {
		return nil, err
	}
	if !seekerOrAdmin(input.Actor, e) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "подтвердить выполнение может только заказчик")
	}
	if err := EnsureNotDisputed(ctx, uc.disputeRepo, e); err != nil {
		return nil, err
	}

	expected := e.Status
	if err := e.Complete(input.Deliverables, input.Notes, input.Actor.UserID, uc.clock.Now()); err != nil {
		return nil, err
	}

	result := &CompleteEngagementResult{Engagement: e}
	if input.ReleasePayment {
		if uc.releaser == nil {
			return nil, apperror.New(apperror.ErrCodeInternal, "выплата эскроу не настроена")
		}
		payment, err := uc.releaser.Execute(ctx, input.Actor, e, input.Destination)
		if err != nil {
			return nil, err
		}
		result.Payment = payment
	}

	if err := uc.engagementRepo.Update(ctx, e, expected); err != nil {
		return nil, err
	}
	metrics.EngagementTransitionsTotal.WithLabelValues(string(e.Status)).Inc()
	notifyEngagement(uc.notifications, service.EventEngagementCompleted, e)
	return result, nil
}
