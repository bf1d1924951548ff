package engagement

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/fee"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/metrics"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/clock"
)

// CreateFromHandoffUseCase создаёт контракт по принятому офферу. Повторный вызов
// для того же оффера возвращает уже созданный контракт.
type CreateFromHandoffUseCase struct {
	engagementRepo repository.EngagementRepository
	calc           *fee.Calculator
	clock          clock.Clock
}

func NewCreateFromHandoffUseCase(engagementRepo repository.EngagementRepository, calc *fee.Calculator, clk clock.Clock) *CreateFromHandoffUseCase {
	return &CreateFromHandoffUseCase{engagementRepo: engagementRepo, calc: calc, clock: clk}
}

func (uc *CreateFromHandoffUseCase) Execute(ctx context.Context, handoff *entity.EngagementHandoff) (*entity.Engagement, error) {
	existing, err := uc.engagementRepo.FindByOfferID(ctx, handoff.OfferID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := uc.clock.Now()
	facilitationFee := uc.calc.FacilitationFee(handoff.TotalAmount)

	pipeline, err := uc.engagementRepo.FindPipelineByRequestAndProvider(ctx, handoff.RequestID, handoff.ProviderID)
	if err != nil {
		return nil, err
	}
	if pipeline != nil {
		expected := pipeline.Status
		if err := pipeline.AcceptOffer(handoff, facilitationFee, now); err != nil {
			return nil, err
		}
		if err := uc.engagementRepo.Update(ctx, pipeline, expected); err != nil {
			return nil, err
		}
		metrics.EngagementTransitionsTotal.WithLabelValues(string(pipeline.Status)).Inc()
		return pipeline, nil
	}

	e := entity.NewEngagementFromHandoff(handoff, facilitationFee, now)
	if err := uc.engagementRepo.Create(ctx, e); err != nil {
		if apperror.IsConflict(err) {
			// контракт создан параллельным запросом
			if created, findErr := uc.engagementRepo.FindByOfferID(ctx, handoff.OfferID); findErr == nil && created != nil {
				return created, nil
			}
		}
		return nil, err
	}
	metrics.EngagementTransitionsTotal.WithLabelValues(string(e.Status)).Inc()
	return e, nil
}

// ShortlistUseCase добавляет кандидата из выдачи подбора в воронку заявки.
type ShortlistUseCase struct {
	engagementRepo repository.EngagementRepository
	requestRepo    repository.RequestRepository
	clock          clock.Clock
}

func NewShortlistUseCase(engagementRepo repository.EngagementRepository, requestRepo repository.RequestRepository, clk clock.Clock) *ShortlistUseCase {
	return &ShortlistUseCase{engagementRepo: engagementRepo, requestRepo: requestRepo, clock: clk}
}

func (uc *ShortlistUseCase) Execute(ctx context.Context, actor valueobject.Actor, requestID, providerID uuid.UUID) (*entity.Engagement, error) {
	request, err := uc.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsSeekerOf(request.SeekerCompanyID) {
		return nil, apperror.ErrForbidden
	}
	if !request.IsOpen() {
		return nil, apperror.New(apperror.ErrCodeConflict, "заявка на подбор закрыта")
	}

	existing, err := uc.engagementRepo.FindPipelineByRequestAndProvider(ctx, requestID, providerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "кандидат уже в воронке подбора")
	}

	e, err := entity.NewStagedEngagement(requestID, request.SeekerCompanyID, providerID, uc.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.engagementRepo.Create(ctx, e); err != nil {
		return nil, err
	}
	metrics.EngagementTransitionsTotal.WithLabelValues(string(e.Status)).Inc()
	return e, nil
}
