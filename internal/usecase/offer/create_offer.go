package offer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/fee"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/metrics"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/clock"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

type CreateOfferInput struct {
	Actor         valueobject.Actor
	RequestID     uuid.UUID
	ProviderID    uuid.UUID
	Rate          decimal.Decimal
	Currency      string
	StartDate     *time.Time
	DurationHours int
	Message       *string
}

type CreateOfferUseCase struct {
	offerRepo     repository.OfferRepository
	requestRepo   repository.RequestRepository
	candidates    repository.CandidateSource
	calc          *fee.Calculator
	clock         clock.Clock
	notifications *service.NotificationService
}

func NewCreateOfferUseCase(
	offerRepo repository.OfferRepository,
	requestRepo repository.RequestRepository,
	candidates repository.CandidateSource,
	calc *fee.Calculator,
	clk clock.Clock,
	notifications *service.NotificationService,
) *CreateOfferUseCase {
	return &CreateOfferUseCase{
		offerRepo:     offerRepo,
		requestRepo:   requestRepo,
		candidates:    candidates,
		calc:          calc,
		clock:         clk,
		notifications: notifications,
	}
}

func (uc *CreateOfferUseCase) Execute(ctx context.Context, input CreateOfferInput) (*entity.Offer, error) {
	if input.Actor.Role != valueobject.RoleSeeker {
		return nil, apperror.New(apperror.ErrCodeForbidden, "создать оффер может только заказчик")
	}

	now := uc.clock.Now()
	offer, err := entity.NewOffer(entity.NewOfferParams{
		RequestID:       input.RequestID,
		SeekerCompanyID: input.Actor.CompanyID,
		ProviderID:      input.ProviderID,
		CreatedBy:       input.Actor.UserID,
		Rate:            input.Rate,
		Currency:        input.Currency,
		StartDate:       input.StartDate,
		DurationHours:   input.DurationHours,
		Message:         input.Message,
	}, entity.OfferTerms{}, now)
	if err != nil {
		return nil, err
	}

	request, err := uc.requestRepo.FindByID(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if !input.Actor.IsSeekerOf(request.SeekerCompanyID) {
		return nil, apperror.ErrForbidden
	}
	if !request.IsOpen() {
		return nil, apperror.New(apperror.ErrCodeConflict, "заявка на подбор закрыта")
	}

	if err := uc.ensureCandidate(ctx, input.RequestID, input.ProviderID); err != nil {
		return nil, err
	}

	existing, err := uc.offerRepo.FindActiveByRequestAndProvider(ctx, input.RequestID, input.ProviderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "по этой паре уже есть активный оффер")
	}

	offer.ApplyTerms(termsFor(uc.calc, offer.Rate, offer.DurationHours))

	if err := uc.offerRepo.Create(ctx, offer); err != nil {
		return nil, err
	}

	metrics.OfferTransitionsTotal.WithLabelValues(string(offer.Status)).Inc()
	notifyOffer(uc.notifications, service.EventOfferCreated, offer)
	return offer, nil
}

// ensureCandidate проверяет, что исполнитель есть в выдаче подбора.
// Пустая выдача не ограничивает выбор.
func (uc *CreateOfferUseCase) ensureCandidate(ctx context.Context, requestID, providerID uuid.UUID) error {
	if uc.candidates == nil {
		return nil
	}
	ranked, err := uc.candidates.RankedCandidates(ctx, requestID)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		return nil
	}
	for _, c := range ranked {
		if c.ProviderID == providerID {
			return nil
		}
	}
	return apperror.New(apperror.ErrCodeValidation, "исполнитель не входит в подбор по заявке")
}

func termsFor(calc *fee.Calculator, rate decimal.Decimal, hours int) entity.OfferTerms {
	split := calc.Split(calc.OfferTotal(rate, hours))
	return entity.OfferTerms{
		TotalAmount:    split.Amount,
		PlatformFee:    split.PlatformFee,
		ProviderAmount: split.ProviderAmount,
	}
}

func notifyOffer(notifications *service.NotificationService, event string, offer *entity.Offer) {
	notifications.Dispatch(repository.Notification{
		Event:      event,
		UserIDs:    []uuid.UUID{offer.ProviderID},
		CompanyIDs: []uuid.UUID{offer.SeekerCompanyID},
		Data: map[string]any{
			"offer_id":   offer.ID,
			"request_id": offer.RequestID,
			"status":     offer.Status,
		},
	})
}
