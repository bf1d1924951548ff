package offer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/fee"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/logger"
	"github.com/ignatzorin/talentbridge-backend/internal/metrics"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/clock"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

// DefaultCounterWindow - окно ответа на встречное предложение.
const DefaultCounterWindow = 48 * time.Hour

// HandoffConsumer создаёт контракт по принятому офферу.
type HandoffConsumer interface {
	Execute(ctx context.Context, handoff *entity.EngagementHandoff) (*entity.Engagement, error)
}

type RespondOfferInput struct {
	Actor       valueobject.Actor
	OfferID     uuid.UUID
	Action      string
	CounterRate *decimal.Decimal
	Message     *string
}

type RespondOfferResult struct {
	Offer *entity.Offer
	// Handoff заполнен только при принятии оффера.
	Handoff    *entity.EngagementHandoff
	Engagement *entity.Engagement
}

type RespondOfferUseCase struct {
	offerRepo     repository.OfferRepository
	calc          *fee.Calculator
	clock         clock.Clock
	window        time.Duration
	consumer      HandoffConsumer
	notifications *service.NotificationService
}

func NewRespondOfferUseCase(
	offerRepo repository.OfferRepository,
	calc *fee.Calculator,
	clk clock.Clock,
	window time.Duration,
	consumer HandoffConsumer,
	notifications *service.NotificationService,
) *RespondOfferUseCase {
	if window <= 0 {
		window = DefaultCounterWindow
	}
	return &RespondOfferUseCase{
		offerRepo:     offerRepo,
		calc:          calc,
		clock:         clk,
		window:        window,
		consumer:      consumer,
		notifications: notifications,
	}
}

func (uc *RespondOfferUseCase) Execute(ctx context.Context, input RespondOfferInput) (*RespondOfferResult, error) {
	action, err := valueobject.NewOfferAction(input.Action)
	if err != nil {
		return nil, err
	}

	offer, err := uc.offerRepo.FindByID(ctx, input.OfferID)
	if err != nil {
		return nil, err
	}
	side := offer.SideOf(input.Actor)
	if err := offer.EnsureRespondable(side); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	if offer.IsCounterExpired(now, uc.window) {
		return nil, uc.expire(ctx, offer, now)
	}

	expected := offer.Status
	event := ""
	switch action {
	case valueobject.OfferActionAccept:
		if err := offer.Accept(now); err != nil {
			return nil, err
		}
		offer.ApplyTerms(termsFor(uc.calc, offer.AgreedRate.Decimal, offer.DurationHours))
		event = service.EventOfferAccepted
	case valueobject.OfferActionDecline:
		if err := offer.Decline(now); err != nil {
			return nil, err
		}
		event = service.EventOfferDeclined
	case valueobject.OfferActionCounter:
		if input.CounterRate == nil {
			return nil, apperror.New(apperror.ErrCodeValidation, "для встречного предложения нужна ставка")
		}
		if err := offer.Counter(*input.CounterRate, input.Message, input.Actor.UserID, side, now); err != nil {
			return nil, err
		}
		event = service.EventOfferCountered
	}

	if err := uc.offerRepo.Update(ctx, offer, expected); err != nil {
		return nil, err
	}
	metrics.OfferTransitionsTotal.WithLabelValues(string(offer.Status)).Inc()
	notifyOffer(uc.notifications, event, offer)

	result := &RespondOfferResult{Offer: offer}
	if offer.Status != valueobject.OfferStatusAccepted {
		return result, nil
	}

	handoff, err := offer.Handoff()
	if err != nil {
		return nil, err
	}
	result.Handoff = handoff

	if uc.consumer != nil {
		// Оффер уже принят, поэтому ошибка создания контракта не откатывает ответ:
		// контракт можно материализовать повторно.
		engagement, err := uc.consumer.Execute(ctx, handoff)
		if err != nil {
			logger.L().WithFields(logrus.Fields{
				"offer_id": offer.ID,
				"error":    err.Error(),
			}).Warn("offer: не удалось создать контракт по принятому офферу")
		}
		result.Engagement = engagement
	}
	return result, nil
}

// expire фиксирует истечение окна и всегда возвращает ErrOfferExpired.
func (uc *RespondOfferUseCase) expire(ctx context.Context, offer *entity.Offer, now time.Time) error {
	expected := offer.Status
	if err := offer.Expire(now); err != nil {
		return err
	}
	err := uc.offerRepo.Update(ctx, offer, expected)
	switch {
	case err == nil:
		metrics.OfferTransitionsTotal.WithLabelValues(string(offer.Status)).Inc()
		notifyOffer(uc.notifications, service.EventOfferExpired, offer)
	case errors.Is(err, apperror.ErrStaleWrite):
		// оффер уже истёк или изменён параллельным запросом
	default:
		logger.L().WithFields(logrus.Fields{
			"offer_id": offer.ID,
			"error":    err.Error(),
		}).Error("offer: не удалось сохранить истечение оффера")
	}
	return apperror.ErrOfferExpired
}
