package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/goroutine"
	"github.com/ignatzorin/talentbridge-backend/internal/logger"
	"github.com/ignatzorin/talentbridge-backend/internal/metrics"
)

// События, рассылаемые после переходов состояний.
const (
	EventOfferCreated        = "offer.created"
	EventOfferCountered      = "offer.countered"
	EventOfferAccepted       = "offer.accepted"
	EventOfferDeclined       = "offer.declined"
	EventOfferExpired        = "offer.expired"
	EventEngagementCompleted = "engagement.completed"
	EventEngagementCancelled = "engagement.cancelled"
	EventEscrowHeld          = "escrow.held"
	EventEscrowReleased      = "escrow.released"
	EventEscrowRefunded      = "escrow.refunded"
	EventDisputeOpened       = "dispute.opened"
	EventDisputeResolved     = "dispute.resolved"
)

const defaultNotifyTimeout = 5 * time.Second

// NotificationService рассылает уведомления в фоне. Ошибки доставки только логируются
// и никогда не откатывают операцию, после которой уведомление отправлено.
type NotificationService struct {
	notifier repository.Notifier
	timeout  time.Duration
}

// NewNotificationService создаёт сервис уведомлений. notifier может быть nil.
func NewNotificationService(notifier repository.Notifier) *NotificationService {
	return &NotificationService{notifier: notifier, timeout: defaultNotifyTimeout}
}

// Dispatch отправляет уведомление асинхронно.
func (s *NotificationService) Dispatch(n repository.Notification) {
	if s == nil || s.notifier == nil {
		return
	}

	goroutine.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, n); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			logger.L().WithFields(logrus.Fields{
				"event": n.Event,
				"error": err.Error(),
			}).Warn("notification: не удалось доставить уведомление")
		}
	})
}
