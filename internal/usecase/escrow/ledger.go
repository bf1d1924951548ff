// Package escrow ведёт эскроу-платежи: авторизация, удержание, выплата исполнителю,
// возврат заказчику и раздел средств по спору.
//
// Локальная запись меняет статус только после подтверждённого ответа процессора.
// Ошибка процессора оставляет запись в прежнем статусе, и повтор с тем же ключом
// идемпотентности безопасен.
package escrow

import (
	"context"
	"time"

	"github.com/google/uuid"
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
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/engagement"
)

// Ledger - общие зависимости сценариев эскроу.
type Ledger struct {
	escrowRepo     repository.EscrowRepository
	engagementRepo repository.EngagementRepository
	disputeRepo    repository.DisputeRepository
	payouts        repository.PayoutAccountRepository
	processor      repository.PaymentProcessor
	calc           *fee.Calculator
	clock          clock.Clock
	notifications  *service.NotificationService
}

type LedgerDeps struct {
	Escrows       repository.EscrowRepository
	Engagements   repository.EngagementRepository
	Disputes      repository.DisputeRepository
	Payouts       repository.PayoutAccountRepository
	Processor     repository.PaymentProcessor
	Calculator    *fee.Calculator
	Clock         clock.Clock
	Notifications *service.NotificationService
}

func NewLedger(deps LedgerDeps) *Ledger {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	return &Ledger{
		escrowRepo:     deps.Escrows,
		engagementRepo: deps.Engagements,
		disputeRepo:    deps.Disputes,
		payouts:        deps.Payouts,
		processor:      deps.Processor,
		calc:           deps.Calculator,
		clock:          clk,
		notifications:  deps.Notifications,
	}
}

// callProcessor выполняет вызов процессора и пишет в лог ключ, исходный статус и результат,
// чтобы сверка могла найти зависшие pending и held платежи.
func (l *Ledger) callProcessor(ctx context.Context, p *entity.EscrowPayment, op, key string, call func(ctx context.Context) error) error {
	start := time.Now()
	err := call(ctx)

	fields := logrus.Fields{
		"escrow_id":       p.ID,
		"idempotency_key": key,
		"operation":       op,
		"pre_status":      p.Status,
		"duration_ms":     time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["outcome"] = string(apperror.KindOf(err))
		logger.L().WithFields(fields).WithError(err).Error("escrow: вызов процессора не удался")
		return err
	}
	fields["outcome"] = "ok"
	logger.L().WithFields(fields).Info("escrow: вызов процессора выполнен")
	return nil
}

// save сохраняет платёж после подтверждённого вызова процессора. Ошибка записи здесь
// означает расхождение с процессором, поэтому она логируется с ключом для сверки.
func (l *Ledger) save(ctx context.Context, p *entity.EscrowPayment, expected valueobject.EscrowStatus, key string) error {
	if err := l.escrowRepo.Update(ctx, p, expected); err != nil {
		logger.L().WithFields(logrus.Fields{
			"escrow_id":       p.ID,
			"idempotency_key": key,
			"pre_status":      expected,
			"outcome":         "local_write_failed",
		}).WithError(err).Error("escrow: процессор выполнил операцию, но запись не сохранена")
		return err
	}
	if p.Status != expected {
		metrics.EscrowTransitionsTotal.WithLabelValues(string(p.Status)).Inc()
	}
	return nil
}

func (l *Ledger) ensureNotDisputed(ctx context.Context, e *entity.Engagement) error {
	return engagement.EnsureNotDisputed(ctx, l.disputeRepo, e)
}

// payoutDestination возвращает реквизиты исполнителя. Явный получатель принимается,
// только если совпадает с реквизитами, иначе его может задать лишь администратор.
func (l *Ledger) payoutDestination(ctx context.Context, actor valueobject.Actor, providerID uuid.UUID, destination string) (string, error) {
	account, err := l.payouts.FindByProviderID(ctx, providerID)
	if err != nil && !(apperror.IsNotFound(err) && destination != "" && actor.IsAdmin()) {
		return "", err
	}
	if destination != "" {
		if account.IsUsable() && account.Destination == destination {
			return destination, nil
		}
		if !actor.IsAdmin() {
			return "", apperror.New(apperror.ErrCodeForbidden, "получатель выплаты не совпадает с реквизитами исполнителя")
		}
		logger.L().WithFields(logrus.Fields{
			"provider_id": providerID,
			"admin_id":    actor.UserID,
			"destination": destination,
		}).Warn("escrow: администратор указал получателя выплаты вручную")
		return destination, nil
	}
	if !account.IsUsable() {
		return "", apperror.New(apperror.ErrCodeConflict, "у исполнителя нет реквизитов для выплат")
	}
	return account.Destination, nil
}

func (l *Ledger) notify(event string, p *entity.EscrowPayment) {
	l.notifications.Dispatch(repository.Notification{
		Event:      event,
		UserIDs:    []uuid.UUID{p.ProviderID},
		CompanyIDs: []uuid.UUID{p.SeekerCompanyID},
		Data: map[string]any{
			"escrow_id":     p.ID,
			"engagement_id": p.EngagementID,
			"status":        p.Status,
			"amount":        p.Amount.StringFixed(2),
		},
	})
}

func metadata(p *entity.EscrowPayment) map[string]string {
	return map[string]string{
		"escrow_id":     p.ID.String(),
		"engagement_id": p.EngagementID.String(),
	}
}
