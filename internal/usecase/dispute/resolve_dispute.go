package dispute

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/metrics"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/clock"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

// Settler делит удерживаемые средства по решению спора.
type Settler interface {
	Execute(ctx context.Context, escrowID uuid.UUID, refundAmount decimal.Decimal, reason *string) (*entity.EscrowPayment, error)
}

type ResolveDisputeInput struct {
	Actor      valueobject.Actor
	DisputeID  uuid.UUID
	Resolution string
	// RefundAmount nil оставляет эскроу удерживаемым до обычной выплаты.
	RefundAmount *decimal.Decimal
	// Outcome пустой: restore без возврата, terminate с возвратом.
	Outcome string
}

type ResolveDisputeResult struct {
	Dispute    *entity.Dispute
	Engagement *entity.Engagement
	Payment    *entity.EscrowPayment
}

type ResolveDisputeUseCase struct {
	disputeRepo    repository.DisputeRepository
	engagementRepo repository.EngagementRepository
	escrowRepo     repository.EscrowRepository
	settler        Settler
	tx             repository.Transactor
	clock          clock.Clock
	notifications  *service.NotificationService
}

func NewResolveDisputeUseCase(
	disputeRepo repository.DisputeRepository,
	engagementRepo repository.EngagementRepository,
	escrowRepo repository.EscrowRepository,
	settler Settler,
	tx repository.Transactor,
	clk clock.Clock,
	notifications *service.NotificationService,
) *ResolveDisputeUseCase {
	return &ResolveDisputeUseCase{
		disputeRepo:    disputeRepo,
		engagementRepo: engagementRepo,
		escrowRepo:     escrowRepo,
		settler:        settler,
		tx:             tx,
		clock:          clk,
		notifications:  notifications,
	}
}

// Execute разрешает спор. Средства делятся до записи решения: если процессор откажет,
// спор останется активным и решение можно повторить.
func (uc *ResolveDisputeUseCase) Execute(ctx context.Context, input ResolveDisputeInput) (*ResolveDisputeResult, error) {
	if !input.Actor.IsAdmin() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "разрешить спор может только администратор")
	}

	d, err := uc.disputeRepo.FindByID(ctx, input.DisputeID)
	if err != nil {
		return nil, err
	}
	if err := d.EnsureActive(); err != nil {
		return nil, err
	}

	outcome, err := resolveOutcome(input.Outcome, input.RefundAmount != nil)
	if err != nil {
		return nil, err
	}

	result := &ResolveDisputeResult{Dispute: d}
	refund := decimal.NullDecimal{}
	if input.RefundAmount != nil {
		escrowID, err := uc.escrowFor(ctx, d)
		if err != nil {
			return nil, err
		}
		resolution := input.Resolution
		payment, err := uc.settler.Execute(ctx, escrowID, *input.RefundAmount, &resolution)
		if err != nil {
			return nil, err
		}
		result.Payment = payment
		refund = decimal.NewNullDecimal(payment.RefundedAmount)
	}

	eng, err := uc.engagementRepo.FindByID(ctx, d.EngagementID)
	if err != nil {
		return nil, err
	}
	result.Engagement = eng

	now := uc.clock.Now()
	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		expected := d.Status
		if err := d.Resolve(input.Resolution, outcome, refund, input.Actor.UserID, now); err != nil {
			return err
		}
		if err := uc.disputeRepo.Update(ctx, d, expected); err != nil {
			return err
		}
		return releaseEngagement(ctx, uc.engagementRepo, eng, outcome, d.Resolution, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.DisputeTransitionsTotal.WithLabelValues(string(d.Status)).Inc()
	notifyDispute(uc.notifications, service.EventDisputeResolved, d, eng)
	return result, nil
}

func resolveOutcome(raw string, withRefund bool) (valueobject.DisputeOutcome, error) {
	if raw != "" {
		return valueobject.NewDisputeOutcome(raw)
	}
	if withRefund {
		return valueobject.DisputeOutcomeTerminate, nil
	}
	return valueobject.DisputeOutcomeRestore, nil
}

func (uc *ResolveDisputeUseCase) escrowFor(ctx context.Context, d *entity.Dispute) (uuid.UUID, error) {
	if d.EscrowPaymentID != nil {
		return *d.EscrowPaymentID, nil
	}
	open, err := uc.escrowRepo.FindOpenByEngagementID(ctx, d.EngagementID)
	if err != nil {
		return uuid.Nil, err
	}
	if open == nil {
		return uuid.Nil, apperror.New(apperror.ErrCodeConflict, "по контракту нет эскроу для возврата")
	}
	return open.ID, nil
}

// releaseEngagement снимает заморозку контракта, если спор её ставил.
func releaseEngagement(ctx context.Context, repo repository.EngagementRepository, eng *entity.Engagement, outcome valueobject.DisputeOutcome, notes *string, now time.Time) error {
	expected := eng.Status
	if !eng.ReleaseDispute(outcome, notes, now) {
		return nil
	}
	if err := repo.Update(ctx, eng, expected); err != nil {
		return err
	}
	metrics.EngagementTransitionsTotal.WithLabelValues(string(eng.Status)).Inc()
	return nil
}
