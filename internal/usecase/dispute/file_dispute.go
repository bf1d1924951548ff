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
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

type FileDisputeInput struct {
	Actor        valueobject.Actor
	EngagementID uuid.UUID
	Reason       string
	Description  string
}

type FileDisputeUseCase struct {
	disputeRepo    repository.DisputeRepository
	engagementRepo repository.EngagementRepository
	escrowRepo     repository.EscrowRepository
	tx             repository.Transactor
	clock          clock.Clock
	notifications  *service.NotificationService
}

func NewFileDisputeUseCase(
	disputeRepo repository.DisputeRepository,
	engagementRepo repository.EngagementRepository,
	escrowRepo repository.EscrowRepository,
	tx repository.Transactor,
	clk clock.Clock,
	notifications *service.NotificationService,
) *FileDisputeUseCase {
	return &FileDisputeUseCase{
		disputeRepo:    disputeRepo,
		engagementRepo: engagementRepo,
		escrowRepo:     escrowRepo,
		tx:             tx,
		clock:          clk,
		notifications:  notifications,
	}
}

// Execute открывает спор и замораживает контракт в одной транзакции.
// По завершённому контракту спор возможен, пока эскроу удерживается: статус контракта
// не меняется, замораживается только выплата.
func (uc *FileDisputeUseCase) Execute(ctx context.Context, input FileDisputeInput) (*entity.Dispute, error) {
	reason, err := valueobject.NewDisputeReason(input.Reason)
	if err != nil {
		return nil, err
	}

	eng, err := uc.engagementRepo.FindByID(ctx, input.EngagementID)
	if err != nil {
		return nil, err
	}
	if !eng.IsParticipant(input.Actor) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "открыть спор может только участник контракта")
	}

	active, err := uc.disputeRepo.FindActiveByEngagementID(ctx, eng.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "по контракту уже открыт спор")
	}

	escrow, err := uc.escrowRepo.FindOpenByEngagementID(ctx, eng.ID)
	if err != nil {
		return nil, err
	}
	if eng.Status.IsTerminal() && (escrow == nil || escrow.Status != valueobject.EscrowStatusHeld) {
		return nil, apperror.New(apperror.ErrCodeConflict, "по закрытому контракту спор возможен только при удерживаемом эскроу")
	}
	var escrowID *uuid.UUID
	if escrow != nil {
		id := escrow.ID
		escrowID = &id
	}

	now := uc.clock.Now()
	d, err := entity.NewDispute(eng.ID, escrowID, reason, input.Description, input.Actor, now)
	if err != nil {
		return nil, err
	}

	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.disputeRepo.Create(ctx, d); err != nil {
			return err
		}
		expected := eng.Status
		changed, err := eng.MarkDisputed(now)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return uc.engagementRepo.Update(ctx, eng, expected)
	})
	if err != nil {
		return nil, err
	}

	metrics.DisputeTransitionsTotal.WithLabelValues(string(d.Status)).Inc()
	if eng.Status == valueobject.EngagementStatusDisputed {
		metrics.EngagementTransitionsTotal.WithLabelValues(string(eng.Status)).Inc()
	}
	notifyDispute(uc.notifications, service.EventDisputeOpened, d, eng)
	return d, nil
}

func notifyDispute(notifications *service.NotificationService, event string, d *entity.Dispute, eng *entity.Engagement) {
	notifications.Dispatch(repository.Notification{
		Event:      event,
		UserIDs:    []uuid.UUID{eng.ProviderID},
		CompanyIDs: []uuid.UUID{eng.SeekerCompanyID},
		Data: map[string]any{
			"dispute_id":    d.ID,
			"engagement_id": eng.ID,
			"status":        d.Status,
			"reason":        d.Reason,
		},
	})
}
