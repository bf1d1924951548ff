package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/repository/common"
)

const disputeColumns = `id, engagement_id, escrow_payment_id, reason, description, filed_by, filer_type,
	status, resolution, outcome, refund_amount, reviewed_by, review_started_at, resolved_by, resolved_at,
	version, created_at, updated_at`

type disputeRow struct {
	ID              uuid.UUID           `db:"id"`
	EngagementID    uuid.UUID           `db:"engagement_id"`
	EscrowPaymentID *uuid.UUID          `db:"escrow_payment_id"`
	Reason          string              `db:"reason"`
	Description     string              `db:"description"`
	FiledBy         uuid.UUID           `db:"filed_by"`
	FilerType       string              `db:"filer_type"`
	Status          string              `db:"status"`
	Resolution      *string             `db:"resolution"`
	Outcome         *string             `db:"outcome"`
	RefundAmount    decimal.NullDecimal `db:"refund_amount"`
	ReviewedBy      *uuid.UUID          `db:"reviewed_by"`
	ReviewStartedAt *time.Time          `db:"review_started_at"`
	ResolvedBy      *uuid.UUID          `db:"resolved_by"`
	ResolvedAt      *time.Time          `db:"resolved_at"`
	Version         int                 `db:"version"`
	CreatedAt       time.Time           `db:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at"`
}

func disputeToRow(d *entity.Dispute) disputeRow {
	row := disputeRow{
		ID:              d.ID,
		EngagementID:    d.EngagementID,
		EscrowPaymentID: d.EscrowPaymentID,
		Reason:          string(d.Reason),
		Description:     d.Description,
		FiledBy:         d.FiledBy,
		FilerType:       string(d.FilerType),
		Status:          string(d.Status),
		Resolution:      d.Resolution,
		RefundAmount:    d.RefundAmount,
		ReviewedBy:      d.ReviewedBy,
		ReviewStartedAt: d.ReviewStartedAt,
		ResolvedBy:      d.ResolvedBy,
		ResolvedAt:      d.ResolvedAt,
		Version:         d.Version,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.Outcome != nil {
		outcome := string(*d.Outcome)
		row.Outcome = &outcome
	}
	return row
}

func (r *disputeRow) toEntity() *entity.Dispute {
	d := &entity.Dispute{
		ID:              r.ID,
		EngagementID:    r.EngagementID,
		EscrowPaymentID: r.EscrowPaymentID,
		Reason:          valueobject.DisputeReason(r.Reason),
		Description:     r.Description,
		FiledBy:         r.FiledBy,
		FilerType:       valueobject.Role(r.FilerType),
		Status:          valueobject.DisputeStatus(r.Status),
		Resolution:      r.Resolution,
		RefundAmount:    r.RefundAmount,
		ReviewedBy:      r.ReviewedBy,
		ReviewStartedAt: r.ReviewStartedAt,
		ResolvedBy:      r.ResolvedBy,
		ResolvedAt:      r.ResolvedAt,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Outcome != nil {
		outcome := valueobject.DisputeOutcome(*r.Outcome)
		d.Outcome = &outcome
	}
	return d
}

type DisputeRepositoryAdapter struct {
	db *sqlx.DB
}

func NewDisputeRepositoryAdapter(db *sqlx.DB) *DisputeRepositoryAdapter {
	return &DisputeRepositoryAdapter{db: db}
}

func (r *DisputeRepositoryAdapter) Create(ctx context.Context, dispute *entity.Dispute) error {
	query := `
		INSERT INTO disputes (` + disputeColumns + `)
		VALUES (:id, :engagement_id, :escrow_payment_id, :reason, :description, :filed_by, :filer_type,
		        :status, :resolution, :outcome, :refund_amount, :reviewed_by, :review_started_at, :resolved_by, :resolved_at,
		        :version, :created_at, :updated_at)
	`
	conflict := apperror.New(apperror.ErrCodeConflict, "по контракту уже открыт спор")
	return common.InsertNamed(ctx, common.Executor(ctx, r.db), conflict, query, disputeToRow(dispute))
}

func (r *DisputeRepositoryAdapter) Update(ctx context.Context, dispute *entity.Dispute, expected valueobject.DisputeStatus) error {
	query := `
		UPDATE disputes
		SET status = :status, resolution = :resolution, outcome = :outcome, refund_amount = :refund_amount,
		    reviewed_by = :reviewed_by, review_started_at = :review_started_at,
		    resolved_by = :resolved_by, resolved_at = :resolved_at,
		    version = version + 1, updated_at = :updated_at
		WHERE id = :id AND status = :expected_status AND version = :version
	`
	arg := struct {
		disputeRow
		ExpectedStatus string `db:"expected_status"`
	}{disputeToRow(dispute), string(expected)}

	if err := common.UpdateGuarded(ctx, common.Executor(ctx, r.db), query, arg); err != nil {
		return err
	}
	dispute.Version++
	return nil
}

func (r *DisputeRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`
	row, err := common.GetOne[disputeRow](ctx, common.Executor(ctx, r.db), apperror.ErrDisputeNotFound, query, id)
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *DisputeRepositoryAdapter) FindActiveByEngagementID(ctx context.Context, engagementID uuid.UUID) (*entity.Dispute, error) {
	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
		WHERE engagement_id = $1 AND status IN ('open', 'under_review')
	`
	row, err := common.GetOne[disputeRow](ctx, common.Executor(ctx, r.db), nil, query, engagementID)
	if err != nil || row == nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *DisputeRepositoryAdapter) FindByEngagementID(ctx context.Context, engagementID uuid.UUID) ([]*entity.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE engagement_id = $1 ORDER BY created_at DESC`
	rows, err := common.SelectAll[disputeRow](ctx, common.Executor(ctx, r.db), query, engagementID)
	if err != nil {
		return nil, err
	}
	disputes := make([]*entity.Dispute, 0, len(rows))
	for i := range rows {
		disputes = append(disputes, rows[i].toEntity())
	}
	return disputes, nil
}
