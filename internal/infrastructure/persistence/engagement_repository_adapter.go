package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/repository/common"
)

const engagementColumns = `id, offer_id, request_id, seeker_company_id, provider_id, rate, currency,
	duration_hours, total_amount, platform_fee, provider_amount, facilitation_fee, status, prior_status,
	start_date, started_at, ended_at, paused_at, resumed_at, completed_at, cancelled_at,
	completion_notes, cancellation_notes, deliverables, verification, milestones,
	version, created_at, updated_at`

type engagementRow struct {
	ID                uuid.UUID          `db:"id"`
	OfferID           *uuid.UUID         `db:"offer_id"`
	RequestID         uuid.UUID          `db:"request_id"`
	SeekerCompanyID   uuid.UUID          `db:"seeker_company_id"`
	ProviderID        uuid.UUID          `db:"provider_id"`
	Rate              decimal.Decimal    `db:"rate"`
	Currency          string             `db:"currency"`
	DurationHours     int                `db:"duration_hours"`
	TotalAmount       decimal.Decimal    `db:"total_amount"`
	PlatformFee       decimal.Decimal    `db:"platform_fee"`
	ProviderAmount    decimal.Decimal    `db:"provider_amount"`
	FacilitationFee   decimal.Decimal    `db:"facilitation_fee"`
	Status            string             `db:"status"`
	PriorStatus       *string            `db:"prior_status"`
	StartDate         *time.Time         `db:"start_date"`
	StartedAt         *time.Time         `db:"started_at"`
	EndedAt           *time.Time         `db:"ended_at"`
	PausedAt          *time.Time         `db:"paused_at"`
	ResumedAt         *time.Time         `db:"resumed_at"`
	CompletedAt       *time.Time         `db:"completed_at"`
	CancelledAt       *time.Time         `db:"cancelled_at"`
	CompletionNotes   *string            `db:"completion_notes"`
	CancellationNotes *string            `db:"cancellation_notes"`
	Deliverables      types.JSONText     `db:"deliverables"`
	Verification      types.NullJSONText `db:"verification"`
	Milestones        types.JSONText     `db:"milestones"`
	Version           int                `db:"version"`
	CreatedAt         time.Time          `db:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at"`
}

func engagementToRow(e *entity.Engagement) (engagementRow, error) {
	row := engagementRow{
		ID:                e.ID,
		OfferID:           e.OfferID,
		RequestID:         e.RequestID,
		SeekerCompanyID:   e.SeekerCompanyID,
		ProviderID:        e.ProviderID,
		Rate:              e.Rate,
		Currency:          e.Currency,
		DurationHours:     e.DurationHours,
		TotalAmount:       e.TotalAmount,
		PlatformFee:       e.PlatformFee,
		ProviderAmount:    e.ProviderAmount,
		FacilitationFee:   e.FacilitationFee,
		Status:            string(e.Status),
		StartDate:         e.StartDate,
		StartedAt:         e.StartedAt,
		EndedAt:           e.EndedAt,
		PausedAt:          e.PausedAt,
		ResumedAt:         e.ResumedAt,
		CompletedAt:       e.CompletedAt,
		CancelledAt:       e.CancelledAt,
		CompletionNotes:   e.CompletionNotes,
		CancellationNotes: e.CancellationNotes,
		Version:           e.Version,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
	if e.PriorStatus != nil {
		prior := string(*e.PriorStatus)
		row.PriorStatus = &prior
	}

	deliverables := e.Deliverables
	if deliverables == nil {
		deliverables = []entity.Deliverable{}
	}
	milestones := e.Milestones
	if milestones == nil {
		milestones = []entity.Milestone{}
	}
	var err error
	if row.Deliverables, err = json.Marshal(deliverables); err != nil {
		return row, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать результаты работ")
	}
	if row.Milestones, err = json.Marshal(milestones); err != nil {
		return row, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать этапы")
	}
	if e.Verification != nil {
		raw, err := json.Marshal(e.Verification)
		if err != nil {
			return row, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать приёмку")
		}
		row.Verification = types.NullJSONText{JSONText: raw, Valid: true}
	}
	return row, nil
}

func (r *engagementRow) toEntity() (*entity.Engagement, error) {
	e := &entity.Engagement{
		ID:                r.ID,
		OfferID:           r.OfferID,
		RequestID:         r.RequestID,
		SeekerCompanyID:   r.SeekerCompanyID,
		ProviderID:        r.ProviderID,
		Rate:              r.Rate,
		Currency:          r.Currency,
		DurationHours:     r.DurationHours,
		TotalAmount:       r.TotalAmount,
		PlatformFee:       r.PlatformFee,
		ProviderAmount:    r.ProviderAmount,
		FacilitationFee:   r.FacilitationFee,
		Status:            valueobject.EngagementStatus(r.Status),
		StartDate:         r.StartDate,
		StartedAt:         r.StartedAt,
		EndedAt:           r.EndedAt,
		PausedAt:          r.PausedAt,
		ResumedAt:         r.ResumedAt,
		CompletedAt:       r.CompletedAt,
		CancelledAt:       r.CancelledAt,
		CompletionNotes:   r.CompletionNotes,
		CancellationNotes: r.CancellationNotes,
		Version:           r.Version,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.PriorStatus != nil {
		prior := valueobject.EngagementStatus(*r.PriorStatus)
		e.PriorStatus = &prior
	}
	if err := r.Deliverables.Unmarshal(&e.Deliverables); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены результаты работ")
	}
	if err := r.Milestones.Unmarshal(&e.Milestones); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены этапы")
	}
	if r.Verification.Valid {
		var v entity.Verification
		if err := r.Verification.Unmarshal(&v); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждена приёмка")
		}
		e.Verification = &v
	}
	return e, nil
}

type EngagementRepositoryAdapter struct {
	db *sqlx.DB
}

func NewEngagementRepositoryAdapter(db *sqlx.DB) *EngagementRepositoryAdapter {
	return &EngagementRepositoryAdapter{db: db}
}

func (r *EngagementRepositoryAdapter) Create(ctx context.Context, engagement *entity.Engagement) error {
	row, err := engagementToRow(engagement)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO engagements (` + engagementColumns + `)
		VALUES (:id, :offer_id, :request_id, :seeker_company_id, :provider_id, :rate, :currency,
		        :duration_hours, :total_amount, :platform_fee, :provider_amount, :facilitation_fee, :status, :prior_status,
		        :start_date, :started_at, :ended_at, :paused_at, :resumed_at, :completed_at, :cancelled_at,
		        :completion_notes, :cancellation_notes, :deliverables, :verification, :milestones,
		        :version, :created_at, :updated_at)
	`
	conflict := apperror.New(apperror.ErrCodeConflict, "контракт по офферу уже создан")
	return common.InsertNamed(ctx, common.Executor(ctx, r.db), conflict, query, row)
}

func (r *EngagementRepositoryAdapter) Update(ctx context.Context, engagement *entity.Engagement, expected valueobject.EngagementStatus) error {
	row, err := engagementToRow(engagement)
	if err != nil {
		return err
	}
	query := `
		UPDATE engagements
		SET offer_id = :offer_id, rate = :rate, currency = :currency, duration_hours = :duration_hours,
		    total_amount = :total_amount, platform_fee = :platform_fee, provider_amount = :provider_amount,
		    facilitation_fee = :facilitation_fee, status = :status, prior_status = :prior_status,
		    start_date = :start_date, started_at = :started_at, ended_at = :ended_at, paused_at = :paused_at,
		    resumed_at = :resumed_at, completed_at = :completed_at, cancelled_at = :cancelled_at,
		    completion_notes = :completion_notes, cancellation_notes = :cancellation_notes,
		    deliverables = :deliverables, verification = :verification, milestones = :milestones,
		    version = version + 1, updated_at = :updated_at
		WHERE id = :id AND status = :expected_status AND version = :version
	`
	arg := struct {
		engagementRow
		ExpectedStatus string `db:"expected_status"`
	}{row, string(expected)}

	if err := common.UpdateGuarded(ctx, common.Executor(ctx, r.db), query, arg); err != nil {
		return err
	}
	engagement.Version++
	return nil
}

func (r *EngagementRepositoryAdapter) findOne(ctx context.Context, notFound error, where string, args ...any) (*entity.Engagement, error) {
	query := `SELECT ` + engagementColumns + ` FROM engagements WHERE ` + where
	row, err := common.GetOne[engagementRow](ctx, common.Executor(ctx, r.db), notFound, query, args...)
	if err != nil || row == nil {
		return nil, err
	}
	return row.toEntity()
}

func (r *EngagementRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Engagement, error) {
	return r.findOne(ctx, apperror.ErrEngagementNotFound, `id = $1`, id)
}

func (r *EngagementRepositoryAdapter) FindByOfferID(ctx context.Context, offerID uuid.UUID) (*entity.Engagement, error) {
	return r.findOne(ctx, nil, `offer_id = $1`, offerID)
}

func (r *EngagementRepositoryAdapter) FindPipelineByRequestAndProvider(ctx context.Context, requestID, providerID uuid.UUID) (*entity.Engagement, error) {
	return r.findOne(ctx, nil,
		`request_id = $1 AND provider_id = $2 AND status IN ('staged', 'interviewing') ORDER BY created_at DESC LIMIT 1`,
		requestID, providerID)
}
