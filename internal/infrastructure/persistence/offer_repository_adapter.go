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

const offerColumns = `id, request_id, seeker_company_id, provider_id, created_by, rate, currency,
	start_date, duration_hours, message, total_amount, platform_fee, provider_amount, status,
	awaiting_side, counter_rate, counter_message, countered_by, countered_at, agreed_rate,
	responded_at, version, created_at, updated_at`

type offerRow struct {
	ID              uuid.UUID           `db:"id"`
	RequestID       uuid.UUID           `db:"request_id"`
	SeekerCompanyID uuid.UUID           `db:"seeker_company_id"`
	ProviderID      uuid.UUID           `db:"provider_id"`
	CreatedBy       uuid.UUID           `db:"created_by"`
	Rate            decimal.Decimal     `db:"rate"`
	Currency        string              `db:"currency"`
	StartDate       *time.Time          `db:"start_date"`
	DurationHours   int                 `db:"duration_hours"`
	Message         *string             `db:"message"`
	TotalAmount     decimal.Decimal     `db:"total_amount"`
	PlatformFee     decimal.Decimal     `db:"platform_fee"`
	ProviderAmount  decimal.Decimal     `db:"provider_amount"`
	Status          string              `db:"status"`
	AwaitingSide    string              `db:"awaiting_side"`
	CounterRate     decimal.NullDecimal `db:"counter_rate"`
	CounterMessage  *string             `db:"counter_message"`
	CounteredBy     *uuid.UUID          `db:"countered_by"`
	CounteredAt     *time.Time          `db:"countered_at"`
	AgreedRate      decimal.NullDecimal `db:"agreed_rate"`
	RespondedAt     *time.Time          `db:"responded_at"`
	Version         int                 `db:"version"`
	CreatedAt       time.Time           `db:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at"`
}

func offerToRow(o *entity.Offer) offerRow {
	return offerRow{
		ID:              o.ID,
		RequestID:       o.RequestID,
		SeekerCompanyID: o.SeekerCompanyID,
		ProviderID:      o.ProviderID,
		CreatedBy:       o.CreatedBy,
		Rate:            o.Rate,
		Currency:        o.Currency,
		StartDate:       o.StartDate,
		DurationHours:   o.DurationHours,
		Message:         o.Message,
		TotalAmount:     o.TotalAmount,
		PlatformFee:     o.PlatformFee,
		ProviderAmount:  o.ProviderAmount,
		Status:          string(o.Status),
		AwaitingSide:    string(o.AwaitingSide),
		CounterRate:     o.CounterRate,
		CounterMessage:  o.CounterMessage,
		CounteredBy:     o.CounteredBy,
		CounteredAt:     o.CounteredAt,
		AgreedRate:      o.AgreedRate,
		RespondedAt:     o.RespondedAt,
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (r *offerRow) toEntity() *entity.Offer {
	return &entity.Offer{
		ID:              r.ID,
		RequestID:       r.RequestID,
		SeekerCompanyID: r.SeekerCompanyID,
		ProviderID:      r.ProviderID,
		CreatedBy:       r.CreatedBy,
		Rate:            r.Rate,
		Currency:        r.Currency,
		StartDate:       r.StartDate,
		DurationHours:   r.DurationHours,
		Message:         r.Message,
		TotalAmount:     r.TotalAmount,
		PlatformFee:     r.PlatformFee,
		ProviderAmount:  r.ProviderAmount,
		Status:          valueobject.OfferStatus(r.Status),
		AwaitingSide:    valueobject.Side(r.AwaitingSide),
		CounterRate:     r.CounterRate,
		CounterMessage:  r.CounterMessage,
		CounteredBy:     r.CounteredBy,
		CounteredAt:     r.CounteredAt,
		AgreedRate:      r.AgreedRate,
		RespondedAt:     r.RespondedAt,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type OfferRepositoryAdapter struct {
	db *sqlx.DB
}

func NewOfferRepositoryAdapter(db *sqlx.DB) *OfferRepositoryAdapter {
	return &OfferRepositoryAdapter{db: db}
}

func (r *OfferRepositoryAdapter) Create(ctx context.Context, offer *entity.Offer) error {
	query := `
		INSERT INTO offers (` + offerColumns + `)
		VALUES (:id, :request_id, :seeker_company_id, :provider_id, :created_by, :rate, :currency,
		        :start_date, :duration_hours, :message, :total_amount, :platform_fee, :provider_amount, :status,
		        :awaiting_side, :counter_rate, :counter_message, :countered_by, :countered_at, :agreed_rate,
		        :responded_at, :version, :created_at, :updated_at)
	`
	conflict := apperror.New(apperror.ErrCodeConflict, "по этой паре уже есть активный оффер")
	return common.InsertNamed(ctx, common.Executor(ctx, r.db), conflict, query, offerToRow(offer))
}

func (r *OfferRepositoryAdapter) Update(ctx context.Context, offer *entity.Offer, expected valueobject.OfferStatus) error {
	query := `
		UPDATE offers
		SET rate = :rate, total_amount = :total_amount, platform_fee = :platform_fee,
		    provider_amount = :provider_amount, status = :status, awaiting_side = :awaiting_side,
		    counter_rate = :counter_rate, counter_message = :counter_message, countered_by = :countered_by,
		    countered_at = :countered_at, agreed_rate = :agreed_rate, responded_at = :responded_at,
		    version = version + 1, updated_at = :updated_at
		WHERE id = :id AND status = :expected_status AND version = :version
	`
	arg := struct {
		offerRow
		ExpectedStatus string `db:"expected_status"`
	}{offerToRow(offer), string(expected)}

	if err := common.UpdateGuarded(ctx, common.Executor(ctx, r.db), query, arg); err != nil {
		return err
	}
	offer.Version++
	return nil
}

func (r *OfferRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	row, err := common.GetOne[offerRow](ctx, common.Executor(ctx, r.db), apperror.ErrOfferNotFound, query, id)
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *OfferRepositoryAdapter) FindActiveByRequestAndProvider(ctx context.Context, requestID, providerID uuid.UUID) (*entity.Offer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE request_id = $1 AND provider_id = $2 AND status IN ('pending', 'countered')
	`
	row, err := common.GetOne[offerRow](ctx, common.Executor(ctx, r.db), nil, query, requestID, providerID)
	if err != nil || row == nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *OfferRepositoryAdapter) FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]*entity.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE request_id = $1 ORDER BY created_at DESC`
	rows, err := common.SelectAll[offerRow](ctx, common.Executor(ctx, r.db), query, requestID)
	if err != nil {
		return nil, err
	}
	offers := make([]*entity.Offer, 0, len(rows))
	for i := range rows {
		offers = append(offers, rows[i].toEntity())
	}
	return offers, nil
}
