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

const escrowColumns = `id, engagement_id, seeker_company_id, provider_id, amount, currency,
	platform_fee, provider_amount, processor_fee, status, payment_method, payment_intent_id,
	transfer_id, refund_id, destination, refunded_amount, released_amount, refund_reason,
	held_at, released_at, refunded_at, version, created_at, updated_at`

type escrowRow struct {
	ID              uuid.UUID       `db:"id"`
	EngagementID    uuid.UUID       `db:"engagement_id"`
	SeekerCompanyID uuid.UUID       `db:"seeker_company_id"`
	ProviderID      uuid.UUID       `db:"provider_id"`
	Amount          decimal.Decimal `db:"amount"`
	Currency        string          `db:"currency"`
	PlatformFee     decimal.Decimal `db:"platform_fee"`
	ProviderAmount  decimal.Decimal `db:"provider_amount"`
	ProcessorFee    decimal.Decimal `db:"processor_fee"`
	Status          string          `db:"status"`
	PaymentMethod   string          `db:"payment_method"`
	PaymentIntentID *string         `db:"payment_intent_id"`
	TransferID      *string         `db:"transfer_id"`
	RefundID        *string         `db:"refund_id"`
	Destination     *string         `db:"destination"`
	RefundedAmount  decimal.Decimal `db:"refunded_amount"`
	ReleasedAmount  decimal.Decimal `db:"released_amount"`
	RefundReason    *string         `db:"refund_reason"`
	HeldAt          *time.Time      `db:"held_at"`
	ReleasedAt      *time.Time      `db:"released_at"`
	RefundedAt      *time.Time      `db:"refunded_at"`
	Version         int             `db:"version"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func escrowToRow(p *entity.EscrowPayment) escrowRow {
	return escrowRow{
		ID:              p.ID,
		EngagementID:    p.EngagementID,
		SeekerCompanyID: p.SeekerCompanyID,
		ProviderID:      p.ProviderID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		PlatformFee:     p.PlatformFee,
		ProviderAmount:  p.ProviderAmount,
		ProcessorFee:    p.ProcessorFee,
		Status:          string(p.Status),
		PaymentMethod:   p.PaymentMethod,
		PaymentIntentID: p.PaymentIntentID,
		TransferID:      p.TransferID,
		RefundID:        p.RefundID,
		Destination:     p.Destination,
		RefundedAmount:  p.RefundedAmount,
		ReleasedAmount:  p.ReleasedAmount,
		RefundReason:    p.RefundReason,
		HeldAt:          p.HeldAt,
		ReleasedAt:      p.ReleasedAt,
		RefundedAt:      p.RefundedAt,
		Version:         p.Version,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (r *escrowRow) toEntity() *entity.EscrowPayment {
	return &entity.EscrowPayment{
		ID:              r.ID,
		EngagementID:    r.EngagementID,
		SeekerCompanyID: r.SeekerCompanyID,
		ProviderID:      r.ProviderID,
		Amount:          r.Amount,
		Currency:        r.Currency,
		PlatformFee:     r.PlatformFee,
		ProviderAmount:  r.ProviderAmount,
		ProcessorFee:    r.ProcessorFee,
		Status:          valueobject.EscrowStatus(r.Status),
		PaymentMethod:   r.PaymentMethod,
		PaymentIntentID: r.PaymentIntentID,
		TransferID:      r.TransferID,
		RefundID:        r.RefundID,
		Destination:     r.Destination,
		RefundedAmount:  r.RefundedAmount,
		ReleasedAmount:  r.ReleasedAmount,
		RefundReason:    r.RefundReason,
		HeldAt:          r.HeldAt,
		ReleasedAt:      r.ReleasedAt,
		RefundedAt:      r.RefundedAt,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type EscrowRepositoryAdapter struct {
	db *sqlx.DB
}

func NewEscrowRepositoryAdapter(db *sqlx.DB) *EscrowRepositoryAdapter {
	return &EscrowRepositoryAdapter{db: db}
}

func (r *EscrowRepositoryAdapter) Create(ctx context.Context, payment *entity.EscrowPayment) error {
	query := `
		INSERT INTO escrow_payments (` + escrowColumns + `)
		VALUES (:id, :engagement_id, :seeker_company_id, :provider_id, :amount, :currency,
		        :platform_fee, :provider_amount, :processor_fee, :status, :payment_method, :payment_intent_id,
		        :transfer_id, :refund_id, :destination, :refunded_amount, :released_amount, :refund_reason,
		        :held_at, :released_at, :refunded_at, :version, :created_at, :updated_at)
	`
	conflict := apperror.New(apperror.ErrCodeConflict, "по контракту уже есть незавершённый платёж")
	return common.InsertNamed(ctx, common.Executor(ctx, r.db), conflict, query, escrowToRow(payment))
}

func (r *EscrowRepositoryAdapter) Update(ctx context.Context, payment *entity.EscrowPayment, expected valueobject.EscrowStatus) error {
	query := `
		UPDATE escrow_payments
		SET status = :status, payment_intent_id = :payment_intent_id, transfer_id = :transfer_id,
		    refund_id = :refund_id, destination = :destination, refunded_amount = :refunded_amount,
		    released_amount = :released_amount, refund_reason = :refund_reason, held_at = :held_at,
		    released_at = :released_at, refunded_at = :refunded_at,
		    version = version + 1, updated_at = :updated_at
		WHERE id = :id AND status = :expected_status AND version = :version
	`
	arg := struct {
		escrowRow
		ExpectedStatus string `db:"expected_status"`
	}{escrowToRow(payment), string(expected)}

	if err := common.UpdateGuarded(ctx, common.Executor(ctx, r.db), query, arg); err != nil {
		return err
	}
	payment.Version++
	return nil
}

// DeleteUnauthorized удаляет только ожидающий платёж без intent. Отсутствие записи не ошибка.
func (r *EscrowRepositoryAdapter) DeleteUnauthorized(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM escrow_payments WHERE id = $1 AND status = 'pending' AND payment_intent_id IS NULL`
	if _, err := common.Executor(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось удалить платёж")
	}
	return nil
}

func (r *EscrowRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.EscrowPayment, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_payments WHERE id = $1`
	row, err := common.GetOne[escrowRow](ctx, common.Executor(ctx, r.db), apperror.ErrEscrowNotFound, query, id)
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *EscrowRepositoryAdapter) FindOpenByEngagementID(ctx context.Context, engagementID uuid.UUID) (*entity.EscrowPayment, error) {
	query := `
		SELECT ` + escrowColumns + `
		FROM escrow_payments
		WHERE engagement_id = $1 AND status IN ('pending', 'held')
	`
	row, err := common.GetOne[escrowRow](ctx, common.Executor(ctx, r.db), nil, query, engagementID)
	if err != nil || row == nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *EscrowRepositoryAdapter) FindByEngagementID(ctx context.Context, engagementID uuid.UUID) ([]*entity.EscrowPayment, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_payments WHERE engagement_id = $1 ORDER BY created_at DESC`
	rows, err := common.SelectAll[escrowRow](ctx, common.Executor(ctx, r.db), query, engagementID)
	if err != nil {
		return nil, err
	}
	payments := make([]*entity.EscrowPayment, 0, len(rows))
	for i := range rows {
		payments = append(payments, rows[i].toEntity())
	}
	return payments, nil
}
