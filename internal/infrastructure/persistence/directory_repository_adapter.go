package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/repository/common"
)

// DirectoryRepositoryAdapter читает заявки, выдачу подбора и реквизиты выплат.
// Эти записи ведут соседние системы, здесь они только читаются.
type DirectoryRepositoryAdapter struct {
	db *sqlx.DB
}

func NewDirectoryRepositoryAdapter(db *sqlx.DB) *DirectoryRepositoryAdapter {
	return &DirectoryRepositoryAdapter{db: db}
}

type requestRow struct {
	ID              uuid.UUID `db:"id"`
	SeekerCompanyID uuid.UUID `db:"seeker_company_id"`
	Title           string    `db:"title"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r *DirectoryRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.EngagementRequest, error) {
	query := `SELECT id, seeker_company_id, title, status, created_at FROM engagement_requests WHERE id = $1`
	row, err := common.GetOne[requestRow](ctx, common.Executor(ctx, r.db), apperror.ErrRequestNotFound, query, id)
	if err != nil {
		return nil, err
	}
	return &entity.EngagementRequest{
		ID:              row.ID,
		SeekerCompanyID: row.SeekerCompanyID,
		Title:           row.Title,
		Status:          row.Status,
		CreatedAt:       row.CreatedAt,
	}, nil
}

type candidateRow struct {
	ProviderID uuid.UUID `db:"provider_id"`
	Rank       int       `db:"rank"`
	Score      float64   `db:"score"`
}

func (r *DirectoryRepositoryAdapter) RankedCandidates(ctx context.Context, requestID uuid.UUID) ([]entity.Candidate, error) {
	query := `SELECT provider_id, rank, score FROM request_candidates WHERE request_id = $1 ORDER BY rank`
	rows, err := common.SelectAll[candidateRow](ctx, common.Executor(ctx, r.db), query, requestID)
	if err != nil {
		return nil, err
	}
	candidates := make([]entity.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, entity.Candidate{ProviderID: row.ProviderID, Rank: row.Rank, Score: row.Score})
	}
	return candidates, nil
}

type payoutRow struct {
	ProviderID     uuid.UUID `db:"provider_id"`
	Destination    string    `db:"destination"`
	PayoutsEnabled bool      `db:"payouts_enabled"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r *DirectoryRepositoryAdapter) FindByProviderID(ctx context.Context, providerID uuid.UUID) (*entity.PayoutAccount, error) {
	query := `SELECT provider_id, destination, payouts_enabled, updated_at FROM payout_accounts WHERE provider_id = $1`
	row, err := common.GetOne[payoutRow](ctx, common.Executor(ctx, r.db), nil, query, providerID)
	if err != nil || row == nil {
		return nil, err
	}
	return &entity.PayoutAccount{
		ProviderID:     row.ProviderID,
		Destination:    row.Destination,
		PayoutsEnabled: row.PayoutsEnabled,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}
