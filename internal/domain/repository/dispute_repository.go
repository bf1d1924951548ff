package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
)

type DisputeRepository interface {
	// Create возвращает Conflict, если по контракту уже есть активный спор.
	Create(ctx context.Context, dispute *entity.Dispute) error
	Update(ctx context.Context, dispute *entity.Dispute, expected valueobject.DisputeStatus) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error)
	// FindActiveByEngagementID возвращает open или under_review спор, либо nil, nil.
	FindActiveByEngagementID(ctx context.Context, engagementID uuid.UUID) (*entity.Dispute, error)
	FindByEngagementID(ctx context.Context, engagementID uuid.UUID) ([]*entity.Dispute, error)
}
