package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
)

type EngagementRepository interface {
	Create(ctx context.Context, engagement *entity.Engagement) error
	Update(ctx context.Context, engagement *entity.Engagement, expected valueobject.EngagementStatus) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Engagement, error)
	// FindByOfferID возвращает nil, nil если контракт по офферу ещё не создан.
	FindByOfferID(ctx context.Context, offerID uuid.UUID) (*entity.Engagement, error)
	// FindPipelineByRequestAndProvider ищет контракт в статусе staged или interviewing.
	FindPipelineByRequestAndProvider(ctx context.Context, requestID, providerID uuid.UUID) (*entity.Engagement, error)
}
