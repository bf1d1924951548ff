package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
)

// OfferRepository хранит офферы. Update выполняется только если статус и версия
// записи совпадают с прочитанными, иначе возвращается Conflict.
type OfferRepository interface {
	Create(ctx context.Context, offer *entity.Offer) error
	Update(ctx context.Context, offer *entity.Offer, expected valueobject.OfferStatus) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Offer, error)
	FindActiveByRequestAndProvider(ctx context.Context, requestID, providerID uuid.UUID) (*entity.Offer, error)
	FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]*entity.Offer, error)
}
