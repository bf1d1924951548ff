package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
)

type EscrowRepository interface {
	// Create возвращает Conflict, если по контракту уже есть незавершённый платёж.
	Create(ctx context.Context, payment *entity.EscrowPayment) error
	Update(ctx context.Context, payment *entity.EscrowPayment, expected valueobject.EscrowStatus) error
	// DeleteUnauthorized удаляет ожидающий платёж без intent после отказа процессора.
	DeleteUnauthorized(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.EscrowPayment, error)
	// FindOpenByEngagementID возвращает pending или held платёж, либо nil, nil.
	FindOpenByEngagementID(ctx context.Context, engagementID uuid.UUID) (*entity.EscrowPayment, error)
	FindByEngagementID(ctx context.Context, engagementID uuid.UUID) ([]*entity.EscrowPayment, error)
}
