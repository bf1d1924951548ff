package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
)

// RequestRepository читает заявки на подбор, которыми владеют компании-заказчики.
type RequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.EngagementRequest, error)
}

// CandidateSource - выдача системы подбора для заявки.
type CandidateSource interface {
	RankedCandidates(ctx context.Context, requestID uuid.UUID) ([]entity.Candidate, error)
}

// PayoutAccountRepository возвращает nil, nil если реквизиты не заведены.
type PayoutAccountRepository interface {
	FindByProviderID(ctx context.Context, providerID uuid.UUID) (*entity.PayoutAccount, error)
}
