package offer

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

type GetOfferUseCase struct {
	offerRepo repository.OfferRepository
}

func NewGetOfferUseCase(offerRepo repository.OfferRepository) *GetOfferUseCase {
	return &GetOfferUseCase{offerRepo: offerRepo}
}

func (uc *GetOfferUseCase) Execute(ctx context.Context, actor valueobject.Actor, offerID uuid.UUID) (*entity.Offer, error) {
	offer, err := uc.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !offer.IsParticipant(actor) {
		return nil, apperror.ErrForbidden
	}
	return offer, nil
}

type ListRequestOffersUseCase struct {
	offerRepo   repository.OfferRepository
	requestRepo repository.RequestRepository
}

func NewListRequestOffersUseCase(offerRepo repository.OfferRepository, requestRepo repository.RequestRepository) *ListRequestOffersUseCase {
	return &ListRequestOffersUseCase{offerRepo: offerRepo, requestRepo: requestRepo}
}

func (uc *ListRequestOffersUseCase) Execute(ctx context.Context, actor valueobject.Actor, requestID uuid.UUID) ([]*entity.Offer, error) {
	request, err := uc.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.IsSeekerOf(request.SeekerCompanyID) {
		return nil, apperror.ErrForbidden
	}
	return uc.offerRepo.FindByRequestID(ctx, requestID)
}

// MaterializeEngagementUseCase повторно создаёт контракт по принятому офферу.
// Если контракт уже есть, возвращается он.
type MaterializeEngagementUseCase struct {
	offerRepo repository.OfferRepository
	consumer  HandoffConsumer
}

func NewMaterializeEngagementUseCase(offerRepo repository.OfferRepository, consumer HandoffConsumer) *MaterializeEngagementUseCase {
	return &MaterializeEngagementUseCase{offerRepo: offerRepo, consumer: consumer}
}

func (uc *MaterializeEngagementUseCase) Execute(ctx context.Context, actor valueobject.Actor, offerID uuid.UUID) (*entity.Engagement, error) {
	offer, err := uc.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !offer.IsParticipant(actor) {
		return nil, apperror.ErrForbidden
	}
	handoff, err := offer.Handoff()
	if err != nil {
		return nil, err
	}
	return uc.consumer.Execute(ctx, handoff)
}
