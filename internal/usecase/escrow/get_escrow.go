package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

type GetEscrowUseCase struct {
	l *Ledger
}

func NewGetEscrowUseCase(l *Ledger) *GetEscrowUseCase {
	return &GetEscrowUseCase{l: l}
}

func (uc *GetEscrowUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID) (*entity.EscrowPayment, error) {
	p, err := uc.l.escrowRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !p.IsParticipant(actor) {
		return nil, apperror.ErrForbidden
	}
	return p, nil
}

type ListEngagementEscrowUseCase struct {
	l *Ledger
}

func NewListEngagementEscrowUseCase(l *Ledger) *ListEngagementEscrowUseCase {
	return &ListEngagementEscrowUseCase{l: l}
}

func (uc *ListEngagementEscrowUseCase) Execute(ctx context.Context, actor valueobject.Actor, engagementID uuid.UUID) ([]*entity.EscrowPayment, error) {
	eng, err := uc.l.engagementRepo.FindByID(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !eng.IsParticipant(actor) {
		return nil, apperror.ErrForbidden
	}
	return uc.l.escrowRepo.FindByEngagementID(ctx, engagementID)
}
