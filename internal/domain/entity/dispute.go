package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

type Dispute struct {
	ID              uuid.UUID
	EngagementID    uuid.UUID
	EscrowPaymentID *uuid.UUID
	Reason          valueobject.DisputeReason
	Description     string
	FiledBy         uuid.UUID
	FilerType       valueobject.Role
	Status          valueobject.DisputeStatus
	Resolution      *string
	Outcome         *valueobject.DisputeOutcome
	RefundAmount    decimal.NullDecimal
	ReviewedBy      *uuid.UUID
	ReviewStartedAt *time.Time
	ResolvedBy      *uuid.UUID
	ResolvedAt      *time.Time
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewDispute(engagementID uuid.UUID, escrowID *uuid.UUID, reason valueobject.DisputeReason, description string, filer valueobject.Actor, now time.Time) (*Dispute, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание спора обязательно")
	}
	return &Dispute{
		ID:              uuid.New(),
		EngagementID:    engagementID,
		EscrowPaymentID: escrowID,
		Reason:          reason,
		Description:     description,
		FiledBy:         filer.UserID,
		FilerType:       filer.Role,
		Status:          valueobject.DisputeStatusOpen,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (d *Dispute) StartReview(adminID uuid.UUID, now time.Time) error {
	if !d.Status.CanTransitionTo(valueobject.DisputeStatusUnderReview) {
		return apperror.New(apperror.ErrCodeConflict, "спор нельзя взять на рассмотрение в текущем статусе")
	}
	d.Status = valueobject.DisputeStatusUnderReview
	d.ReviewedBy = &adminID
	d.ReviewStartedAt = &now
	d.UpdatedAt = now
	return nil
}

func (d *Dispute) EnsureActive() error {
	if !d.Status.IsActive() {
		return apperror.New(apperror.ErrCodeConflict, "спор уже закрыт")
	}
	return nil
}

func (d *Dispute) Resolve(resolution string, outcome valueobject.DisputeOutcome, refund decimal.NullDecimal, adminID uuid.UUID, now time.Time) error {
	if !d.Status.CanTransitionTo(valueobject.DisputeStatusResolved) {
		return apperror.New(apperror.ErrCodeConflict, "спор нельзя разрешить в текущем статусе")
	}
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return apperror.New(apperror.ErrCodeValidation, "текст решения обязателен")
	}
	d.Status = valueobject.DisputeStatusResolved
	d.Resolution = &resolution
	d.Outcome = &outcome
	d.RefundAmount = refund
	d.ResolvedBy = &adminID
	d.ResolvedAt = &now
	d.UpdatedAt = now
	return nil
}

func (d *Dispute) Close(notes *string, adminID uuid.UUID, now time.Time) error {
	if !d.Status.CanTransitionTo(valueobject.DisputeStatusClosed) {
		return apperror.New(apperror.ErrCodeConflict, "спор нельзя закрыть в текущем статусе")
	}
	restore := valueobject.DisputeOutcomeRestore
	d.Status = valueobject.DisputeStatusClosed
	d.Resolution = notes
	d.Outcome = &restore
	d.ResolvedBy = &adminID
	d.ResolvedAt = &now
	d.UpdatedAt = now
	return nil
}
