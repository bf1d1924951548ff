package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
)

type FileDisputeRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type ResolveDisputeRequest struct {
	Resolution   string           `json:"resolution" binding:"required"`
	RefundAmount *decimal.Decimal `json:"refund_amount"`
	Outcome      string           `json:"outcome" binding:"omitempty,oneof=restore terminate cancel"`
}

type DisputeResponse struct {
	ID              uuid.UUID        `json:"id"`
	EngagementID    uuid.UUID        `json:"engagement_id"`
	EscrowPaymentID *uuid.UUID       `json:"escrow_payment_id"`
	Reason          string           `json:"reason"`
	Description     string           `json:"description"`
	FiledBy         uuid.UUID        `json:"filed_by"`
	FilerType       string           `json:"filer_type"`
	Status          string           `json:"status"`
	Resolution      *string          `json:"resolution"`
	Outcome         *string          `json:"outcome"`
	RefundAmount    *decimal.Decimal `json:"refund_amount"`
	ReviewedBy      *uuid.UUID       `json:"reviewed_by"`
	ReviewStartedAt *time.Time       `json:"review_started_at"`
	ResolvedBy      *uuid.UUID       `json:"resolved_by"`
	ResolvedAt      *time.Time       `json:"resolved_at"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type ResolveDisputeResponse struct {
	Dispute    DisputeResponse        `json:"dispute"`
	Engagement *EngagementResponse    `json:"engagement,omitempty"`
	Payment    *EscrowPaymentResponse `json:"payment,omitempty"`
}

func ToDisputeResponse(d *entity.Dispute) DisputeResponse {
	resp := DisputeResponse{
		ID:              d.ID,
		EngagementID:    d.EngagementID,
		EscrowPaymentID: d.EscrowPaymentID,
		Reason:          string(d.Reason),
		Description:     d.Description,
		FiledBy:         d.FiledBy,
		FilerType:       string(d.FilerType),
		Status:          string(d.Status),
		Resolution:      d.Resolution,
		RefundAmount:    nullDecimal(d.RefundAmount),
		ReviewedBy:      d.ReviewedBy,
		ReviewStartedAt: d.ReviewStartedAt,
		ResolvedBy:      d.ResolvedBy,
		ResolvedAt:      d.ResolvedAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.Outcome != nil {
		outcome := string(*d.Outcome)
		resp.Outcome = &outcome
	}
	return resp
}

func ToDisputeListResponse(disputes []*entity.Dispute) []DisputeResponse {
	result := make([]DisputeResponse, 0, len(disputes))
	for _, d := range disputes {
		result = append(result, ToDisputeResponse(d))
	}
	return result
}
