package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
)

type ShortlistRequest struct {
	RequestID  uuid.UUID `json:"request_id" binding:"required"`
	ProviderID uuid.UUID `json:"provider_id" binding:"required"`
}

type NotesRequest struct {
	Notes *string `json:"notes"`
}

type DeliverableDTO struct {
	Title string `json:"title" binding:"required"`
	URL   string `json:"url"`
}

type CompleteEngagementRequest struct {
	Deliverables   []DeliverableDTO `json:"deliverables"`
	Notes          *string          `json:"notes"`
	ReleasePayment bool             `json:"release_payment"`
	Destination    string           `json:"destination"`
}

type MilestoneRequest struct {
	Title      string          `json:"title" binding:"required"`
	Percentage decimal.Decimal `json:"percentage"`
	DueDate    *time.Time      `json:"due_date"`
}

type SetMilestonesRequest struct {
	Milestones []MilestoneRequest `json:"milestones" binding:"required,min=1,dive"`
}

type EngagementResponse struct {
	ID                uuid.UUID              `json:"id"`
	OfferID           *uuid.UUID             `json:"offer_id"`
	RequestID         uuid.UUID              `json:"request_id"`
	SeekerCompanyID   uuid.UUID              `json:"seeker_company_id"`
	ProviderID        uuid.UUID              `json:"provider_id"`
	Rate              decimal.Decimal        `json:"rate"`
	Currency          string                 `json:"currency"`
	DurationHours     int                    `json:"duration_hours"`
	TotalAmount       decimal.Decimal        `json:"total_amount"`
	PlatformFee       decimal.Decimal        `json:"platform_fee"`
	ProviderAmount    decimal.Decimal        `json:"provider_amount"`
	FacilitationFee   decimal.Decimal        `json:"facilitation_fee"`
	Status            string                 `json:"status"`
	PriorStatus       *string                `json:"prior_status"`
	StartDate         *time.Time             `json:"start_date"`
	StartedAt         *time.Time             `json:"started_at"`
	EndedAt           *time.Time             `json:"ended_at"`
	PausedAt          *time.Time             `json:"paused_at"`
	ResumedAt         *time.Time             `json:"resumed_at"`
	CompletedAt       *time.Time             `json:"completed_at"`
	CancelledAt       *time.Time             `json:"cancelled_at"`
	CompletionNotes   *string                `json:"completion_notes"`
	CancellationNotes *string                `json:"cancellation_notes"`
	Deliverables      []entity.Deliverable   `json:"deliverables"`
	Verification      *entity.Verification   `json:"verification"`
	Milestones        []entity.Milestone     `json:"milestones"`
	Payment           *EscrowPaymentResponse `json:"payment,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

func ToEngagementResponse(e *entity.Engagement) EngagementResponse {
	resp := EngagementResponse{
		ID:                e.ID,
		OfferID:           e.OfferID,
		RequestID:         e.RequestID,
		SeekerCompanyID:   e.SeekerCompanyID,
		ProviderID:        e.ProviderID,
		Rate:              e.Rate,
		Currency:          e.Currency,
		DurationHours:     e.DurationHours,
		TotalAmount:       e.TotalAmount,
		PlatformFee:       e.PlatformFee,
		ProviderAmount:    e.ProviderAmount,
		FacilitationFee:   e.FacilitationFee,
		Status:            string(e.Status),
		StartDate:         e.StartDate,
		StartedAt:         e.StartedAt,
		EndedAt:           e.EndedAt,
		PausedAt:          e.PausedAt,
		ResumedAt:         e.ResumedAt,
		CompletedAt:       e.CompletedAt,
		CancelledAt:       e.CancelledAt,
		CompletionNotes:   e.CompletionNotes,
		CancellationNotes: e.CancellationNotes,
		Deliverables:      e.Deliverables,
		Verification:      e.Verification,
		Milestones:        e.Milestones,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
	if e.PriorStatus != nil {
		prior := string(*e.PriorStatus)
		resp.PriorStatus = &prior
	}
	if resp.Deliverables == nil {
		resp.Deliverables = []entity.Deliverable{}
	}
	if resp.Milestones == nil {
		resp.Milestones = []entity.Milestone{}
	}
	return resp
}

func ToDeliverables(items []DeliverableDTO) []entity.Deliverable {
	result := make([]entity.Deliverable, 0, len(items))
	for _, d := range items {
		result = append(result, entity.Deliverable{Title: d.Title, URL: d.URL})
	}
	return result
}
