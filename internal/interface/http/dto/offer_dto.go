package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
)

// Денежные поля сериализуются строками, чтобы не терять точность на клиенте.

type CreateOfferRequest struct {
	RequestID     uuid.UUID       `json:"request_id" binding:"required"`
	ProviderID    uuid.UUID       `json:"provider_id" binding:"required"`
	Rate          decimal.Decimal `json:"rate"`
	Currency      string          `json:"currency"`
	StartDate     *time.Time      `json:"start_date"`
	DurationHours int             `json:"duration_hours" binding:"required,gt=0"`
	Message       *string         `json:"message"`
}

type RespondOfferRequest struct {
	Action      string           `json:"action" binding:"required,oneof=accept decline counter"`
	CounterRate *decimal.Decimal `json:"counter_rate"`
	Message     *string          `json:"message"`
}

type OfferResponse struct {
	ID              uuid.UUID        `json:"id"`
	RequestID       uuid.UUID        `json:"request_id"`
	SeekerCompanyID uuid.UUID        `json:"seeker_company_id"`
	ProviderID      uuid.UUID        `json:"provider_id"`
	Rate            decimal.Decimal  `json:"rate"`
	Currency        string           `json:"currency"`
	StartDate       *time.Time       `json:"start_date"`
	DurationHours   int              `json:"duration_hours"`
	Message         *string          `json:"message"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	PlatformFee     decimal.Decimal  `json:"platform_fee"`
	ProviderAmount  decimal.Decimal  `json:"provider_amount"`
	Status          string           `json:"status"`
	AwaitingSide    string           `json:"awaiting_side"`
	CounterRate     *decimal.Decimal `json:"counter_rate"`
	CounterMessage  *string          `json:"counter_message"`
	CounteredBy     *uuid.UUID       `json:"countered_by"`
	CounteredAt     *time.Time       `json:"countered_at"`
	AgreedRate      *decimal.Decimal `json:"agreed_rate"`
	RespondedAt     *time.Time       `json:"responded_at"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type RespondOfferResponse struct {
	Offer      OfferResponse       `json:"offer"`
	Engagement *EngagementResponse `json:"engagement,omitempty"`
}

func ToOfferResponse(o *entity.Offer) OfferResponse {
	return OfferResponse{
		ID:              o.ID,
		RequestID:       o.RequestID,
		SeekerCompanyID: o.SeekerCompanyID,
		ProviderID:      o.ProviderID,
		Rate:            o.Rate,
		Currency:        o.Currency,
		StartDate:       o.StartDate,
		DurationHours:   o.DurationHours,
		Message:         o.Message,
		TotalAmount:     o.TotalAmount,
		PlatformFee:     o.PlatformFee,
		ProviderAmount:  o.ProviderAmount,
		Status:          string(o.Status),
		AwaitingSide:    string(o.AwaitingSide),
		CounterRate:     nullDecimal(o.CounterRate),
		CounterMessage:  o.CounterMessage,
		CounteredBy:     o.CounteredBy,
		CounteredAt:     o.CounteredAt,
		AgreedRate:      nullDecimal(o.AgreedRate),
		RespondedAt:     o.RespondedAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func ToOfferListResponse(offers []*entity.Offer) []OfferResponse {
	result := make([]OfferResponse, 0, len(offers))
	for _, o := range offers {
		result = append(result, ToOfferResponse(o))
	}
	return result
}

func nullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
