package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
)

type CreateEscrowRequest struct {
	EngagementID  uuid.UUID        `json:"engagement_id" binding:"required"`
	Amount        *decimal.Decimal `json:"amount"`
	Currency      string           `json:"currency"`
	PaymentMethod string           `json:"payment_method"`
}

type ReleaseEscrowRequest struct {
	Destination string `json:"destination"`
}

type RefundEscrowRequest struct {
	Reason *string `json:"reason"`
}

type EscrowPaymentResponse struct {
	ID              uuid.UUID       `json:"id"`
	EngagementID    uuid.UUID       `json:"engagement_id"`
	SeekerCompanyID uuid.UUID       `json:"seeker_company_id"`
	ProviderID      uuid.UUID       `json:"provider_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PlatformFee     decimal.Decimal `json:"platform_fee"`
	ProviderAmount  decimal.Decimal `json:"provider_amount"`
	ProcessorFee    decimal.Decimal `json:"processor_fee"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentIntentID *string         `json:"payment_intent_id"`
	TransferID      *string         `json:"transfer_id"`
	RefundID        *string         `json:"refund_id"`
	RefundedAmount  decimal.Decimal `json:"refunded_amount"`
	ReleasedAmount  decimal.Decimal `json:"released_amount"`
	RefundReason    *string         `json:"refund_reason"`
	HeldAt          *time.Time      `json:"held_at"`
	ReleasedAt      *time.Time      `json:"released_at"`
	RefundedAt      *time.Time      `json:"refunded_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func ToEscrowPaymentResponse(p *entity.EscrowPayment) EscrowPaymentResponse {
	return EscrowPaymentResponse{
		ID:              p.ID,
		EngagementID:    p.EngagementID,
		SeekerCompanyID: p.SeekerCompanyID,
		ProviderID:      p.ProviderID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		PlatformFee:     p.PlatformFee,
		ProviderAmount:  p.ProviderAmount,
		ProcessorFee:    p.ProcessorFee,
		Status:          string(p.Status),
		PaymentMethod:   p.PaymentMethod,
		PaymentIntentID: p.PaymentIntentID,
		TransferID:      p.TransferID,
		RefundID:        p.RefundID,
		RefundedAmount:  p.RefundedAmount,
		ReleasedAmount:  p.ReleasedAmount,
		RefundReason:    p.RefundReason,
		HeldAt:          p.HeldAt,
		ReleasedAt:      p.ReleasedAt,
		RefundedAt:      p.RefundedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ToEscrowPaymentPtr возвращает nil для отсутствующего платежа.
func ToEscrowPaymentPtr(p *entity.EscrowPayment) *EscrowPaymentResponse {
	if p == nil {
		return nil
	}
	resp := ToEscrowPaymentResponse(p)
	return &resp
}

func ToEscrowPaymentListResponse(payments []*entity.EscrowPayment) []EscrowPaymentResponse {
	result := make([]EscrowPaymentResponse, 0, len(payments))
	for _, p := range payments {
		result = append(result, ToEscrowPaymentResponse(p))
	}
	return result
}
