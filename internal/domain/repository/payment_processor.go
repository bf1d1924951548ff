package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	Amount         decimal.Decimal
	Currency       string
	PaymentMethod  string
	IdempotencyKey string
	Metadata       map[string]string
}

type TransferRequest struct {
	Amount         decimal.Decimal
	Currency       string
	Destination    string
	IdempotencyKey string
	Metadata       map[string]string
}

type RefundRequest struct {
	PaymentIntentID string
	// Amount nil означает полный возврат.
	Amount         *decimal.Decimal
	IdempotencyKey string
	Metadata       map[string]string
}

// PaymentProcessor - внешний платёжный процессор. Все вызовы идемпотентны по ключу.
// Ошибки возвращаются как apperror с кодом PROCESSOR_TRANSIENT или PROCESSOR_PERMANENT.
type PaymentProcessor interface {
	AuthorizeCharge(ctx context.Context, req ChargeRequest) (intentID string, err error)
	CaptureCharge(ctx context.Context, intentID, idempotencyKey string) error
	Transfer(ctx context.Context, req TransferRequest) (transferID string, err error)
	Refund(ctx context.Context, req RefundRequest) (refundID string, err error)
}
