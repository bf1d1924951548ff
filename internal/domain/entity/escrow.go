package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

// EscrowPayment - средства заказчика, удерживаемые до подтверждения работ.
// Инвариант: Amount == PlatformFee + ProviderAmount.
type EscrowPayment struct {
	ID              uuid.UUID
	EngagementID    uuid.UUID
	SeekerCompanyID uuid.UUID
	ProviderID      uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	PlatformFee     decimal.Decimal
	ProviderAmount  decimal.Decimal
	ProcessorFee    decimal.Decimal
	Status          valueobject.EscrowStatus
	PaymentMethod   string
	PaymentIntentID *string
	TransferID      *string
	RefundID        *string
	Destination     *string
	RefundedAmount  decimal.Decimal
	ReleasedAmount  decimal.Decimal
	RefundReason    *string
	HeldAt          *time.Time
	ReleasedAt      *time.Time
	RefundedAt      *time.Time
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type NewEscrowParams struct {
	Engagement     *Engagement
	Amount         decimal.Decimal
	PlatformFee    decimal.Decimal
	ProviderAmount decimal.Decimal
	ProcessorFee   decimal.Decimal
	Currency       string
	PaymentMethod  string
}

func NewEscrowPayment(p NewEscrowParams, now time.Time) (*EscrowPayment, error) {
	if !p.Amount.IsPositive() {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма эскроу должна быть положительной")
	}
	if !p.PlatformFee.Add(p.ProviderAmount).Equal(p.Amount) {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма эскроу не сходится с комиссией и выплатой")
	}
	return &EscrowPayment{
		ID:              uuid.New(),
		EngagementID:    p.Engagement.ID,
		SeekerCompanyID: p.Engagement.SeekerCompanyID,
		ProviderID:      p.Engagement.ProviderID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		PlatformFee:     p.PlatformFee,
		ProviderAmount:  p.ProviderAmount,
		ProcessorFee:    p.ProcessorFee,
		PaymentMethod:   p.PaymentMethod,
		Status:          valueobject.EscrowStatusPending,
		RefundedAmount:  decimal.Zero,
		ReleasedAmount:  decimal.Zero,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (p *EscrowPayment) IsParticipant(actor valueobject.Actor) bool {
	return actor.IsSeekerOf(p.SeekerCompanyID) || actor.IsProvider(p.ProviderID)
}

// IsAuthorized сообщает, что у платежа есть авторизованный в процессоре intent.
func (p *EscrowPayment) IsAuthorized() bool {
	return p.PaymentIntentID != nil && *p.PaymentIntentID != ""
}

func (p *EscrowPayment) AttachIntent(intentID string, now time.Time) error {
	if p.Status != valueobject.EscrowStatusPending {
		return apperror.New(apperror.ErrCodeConflict, "авторизовать можно только ожидающий платёж")
	}
	p.PaymentIntentID = &intentID
	p.UpdatedAt = now
	return nil
}

func (p *EscrowPayment) EnsureHoldable() error {
	if p.Status != valueobject.EscrowStatusPending {
		return apperror.New(apperror.ErrCodeConflict, "удержать можно только ожидающий платёж")
	}
	if !p.IsAuthorized() {
		return apperror.New(apperror.ErrCodeConflict, "платёж ещё не авторизован в процессоре")
	}
	return nil
}

func (p *EscrowPayment) MarkHeld(now time.Time) error {
	if err := p.EnsureHoldable(); err != nil {
		return err
	}
	p.Status = valueobject.EscrowStatusHeld
	p.HeldAt = &now
	p.UpdatedAt = now
	return nil
}

func (p *EscrowPayment) EnsureHeld(action string) error {
	if p.Status != valueobject.EscrowStatusHeld {
		return apperror.New(apperror.ErrCodeConflict, action+" можно только удерживаемый платёж")
	}
	return nil
}

func (p *EscrowPayment) MarkReleased(transferID, destination string, now time.Time) error {
	if err := p.EnsureHeld("выплатить"); err != nil {
		return err
	}
	if p.RefundID != nil {
		return apperror.New(apperror.ErrCodeConflict, "по платежу уже выполнен частичный возврат")
	}
	p.Status = valueobject.EscrowStatusReleased
	p.TransferID = &transferID
	p.Destination = &destination
	p.ReleasedAmount = p.ProviderAmount
	p.ReleasedAt = &now
	p.UpdatedAt = now
	return nil
}

func (p *EscrowPayment) MarkRefunded(refundID string, reason *string, now time.Time) error {
	if err := p.EnsureHeld("вернуть"); err != nil {
		return err
	}
	p.Status = valueobject.EscrowStatusRefunded
	p.RefundID = &refundID
	p.RefundedAmount = p.Amount
	p.RefundReason = reason
	p.RefundedAt = &now
	p.UpdatedAt = now
	return nil
}

// RecordPartialRefund фиксирует первый шаг раздела средств по спору.
// Платёж остаётся held до перевода остатка исполнителю.
func (p *EscrowPayment) RecordPartialRefund(refundID string, amount decimal.Decimal, reason *string, now time.Time) error {
	if err := p.EnsureHeld("вернуть"); err != nil {
		return err
	}
	if p.RefundID != nil {
		return apperror.New(apperror.ErrCodeConflict, "возврат по платежу уже выполнен")
	}
	p.RefundID = &refundID
	p.RefundedAmount = amount
	p.RefundReason = reason
	p.RefundedAt = &now
	p.UpdatedAt = now
	return nil
}

// Remainder - часть суммы, не возвращённая заказчику.
func (p *EscrowPayment) Remainder() decimal.Decimal {
	return p.Amount.Sub(p.RefundedAmount)
}

// CompleteSplit переводит платёж в refunded после перевода остатка исполнителю.
func (p *EscrowPayment) CompleteSplit(transferID, destination string, now time.Time) error {
	if err := p.EnsureHeld("разделить"); err != nil {
		return err
	}
	if p.RefundID == nil {
		return apperror.New(apperror.ErrCodeConflict, "частичный возврат ещё не выполнен")
	}
	p.Status = valueobject.EscrowStatusRefunded
	p.TransferID = &transferID
	p.Destination = &destination
	p.ReleasedAmount = p.Remainder()
	p.ReleasedAt = &now
	p.UpdatedAt = now
	return nil
}
