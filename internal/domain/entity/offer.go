package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

type Offer struct {
	ID              uuid.UUID
	RequestID       uuid.UUID
	SeekerCompanyID uuid.UUID
	ProviderID      uuid.UUID
	CreatedBy       uuid.UUID
	Rate            decimal.Decimal
	Currency        string
	StartDate       *time.Time
	DurationHours   int
	Message         *string
	TotalAmount     decimal.Decimal
	PlatformFee     decimal.Decimal
	ProviderAmount  decimal.Decimal
	Status          valueobject.OfferStatus
	AwaitingSide    valueobject.Side
	CounterRate     decimal.NullDecimal
	CounterMessage  *string
	CounteredBy     *uuid.UUID
	CounteredAt     *time.Time
	AgreedRate      decimal.NullDecimal
	RespondedAt     *time.Time
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OfferTerms - рассчитанные калькулятором суммы оффера.
type OfferTerms struct {
	TotalAmount    decimal.Decimal
	PlatformFee    decimal.Decimal
	ProviderAmount decimal.Decimal
}

type NewOfferParams struct {
	RequestID       uuid.UUID
	SeekerCompanyID uuid.UUID
	ProviderID      uuid.UUID
	CreatedBy       uuid.UUID
	Rate            decimal.Decimal
	Currency        string
	StartDate       *time.Time
	DurationHours   int
	Message         *string
}

func NewOffer(p NewOfferParams, terms OfferTerms, now time.Time) (*Offer, error) {
	if p.RequestID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "не указана заявка на подбор")
	}
	if p.ProviderID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "не указан исполнитель")
	}
	rate, err := valueobject.NewPositiveAmount(p.Rate, "ставка")
	if err != nil {
		return nil, err
	}
	if p.DurationHours <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "длительность должна быть положительной")
	}
	currency, err := valueobject.NewCurrency(p.Currency)
	if err != nil {
		return nil, err
	}

	return &Offer{
		ID:              uuid.New(),
		RequestID:       p.RequestID,
		SeekerCompanyID: p.SeekerCompanyID,
		ProviderID:      p.ProviderID,
		CreatedBy:       p.CreatedBy,
		Rate:            rate,
		Currency:        currency,
		StartDate:       p.StartDate,
		DurationHours:   p.DurationHours,
		Message:         p.Message,
		TotalAmount:     terms.TotalAmount,
		PlatformFee:     terms.PlatformFee,
		ProviderAmount:  terms.ProviderAmount,
		Status:          valueobject.OfferStatusPending,
		AwaitingSide:    valueobject.SideProvider,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CurrentRate - ставка, на которую согласится сторона, принимающая оффер сейчас.
func (o *Offer) CurrentRate() decimal.Decimal {
	if o.Status == valueobject.OfferStatusCountered && o.CounterRate.Valid {
		return o.CounterRate.Decimal
	}
	return o.Rate
}

// IsCounterExpired проверяет окно ответа на встречное предложение.
func (o *Offer) IsCounterExpired(now time.Time, window time.Duration) bool {
	if o.Status != valueobject.OfferStatusCountered || o.CounteredAt == nil {
		return false
	}
	return now.Sub(*o.CounteredAt) > window
}

// SideOf возвращает сторону переговоров, которую представляет пользователь, или пустую строку.
func (o *Offer) SideOf(actor valueobject.Actor) valueobject.Side {
	switch {
	case actor.IsSeekerOf(o.SeekerCompanyID):
		return valueobject.SideSeeker
	case actor.IsProvider(o.ProviderID):
		return valueobject.SideProvider
	}
	return ""
}

func (o *Offer) IsParticipant(actor valueobject.Actor) bool {
	return o.SideOf(actor) != ""
}

// EnsureRespondable проверяет, что side может ответить на оффер прямо сейчас.
func (o *Offer) EnsureRespondable(side valueobject.Side) error {
	if o.Status == valueobject.OfferStatusExpired {
		return apperror.ErrOfferExpired
	}
	if o.Status.IsTerminal() {
		return apperror.New(apperror.ErrCodeConflict, "оффер уже закрыт")
	}
	if side == "" || side != o.AwaitingSide {
		return apperror.New(apperror.ErrCodeForbidden, "ответить на оффер может только другая сторона")
	}
	return nil
}

func (o *Offer) Accept(now time.Time) error {
	if !o.Status.CanTransitionTo(valueobject.OfferStatusAccepted) {
		return apperror.New(apperror.ErrCodeConflict, "оффер нельзя принять в текущем статусе")
	}
	o.AgreedRate = decimal.NewNullDecimal(o.CurrentRate())
	o.Status = valueobject.OfferStatusAccepted
	o.RespondedAt = &now
	o.UpdatedAt = now
	return nil
}

// ApplyTerms пересчитывает суммы после принятия встречной ставки.
func (o *Offer) ApplyTerms(terms OfferTerms) {
	o.TotalAmount = terms.TotalAmount
	o.PlatformFee = terms.PlatformFee
	o.ProviderAmount = terms.ProviderAmount
}

func (o *Offer) Decline(now time.Time) error {
	if !o.Status.CanTransitionTo(valueobject.OfferStatusDeclined) {
		return apperror.New(apperror.ErrCodeConflict, "оффер нельзя отклонить в текущем статусе")
	}
	o.Status = valueobject.OfferStatusDeclined
	o.RespondedAt = &now
	o.UpdatedAt = now
	return nil
}

func (o *Offer) Counter(rate decimal.Decimal, message *string, by uuid.UUID, side valueobject.Side, now time.Time) error {
	if !o.Status.CanTransitionTo(valueobject.OfferStatusCountered) {
		return apperror.New(apperror.ErrCodeConflict, "на оффер нельзя ответить встречным предложением")
	}
	counterRate, err := valueobject.NewPositiveAmount(rate, "встречная ставка")
	if err != nil {
		return err
	}
	o.Status = valueobject.OfferStatusCountered
	o.CounterRate = decimal.NewNullDecimal(counterRate)
	o.CounterMessage = message
	o.CounteredBy = &by
	o.CounteredAt = &now
	o.AwaitingSide = side.Opposite()
	o.RespondedAt = &now
	o.UpdatedAt = now
	return nil
}

func (o *Offer) Expire(now time.Time) error {
	if !o.Status.CanTransitionTo(valueobject.OfferStatusExpired) {
		return apperror.New(apperror.ErrCodeConflict, "оффер не может истечь в текущем статусе")
	}
	o.Status = valueobject.OfferStatusExpired
	o.UpdatedAt = now
	return nil
}

// Handoff возвращает данные для создания контракта по принятому офферу.
func (o *Offer) Handoff() (*EngagementHandoff, error) {
	if o.Status != valueobject.OfferStatusAccepted {
		return nil, apperror.New(apperror.ErrCodeConflict, "оффер ещё не принят")
	}
	return &EngagementHandoff{
		OfferID:         o.ID,
		RequestID:       o.RequestID,
		SeekerCompanyID: o.SeekerCompanyID,
		ProviderID:      o.ProviderID,
		Rate:            o.AgreedRate.Decimal,
		Currency:        o.Currency,
		StartDate:       o.StartDate,
		DurationHours:   o.DurationHours,
		TotalAmount:     o.TotalAmount,
		PlatformFee:     o.PlatformFee,
		ProviderAmount:  o.ProviderAmount,
	}, nil
}

// EngagementHandoff - результат принятия оффера, из которого создаётся контракт.
type EngagementHandoff struct {
	OfferID         uuid.UUID
	RequestID       uuid.UUID
	SeekerCompanyID uuid.UUID
	ProviderID      uuid.UUID
	Rate            decimal.Decimal
	Currency        string
	StartDate       *time.Time
	DurationHours   int
	TotalAmount     decimal.Decimal
	PlatformFee     decimal.Decimal
	ProviderAmount  decimal.Decimal
}
