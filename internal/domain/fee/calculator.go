// Package fee содержит арифметику комиссий платформы и процессора.
// Все суммы хранятся в decimal и округляются до копеек по правилу half-up.
package fee

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

var hundred = decimal.NewFromInt(100)

// Rates - ставки, передаваемые калькулятору при создании.
type Rates struct {
	// StandardPlatform - стандартная комиссия платформы (standardPlatformFee).
	StandardPlatform decimal.Decimal
	// Facilitation - комиссия за сопровождение принятого контракта (facilitationFee).
	Facilitation     decimal.Decimal
	ProcessorPercent decimal.Decimal
	ProcessorFixed   decimal.Decimal
	// ProcessorCap ограничивает комиссию процессора долей от суммы, должна быть меньше 0.1.
	ProcessorCap     decimal.Decimal
}

// DefaultRates возвращает ставки по умолчанию.
func DefaultRates() Rates {
	return Rates{
		StandardPlatform: decimal.RequireFromString("0.15"),
		Facilitation:     decimal.RequireFromString("0.05"),
		ProcessorPercent: decimal.RequireFromString("0.029"),
		ProcessorFixed:   decimal.RequireFromString("0.30"),
		ProcessorCap:     decimal.RequireFromString("0.099"),
	}
}

type Calculator struct {
	rates Rates
}

func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Split - разбивка суммы эскроу между платформой и исполнителем.
type Split struct {
	Amount         decimal.Decimal
	PlatformFee    decimal.Decimal
	ProviderAmount decimal.Decimal
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// PlatformFee = round(amount * standardPlatformFee).
func (c *Calculator) PlatformFee(amount decimal.Decimal) decimal.Decimal {
	return round(amount.Mul(c.rates.StandardPlatform))
}

// FacilitationFee = round(amount * facilitationFee).
func (c *Calculator) FacilitationFee(amount decimal.Decimal) decimal.Decimal {
	return round(amount.Mul(c.rates.Facilitation))
}

// ProcessorFee - фиксированная часть плюс процент, но не больше cap-доли суммы,
// округлённой вниз до копейки. Для отрицательных сумм знак сохраняется.
func (c *Calculator) ProcessorFee(amount decimal.Decimal) decimal.Decimal {
	if amount.IsZero() {
		return decimal.Zero
	}

	abs := amount.Abs()
	fee := round(abs.Mul(c.rates.ProcessorPercent).Add(c.rates.ProcessorFixed))
	capped := abs.Mul(c.rates.ProcessorCap).Truncate(2)
	fee = decimal.Min(fee, capped)

	if amount.IsNegative() {
		return fee.Neg()
	}
	return fee
}

func (c *Calculator) TotalFees(amount decimal.Decimal) decimal.Decimal {
	return c.PlatformFee(amount).Add(c.ProcessorFee(amount))
}

// NetAmount - сумма к выплате после всех комиссий.
func (c *Calculator) NetAmount(amount decimal.Decimal) decimal.Decimal {
	if amount.IsZero() {
		return decimal.Zero
	}
	net := amount.Sub(c.TotalFees(amount))
	if amount.IsPositive() && net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// MilestoneAmount = round(total * percentage / 100).
func (c *Calculator) MilestoneAmount(total, percentage decimal.Decimal) decimal.Decimal {
	return round(total.Mul(percentage).Div(hundred))
}

// EscrowAmount суммирует суммы этапов. Сумма процентов не может превышать 100.
func (c *Calculator) EscrowAmount(total decimal.Decimal, percentages []decimal.Decimal) (decimal.Decimal, error) {
	amounts, err := c.MilestoneAmounts(total, percentages)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	return sum, nil
}

// MilestoneAmounts рассчитывает суммы этапов. Если проценты дают ровно 100,
// копеечный остаток от округления относится на последний этап, чтобы сумма этапов
// совпала с общей суммой.
func (c *Calculator) MilestoneAmounts(total decimal.Decimal, percentages []decimal.Decimal) ([]decimal.Decimal, error) {
	sumPct := decimal.Zero
	for _, p := range percentages {
		if p.IsNegative() {
			return nil, apperror.New(apperror.ErrCodeValidation, "процент этапа не может быть отрицательным")
		}
		sumPct = sumPct.Add(p)
	}
	if sumPct.GreaterThan(hundred) {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма процентов этапов превышает 100")
	}

	amounts := make([]decimal.Decimal, len(percentages))
	sum := decimal.Zero
	for i, p := range percentages {
		amounts[i] = c.MilestoneAmount(total, p)
		sum = sum.Add(amounts[i])
	}

	if len(amounts) > 0 && sumPct.Equal(hundred) && !sum.Equal(total) {
		last := len(amounts) - 1
		amounts[last] = amounts[last].Add(total.Sub(sum))
	}
	return amounts, nil
}

// Split делит сумму так, что amount == PlatformFee + ProviderAmount точно.
func (c *Calculator) Split(amount decimal.Decimal) Split {
	amount = round(amount)
	platformFee := c.PlatformFee(amount)
	return Split{
		Amount:         amount,
		PlatformFee:    platformFee,
		ProviderAmount: amount.Sub(platformFee),
	}
}

// OfferTotal = round(rate * hours).
func (c *Calculator) OfferTotal(rate decimal.Decimal, hours int) decimal.Decimal {
	return round(rate.Mul(decimal.NewFromInt(int64(hours))))
}
