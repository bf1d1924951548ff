package valueobject

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

const DefaultCurrency = "USD"

// NewCurrency нормализует трёхбуквенный код валюты.
func NewCurrency(code string) (string, error) {
	if code == "" {
		return DefaultCurrency, nil
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный код валюты")
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", apperror.New(apperror.ErrCodeValidation, "некорректный код валюты")
		}
	}
	return code, nil
}

// NewPositiveAmount проверяет, что сумма положительна, и округляет её до копеек.
func NewPositiveAmount(amount decimal.Decimal, field string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, field+" должна быть положительной")
	}
	return amount.Round(2), nil
}

// MinorUnits переводит сумму в центы для платёжного процессора.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
