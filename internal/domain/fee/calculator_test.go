package fee_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/fee"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pcts(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, d(v))
	}
	return out
}

func TestCalculator_PlatformFee(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	tests := []struct {
		amount string
		want   string
	}{
		{"1000", "150"},
		{"1234.56", "185.18"},
		{"0", "0"},
		{"12000", "1800"},
		{"0.03", "0"},
		{"-1000", "-150"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.True(t, d(tt.want).Equal(calc.PlatformFee(d(tt.amount))), "got %s", calc.PlatformFee(d(tt.amount)))
		})
	}
}

func TestCalculator_FacilitationFeeIsSeparateSchedule(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	assert.True(t, d("600").Equal(calc.FacilitationFee(d("12000"))))
	assert.True(t, d("1800").Equal(calc.PlatformFee(d("12000"))))
}

func TestCalculator_ProcessorFee(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	assert.True(t, calc.ProcessorFee(decimal.Zero).IsZero())
	// 2.9% + 0.30
	assert.True(t, d("29.30").Equal(calc.ProcessorFee(d("1000"))))
	// cap: 0.099 * 1 = 0.099 -> 0.09
	assert.True(t, d("0.09").Equal(calc.ProcessorFee(d("1"))))
	assert.True(t, d("-29.30").Equal(calc.ProcessorFee(d("-1000"))))
}

func TestCalculator_ProcessorFeeBoundedAndMonotonic(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())
	tenPercent := d("0.1")

	prev := decimal.Zero
	for cents := int64(1); cents <= 50000; cents += 7 {
		amount := decimal.New(cents, -2)
		got := calc.ProcessorFee(amount)
		require.True(t, got.LessThan(amount.Mul(tenPercent)), "fee %s for %s", got, amount)
		require.True(t, got.GreaterThanOrEqual(prev), "fee decreased at %s", amount)
		prev = got
	}
}

func TestCalculator_FeesAndNetSumToAmount(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	for _, s := range []string{"0", "0.01", "0.99", "1", "10", "99.99", "1234.56", "12000", "987654.32"} {
		amount := d(s)
		sum := calc.PlatformFee(amount).Add(calc.ProcessorFee(amount)).Add(calc.NetAmount(amount))
		assert.True(t, amount.Equal(sum), "amount %s, sum %s", amount, sum)
	}
}

func TestCalculator_NetAmount(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	assert.True(t, calc.NetAmount(decimal.Zero).IsZero())
	// 1000 - 150 - 29.30
	assert.True(t, d("820.70").Equal(calc.NetAmount(d("1000"))))
	// отрицательная сумма даёт пропорционально отрицательную комиссию
	assert.True(t, d("-820.70").Equal(calc.NetAmount(d("-1000"))))
}

func TestCalculator_NetAmountClampsAtZero(t *testing.T) {
	calc := fee.NewCalculator(fee.Rates{
		StandardPlatform: d("0.99"),
		Facilitation:     d("0.05"),
		ProcessorPercent: d("0.029"),
		ProcessorFixed:   d("0.30"),
		ProcessorCap:     d("0.099"),
	})

	assert.True(t, calc.NetAmount(d("100")).IsZero())
	assert.True(t, calc.NetAmount(d("0.05")).GreaterThanOrEqual(decimal.Zero))
}

func TestCalculator_MilestoneAmount(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	assert.True(t, d("3000").Equal(calc.MilestoneAmount(d("10000"), d("30"))))
	assert.True(t, d("33.33").Equal(calc.MilestoneAmount(d("100"), d("33.333"))))
}

func TestCalculator_EscrowAmount(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	got, err := calc.EscrowAmount(d("10000"), pcts("30", "40", "30"))
	require.NoError(t, err)
	assert.True(t, d("10000").Equal(got))

	_, err = calc.EscrowAmount(d("10000"), pcts("50", "40", "30"))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCalculator_MilestoneAmountsAbsorbRoundingRemainder(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	amounts, err := calc.MilestoneAmounts(d("100"), pcts("33.33", "33.33", "33.34"))
	require.NoError(t, err)
	assert.True(t, d("33.34").Equal(amounts[2]))

	amounts, err = calc.MilestoneAmounts(d("100.01"), pcts("50", "50"))
	require.NoError(t, err)
	assert.True(t, d("50.01").Equal(amounts[0]))
	assert.True(t, d("50.00").Equal(amounts[1]))
	assert.True(t, d("100.01").Equal(amounts[0].Add(amounts[1])))
}

func TestCalculator_MilestoneAmountsRejectsNegative(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	_, err := calc.MilestoneAmounts(d("100"), pcts("-10", "50"))
	assert.True(t, apperror.IsValidation(err))
}

func TestCalculator_Split(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	split := calc.Split(d("12000"))
	assert.True(t, d("1800").Equal(split.PlatformFee))
	assert.True(t, d("10200").Equal(split.ProviderAmount))

	odd := calc.Split(d("1234.56"))
	assert.True(t, odd.Amount.Equal(odd.PlatformFee.Add(odd.ProviderAmount)))
}

func TestCalculator_OfferTotal(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	assert.True(t, d("12000").Equal(calc.OfferTotal(d("100"), 120)))
}
