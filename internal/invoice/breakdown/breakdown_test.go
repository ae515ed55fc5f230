package breakdown

import (
	"math"
	"math/rand"
	"testing"

	"github.com/smallbiznis/hourstay/internal/money"
	"github.com/stretchr/testify/assert"
)

func TestCalculate_ThousandRupees(t *testing.T) {
	b := Calculate(1000)

	assert.Equal(t, 1052.63, b.EstimatedSubtotal)
	assert.Equal(t, 52.63, b.EstimatedDiscount)

	assert.Equal(t, 849.13, b.BasePrice)
	assert.Equal(t, 21.23, b.BaseCGST)
	assert.Equal(t, 21.23, b.BaseSGST)
	assert.Equal(t, 891.59, b.BaseTotal)

	assert.Equal(t, 115.91, b.ServiceCharges)
	assert.Equal(t, 10.43, b.ServiceCGST)
	assert.Equal(t, 10.43, b.ServiceSGST)
	assert.Equal(t, 136.77, b.ServiceTotal)

	assert.Equal(t, 20.57, b.ConvenienceFee)
	assert.Equal(t, 1.85, b.ConvenienceCGST)
	assert.Equal(t, 1.85, b.ConvenienceSGST)
	assert.Equal(t, 24.27, b.ConvenienceTotal)

	assert.Equal(t, 1052.63, b.SubtotalBeforeDiscount)
	assert.Equal(t, 52.63, b.DiscountAmount)
	assert.Equal(t, 1000.0, b.FinalAmount)

	assert.InDelta(t, 33.51, b.TotalCGST, 1e-9)
	assert.InDelta(t, 33.51, b.TotalSGST, 1e-9)
	assert.InDelta(t, 67.02, b.TotalGST, 1e-9)
	assert.InDelta(t, 985.61, b.TotalTaxable, 1e-9)
	assert.Equal(t, 0.0, b.Drift())
}

func TestCalculate_Fixtures(t *testing.T) {
	cases := []struct {
		in       float64
		base     float64
		baseTot  float64
		service  float64
		svcTot   float64
		fee      float64
		feeTot   float64
		subtotal float64
		discount float64
		final    float64
	}{
		{in: 1, base: 0.85, baseTot: 0.89, service: 0.12, svcTot: 0.14, fee: 0.02, feeTot: 0.02, subtotal: 1.05, discount: 0.05, final: 1},
		{in: 1500.5, base: 1274.13, baseTot: 1337.83, service: 173.92, svcTot: 205.22, fee: 30.86, feeTot: 36.42, subtotal: 1579.47, discount: 78.97, final: 1500.5},
		{in: 2500, base: 2122.84, baseTot: 2228.98, service: 289.77, svcTot: 341.93, fee: 51.42, feeTot: 60.68, subtotal: 2631.59, discount: 131.58, final: 2500.01},
		{in: 4999.99, base: 4245.67, baseTot: 4457.95, service: 579.53, svcTot: 683.85, fee: 102.84, feeTot: 121.36, subtotal: 5263.16, discount: 263.16, final: 5000},
		{in: 12345.67, base: 10483.15, baseTot: 11007.31, service: 1430.95, svcTot: 1688.53, fee: 253.92, feeTot: 299.62, subtotal: 12995.46, discount: 649.77, final: 12345.69},
		{in: 100000, base: 84913.61, baseTot: 89159.29, service: 11590.71, svcTot: 13677.03, fee: 2056.73, feeTot: 2426.95, subtotal: 105263.27, discount: 5263.16, final: 100000.11},
	}

	for _, tc := range cases {
		b := Calculate(tc.in)
		assert.Equal(t, tc.base, b.BasePrice, "base price for %v", tc.in)
		assert.Equal(t, tc.baseTot, b.BaseTotal, "base total for %v", tc.in)
		assert.Equal(t, tc.service, b.ServiceCharges, "service charges for %v", tc.in)
		assert.Equal(t, tc.svcTot, b.ServiceTotal, "service total for %v", tc.in)
		assert.Equal(t, tc.fee, b.ConvenienceFee, "convenience fee for %v", tc.in)
		assert.Equal(t, tc.feeTot, b.ConvenienceTotal, "convenience total for %v", tc.in)
		assert.Equal(t, tc.subtotal, b.SubtotalBeforeDiscount, "subtotal for %v", tc.in)
		assert.Equal(t, tc.discount, b.DiscountAmount, "discount for %v", tc.in)
		assert.Equal(t, tc.final, b.FinalAmount, "final for %v", tc.in)
	}
}

func TestCalculate_SeedEstimatesAreSuperseded(t *testing.T) {
	b := Calculate(2500)

	assert.Equal(t, 2631.58, b.EstimatedSubtotal)
	assert.Equal(t, 2631.59, b.SubtotalBeforeDiscount)
	assert.Equal(t, 0.01, b.Drift())
}

func TestCalculate_Zero(t *testing.T) {
	assert.Equal(t, Breakdown{}, Calculate(0))
}

func TestCalculate_InvalidInputTreatedAsZero(t *testing.T) {
	assert.Equal(t, Breakdown{}, Calculate(-500))
	assert.Equal(t, Breakdown{}, Calculate(math.NaN()))
	assert.Equal(t, Breakdown{}, Calculate(math.Inf(1)))
}

func TestCalculate_SmallestAmount(t *testing.T) {
	b := Calculate(0.01)

	assert.Equal(t, 0.01, b.BasePrice)
	assert.Equal(t, 0.01, b.BaseTotal)
	assert.Equal(t, 0.0, b.ServiceCharges)
	assert.Equal(t, 0.0, b.ConvenienceFee)
	assert.Equal(t, 0.01, b.FinalAmount)
}

// The gross-up multiplier is truncated, so the recomputed amount drifts by at
// most a few paise plus roughly one part per million of the amount.
func roundTripBound(amount float64) float64 {
	return 0.06 + amount*1.1e-6
}

func TestCalculate_RoundTrip(t *testing.T) {
	check := func(amount float64) {
		b := Calculate(amount)
		if diff := math.Abs(b.FinalAmount - amount); diff > roundTripBound(amount)+1e-9 {
			t.Fatalf("amount %v drifted to %v", amount, b.FinalAmount)
		}
	}

	for paise := 0; paise <= 200000; paise++ {
		check(float64(paise) / 100)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100000; i++ {
		check(money.Round2(rng.Float64() * 10_000_000))
	}
}

func TestCalculate_NonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50000; i++ {
		amount := money.Round2(rng.Float64() * 10_000_000)
		b := Calculate(amount)
		for _, line := range b.Lines() {
			if line.TaxableValue < 0 || line.CGST < 0 || line.SGST < 0 || line.Total < 0 {
				t.Fatalf("negative line %+v for amount %v", line, amount)
			}
		}
		if b.DiscountAmount < 0 || b.SubtotalBeforeDiscount < 0 || b.FinalAmount < 0 {
			t.Fatalf("negative totals for amount %v", amount)
		}
	}
}

func TestCalculate_TaxConsistency(t *testing.T) {
	for _, amount := range []float64{1, 999, 1000, 1500.5, 4999.99, 87654.32} {
		b := Calculate(amount)
		assert.Equal(t, b.TotalCGST+b.TotalSGST, b.TotalGST)
		assert.Equal(t, b.TotalCGST, b.TotalSGST)
	}
}

func TestLines(t *testing.T) {
	b := Calculate(1000)
	lines := b.Lines()

	assert.Len(t, lines, 3)
	assert.Equal(t, LineAccommodation, lines[0].Kind)
	assert.Equal(t, BaseCGSTRate, lines[0].CGSTRate)
	assert.Equal(t, b.BaseTotal, lines[0].Total)
	assert.Equal(t, LineService, lines[1].Kind)
	assert.Equal(t, FeeSGSTRate, lines[1].SGSTRate)
	assert.Equal(t, LineConvenience, lines[2].Kind)
	assert.Equal(t, b.ConvenienceFee, lines[2].TaxableValue)

	var total float64
	for _, line := range lines {
		total += line.Total
	}
	assert.Equal(t, b.SubtotalBeforeDiscount, money.Round2(total))
}

func TestFromMoneyAndWords(t *testing.T) {
	b := FromMoney(money.New(150050, "INR"))

	assert.Equal(t, 1500.5, b.FinalAmount)
	assert.Equal(t, "One Thousand Five Hundred Rupees and Fifty Paise Only", b.Words())
}
