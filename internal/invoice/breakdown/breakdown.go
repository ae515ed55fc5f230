// Package breakdown reconstructs an itemised GST tax invoice from the single
// amount a guest paid.
//
// The paid amount already nets in a flat discount, an accommodation base with
// 5% GST, a 13% service charge with 18% GST and a 2% convenience fee with 18%
// GST. Calculate solves for the base price and then rebuilds every line
// forward, rounding to paise at each step so documents match those already
// issued.
package breakdown

import (
	"math"

	"github.com/smallbiznis/hourstay/internal/money"
)

const (
	DiscountRate    = 0.05
	ServiceRate     = 0.13
	ConvenienceRate = 0.02

	// BaseCGSTRate and BaseSGSTRate split the 5% accommodation GST.
	BaseCGSTRate = 0.025
	BaseSGSTRate = 0.025

	// FeeCGSTRate and FeeSGSTRate split the 18% GST on service and
	// convenience charges.
	FeeCGSTRate = 0.09
	FeeSGSTRate = 0.09

	// GrossUpMultiplier maps a GST-exclusive base price to the subtotal
	// before discount. Issued invoices depend on this exact value; it is not
	// derived from the rates above.
	GrossUpMultiplier = 1.23965
)

// LineKind identifies one of the three charge lines on a tax invoice.
type LineKind string

const (
	LineAccommodation LineKind = "accommodation"
	LineService       LineKind = "service_charge"
	LineConvenience   LineKind = "convenience_fee"
)

// Breakdown is the itemised invoice derived from a paid amount. All values are
// rupees rounded to paise, except the Total* aggregates which are plain sums.
type Breakdown struct {
	// InputAmount is the paid amount the breakdown was reconstructed from.
	InputAmount float64 `json:"input_amount"`

	// EstimatedSubtotal and EstimatedDiscount seed the base price solve and
	// are superseded by SubtotalBeforeDiscount and DiscountAmount.
	EstimatedSubtotal float64 `json:"estimated_subtotal"`
	EstimatedDiscount float64 `json:"estimated_discount"`

	BasePrice float64 `json:"base_price"`
	BaseCGST  float64 `json:"base_cgst"`
	BaseSGST  float64 `json:"base_sgst"`
	BaseTotal float64 `json:"base_total"`

	ServiceCharges float64 `json:"service_charges"`
	ServiceCGST    float64 `json:"service_cgst"`
	ServiceSGST    float64 `json:"service_sgst"`
	ServiceTotal   float64 `json:"service_total"`

	ConvenienceFee   float64 `json:"convenience_fee"`
	ConvenienceCGST  float64 `json:"convenience_cgst"`
	ConvenienceSGST  float64 `json:"convenience_sgst"`
	ConvenienceTotal float64 `json:"convenience_total"`

	SubtotalBeforeDiscount float64 `json:"subtotal_before_discount"`
	DiscountAmount         float64 `json:"discount_amount"`
	FinalAmount            float64 `json:"final_amount"`

	TotalCGST    float64 `json:"total_cgst"`
	TotalSGST    float64 `json:"total_sgst"`
	TotalGST     float64 `json:"total_gst"`
	TotalTaxable float64 `json:"total_taxable"`
}

// Line is a single charge row of the invoice with its GST split.
type Line struct {
	Kind         LineKind `json:"kind"`
	TaxableValue float64  `json:"taxable_value"`
	CGSTRate     float64  `json:"cgst_rate"`
	CGST         float64  `json:"cgst"`
	SGSTRate     float64  `json:"sgst_rate"`
	SGST         float64  `json:"sgst"`
	Total        float64  `json:"total"`
}

// Calculate reconstructs the invoice for finalAmount rupees. Negative and
// non-finite inputs are treated as zero.
func Calculate(finalAmount float64) Breakdown {
	if math.IsNaN(finalAmount) || math.IsInf(finalAmount, 0) || finalAmount < 0 {
		finalAmount = 0
	}

	r := money.Round2

	estimatedSubtotal := r(finalAmount / (1 - DiscountRate))
	estimatedDiscount := r(estimatedSubtotal * DiscountRate)

	basePrice := r(estimatedSubtotal / GrossUpMultiplier)
	baseCGST := r(basePrice * BaseCGSTRate)
	baseSGST := r(basePrice * BaseSGSTRate)
	baseTotal := r(basePrice + baseCGST + baseSGST)

	serviceCharges := r(baseTotal * ServiceRate)
	serviceCGST := r(serviceCharges * FeeCGSTRate)
	serviceSGST := r(serviceCharges * FeeSGSTRate)
	serviceTotal := r(serviceCharges + serviceCGST + serviceSGST)

	// core total is not rounded before the fee is taken
	coreTotal := baseTotal + serviceTotal
	convenienceFee := r(coreTotal * ConvenienceRate)
	convenienceCGST := r(convenienceFee * FeeCGSTRate)
	convenienceSGST := r(convenienceFee * FeeSGSTRate)
	convenienceTotal := r(convenienceFee + convenienceCGST + convenienceSGST)

	subtotal := r(baseTotal + serviceTotal + convenienceTotal)
	discount := r(subtotal * DiscountRate)
	final := r(subtotal - discount)

	totalCGST := baseCGST + serviceCGST + convenienceCGST
	totalSGST := baseSGST + serviceSGST + convenienceSGST

	return Breakdown{
		InputAmount:            finalAmount,
		EstimatedSubtotal:      estimatedSubtotal,
		EstimatedDiscount:      estimatedDiscount,
		BasePrice:              basePrice,
		BaseCGST:               baseCGST,
		BaseSGST:               baseSGST,
		BaseTotal:              baseTotal,
		ServiceCharges:         serviceCharges,
		ServiceCGST:            serviceCGST,
		ServiceSGST:            serviceSGST,
		ServiceTotal:           serviceTotal,
		ConvenienceFee:         convenienceFee,
		ConvenienceCGST:        convenienceCGST,
		ConvenienceSGST:        convenienceSGST,
		ConvenienceTotal:       convenienceTotal,
		SubtotalBeforeDiscount: subtotal,
		DiscountAmount:         discount,
		FinalAmount:            final,
		TotalCGST:              totalCGST,
		TotalSGST:              totalSGST,
		TotalGST:               totalCGST + totalSGST,
		TotalTaxable:           basePrice + serviceCharges + convenienceFee,
	}
}

// FromMoney calculates the breakdown for a tagged amount.
func FromMoney(m money.Money) Breakdown {
	return Calculate(m.Major())
}

// Lines returns the charge rows in invoice order.
func (b Breakdown) Lines() []Line {
	return []Line{
		{
			Kind:         LineAccommodation,
			TaxableValue: b.BasePrice,
			CGSTRate:     BaseCGSTRate,
			CGST:         b.BaseCGST,
			SGSTRate:     BaseSGSTRate,
			SGST:         b.BaseSGST,
			Total:        b.BaseTotal,
		},
		{
			Kind:         LineService,
			TaxableValue: b.ServiceCharges,
			CGSTRate:     FeeCGSTRate,
			CGST:         b.ServiceCGST,
			SGSTRate:     FeeSGSTRate,
			SGST:         b.ServiceSGST,
			Total:        b.ServiceTotal,
		},
		{
			Kind:         LineConvenience,
			TaxableValue: b.ConvenienceFee,
			CGSTRate:     FeeCGSTRate,
			CGST:         b.ConvenienceCGST,
			SGSTRate:     FeeSGSTRate,
			SGST:         b.ConvenienceSGST,
			Total:        b.ConvenienceTotal,
		},
	}
}

// Drift is the difference between the recomputed final amount and the amount
// the breakdown was built from.
func (b Breakdown) Drift() float64 {
	return money.Round2(b.FinalAmount - b.InputAmount)
}

// Words spells the recomputed final amount.
func (b Breakdown) Words() string {
	return money.NumberToWords(b.FinalAmount)
}
