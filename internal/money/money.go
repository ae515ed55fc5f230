package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "INR"

var ErrCurrencyMismatch = errors.New("currency_mismatch")

// Money is an amount in minor units (paise for INR) tagged with its currency.
type Money struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// New returns a Money in minor units. An empty currency defaults to INR.
func New(amountMinor int64, currency string) Money {
	return Money{AmountMinor: amountMinor, Currency: normalizeCurrency(currency)}
}

// FromMajor converts a major-unit amount (rupees) into Money, rounding to the
// nearest minor unit.
func FromMajor(amount float64, currency string) Money {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	return New(int64(math.Round(amount*100)), currency)
}

// FromDecimal converts a decimal major-unit amount into Money.
func FromDecimal(amount decimal.Decimal, currency string) Money {
	return New(amount.Shift(2).Round(0).IntPart(), currency)
}

func (m Money) Major() float64 {
	return float64(m.AmountMinor) / 100
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.AmountMinor, -2)
}

func (m Money) IsZero() bool {
	return m.AmountMinor == 0
}

func (m Money) Add(other Money) (Money, error) {
	if normalizeCurrency(m.Currency) != normalizeCurrency(other.Currency) {
		return Money{}, ErrCurrencyMismatch
	}
	return New(m.AmountMinor+other.AmountMinor, m.Currency), nil
}

// String renders the amount with two decimals followed by the currency code.
func (m Money) String() string {
	return m.Decimal().StringFixed(2) + " " + normalizeCurrency(m.Currency)
}

// FormatAmount renders a major-unit amount as a fixed two decimal string for
// API payloads. Float noise from accumulated sums is removed.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).Round(2).StringFixed(2)
}

func normalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return DefaultCurrency
	}
	return currency
}
