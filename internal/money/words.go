package money

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const zeroRupees = "Zero Rupees Only"

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// NumberToWords spells a rupee amount using the Indian numbering system, e.g.
// 1500.5 becomes "One Thousand Five Hundred Rupees and Fifty Paise Only".
// Negative and non-finite amounts read as zero. Crore counts above 99 are
// read recursively, so 1e15 is "Ten Crore Crore Rupees Only".
func NumberToWords(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return zeroRupees
	}

	// Split in decimal so amounts beyond the int64 paise range stay exact.
	total := decimal.NewFromFloat(amount).Round(2)
	whole := total.Truncate(0)
	paise := total.Sub(whole).Shift(2).IntPart()
	rupees := whole.String()

	if rupees == "0" && paise == 0 {
		return zeroRupees
	}

	rupeeWords := "Zero"
	if rupees != "0" {
		rupeeWords = digitsToWords(rupees)
	}
	if paise <= 0 {
		return rupeeWords + " Rupees Only"
	}
	return rupeeWords + " Rupees and " + under100(paise) + " Paise Only"
}

// digitsToWords reads a non-negative integer given as decimal digits. Every
// seven trailing digits form a group below one crore.
func digitsToWords(digits string) string {
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return ""
	}
	if len(digits) <= 7 {
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return ""
		}
		return indianWords(n)
	}

	high := digitsToWords(digits[:len(digits)-7])
	low := digitsToWords(digits[len(digits)-7:])
	if low == "" {
		return high + " Crore"
	}
	return high + " Crore " + low
}

func indianWords(n int64) string {
	if n <= 0 {
		return ""
	}
	parts := make([]string, 0, 8)

	if n >= 10000000 {
		parts = append(parts, indianWords(n/10000000), "Crore")
		n %= 10000000
	}
	if n >= 100000 {
		parts = append(parts, under100(n/100000), "Lakh")
		n %= 100000
	}
	if n >= 1000 {
		parts = append(parts, under100(n/1000), "Thousand")
		n %= 1000
	}
	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, under100(n))
	}

	return strings.Join(parts, " ")
}

func under100(n int64) string {
	if n <= 0 || n >= 100 {
		return ""
	}
	if n < 20 {
		return ones[n]
	}
	if n%10 == 0 {
		return tens[n/10]
	}
	return tens[n/10] + " " + ones[n%10]
}
