package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)

	// IST is used for fiscal years and printed dates on invoices.
	IST = time.FixedZone("IST", 5*60*60+30*60)
)

const DefaultInvoiceNumberTemplate = "{PREFIX}/{FY}/{SEQ5}"

// MaxNumberLength is the GST rule 46 cap on invoice numbers.
const MaxNumberLength = 16

// SequenceCapacity is the sequence a template must still fit within one
// fiscal year.
const SequenceCapacity = 99999

var (
	ErrEmptyTemplate   = errors.New("invoice_number_template_empty")
	ErrInvalidSequence = errors.New("invoice_sequence_invalid")
	ErrUnresolvedToken = errors.New("invoice_number_unresolved_token")
	ErrNumberTooLong   = errors.New("invoice_number_too_long")
	ErrMissingSequence = errors.New("invoice_number_missing_sequence")
	ErrNotYearScoped   = errors.New("invoice_number_not_year_scoped")
)

// FiscalYear returns the Indian financial year label (April to March) that t
// falls in, e.g. "2024-25".
func FiscalYear(t time.Time) string {
	start := FiscalYearStart(t)
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}

// FiscalYearStart returns the calendar year in which t's financial year began.
func FiscalYearStart(t time.Time) int {
	local := t.In(IST)
	if local.Month() < time.April {
		return local.Year() - 1
	}
	return local.Year()
}

// FormatInvoiceNumber formats a human-readable invoice number
// based on a template, prefix, issue time, and monotonic sequence.
//
// This function is PURE:
// - No side effects
// - No DB access
// - Fully deterministic
func FormatInvoiceNumber(
	template string,
	prefix string,
	issuedAt time.Time,
	seq int64,
) (string, error) {

	if strings.TrimSpace(template) == "" {
		return "", ErrEmptyTemplate
	}

	if seq <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidSequence, seq)
	}

	local := issuedAt.In(IST)
	out := template

	out = strings.ReplaceAll(out, "{PREFIX}", strings.TrimSpace(prefix))
	out = strings.ReplaceAll(out, "{FY}", FiscalYear(issuedAt))

	// Date tokens
	out = strings.ReplaceAll(out, "{YYYY}", local.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", local.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", local.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", local.Format("02"))

	// Simple sequence
	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))

	// Padded sequence
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m
		}

		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}

		return fmt.Sprintf("%0*d", width, seq)
	})

	// Final safety check: unresolved tokens
	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("%w: %s", ErrUnresolvedToken, out)
	}

	if len(out) > MaxNumberLength {
		return "", fmt.Errorf("%w: %s", ErrNumberTooLong, out)
	}

	return out, nil
}

// ValidateTemplate checks that numbers rendered from template stay unique
// across fiscal years and fit MaxNumberLength up to SequenceCapacity.
//
// Sequences restart every fiscal year, so the number must carry {FY} or a
// calendar year together with {MM}.
func ValidateTemplate(template string, prefix string) error {
	if strings.TrimSpace(template) == "" {
		return ErrEmptyTemplate
	}
	if !strings.Contains(template, "{SEQ}") && !seqPadRe.MatchString(template) {
		return ErrMissingSequence
	}

	hasYear := strings.Contains(template, "{YYYY}") || strings.Contains(template, "{YY}")
	if !strings.Contains(template, "{FY}") && !(hasYear && strings.Contains(template, "{MM}")) {
		return ErrNotYearScoped
	}

	// Every token renders at a fixed width except the sequence.
	sample := time.Date(2099, time.December, 31, 12, 0, 0, 0, IST)
	_, err := FormatInvoiceNumber(template, prefix, sample, SequenceCapacity)
	return err
}
