package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiscalYear(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		{at: time.Date(2024, 7, 12, 10, 0, 0, 0, time.UTC), want: "2024-25"},
		{at: time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC), want: "2024-25"},
		// 2025-03-31 19:00 UTC is already 1 April in India.
		{at: time.Date(2025, 3, 31, 19, 0, 0, 0, time.UTC), want: "2025-26"},
		{at: time.Date(2099, 12, 1, 0, 0, 0, 0, time.UTC), want: "2099-00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FiscalYear(tt.at), tt.at.String())
	}
}

func TestFormatInvoiceNumber(t *testing.T) {
	issued := time.Date(2024, 7, 12, 20, 0, 0, 0, time.UTC)

	got, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, "HS", issued, 42)
	require.NoError(t, err)
	assert.Equal(t, "HS/2024-25/00042", got)

	got, err = FormatInvoiceNumber("INV{YY}{MM}{DD}-{SEQ}", "", issued, 7)
	require.NoError(t, err)
	assert.Equal(t, "INV240713-7", got)
}

func TestFormatInvoiceNumberErrors(t *testing.T) {
	issued := time.Date(2024, 7, 12, 0, 0, 0, 0, time.UTC)

	_, err := FormatInvoiceNumber("", "HS", issued, 1)
	assert.ErrorIs(t, err, ErrEmptyTemplate)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, "HS", issued, 0)
	assert.ErrorIs(t, err, ErrInvalidSequence)

	_, err = FormatInvoiceNumber("{PREFIX}-{BRANCH}-{SEQ}", "HS", issued, 1)
	assert.ErrorIs(t, err, ErrUnresolvedToken)

	_, err = FormatInvoiceNumber("{PREFIX}/{FY}/{SEQ12}", "HOURSTAY", issued, 1)
	assert.ErrorIs(t, err, ErrNumberTooLong)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, "HS", issued, 100000)
	assert.ErrorIs(t, err, ErrNumberTooLong)
}

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		template string
		prefix   string
		want     error
	}{
		{template: DefaultInvoiceNumberTemplate, prefix: "HS"},
		{template: "LS-{YYYY}{MM}-{SEQ4}", prefix: "LS"},
		{template: "{YY}{MM}/{SEQ}", prefix: ""},
		{template: " ", prefix: "HS", want: ErrEmptyTemplate},
		{template: "{PREFIX}/{FY}", prefix: "HS", want: ErrMissingSequence},
		{template: "{PREFIX}/{SEQ5}", prefix: "HS", want: ErrNotYearScoped},
		{template: "{PREFIX}/{YYYY}/{SEQ5}", prefix: "HS", want: ErrNotYearScoped},
		{template: DefaultInvoiceNumberTemplate, prefix: "HOURSTAY", want: ErrNumberTooLong},
		{template: "{PREFIX}/{FY}/{BRANCH}/{SEQ}", prefix: "HS", want: ErrUnresolvedToken},
	}
	for _, tt := range tests {
		err := ValidateTemplate(tt.template, tt.prefix)
		if tt.want == nil {
			assert.NoError(t, err, tt.template)
			continue
		}
		assert.ErrorIs(t, err, tt.want, tt.template)
	}
}
