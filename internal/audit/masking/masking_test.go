package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret("  "))
	assert.Equal(t, "pay_****", MaskSecret("pay_abc"))
	assert.Equal(t, "pay_****6789", MaskSecret("pay_123456789"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a****@example.com", MaskEmail("asha@example.com"))
	assert.Equal(t, "****", MaskEmail("bad"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "****3210", MaskPhone("+91 98765 43210"))
	assert.Equal(t, "****", MaskPhone("12"))
}

func TestMaskPII(t *testing.T) {
	assert.Nil(t, MaskPII(nil))

	got := MaskPII(map[string]any{
		"guest_email":       "asha@example.com",
		"payment_reference": "pay_123456789",
		"nights":            2,
		"guest": map[string]any{
			"phone": "9876543210",
		},
	})
	assert.Equal(t, "a****@example.com", got["guest_email"])
	assert.Equal(t, "pay_****6789", got["payment_reference"])
	assert.Equal(t, 2, got["nights"])
	assert.Equal(t, map[string]any{"phone": "****3210"}, got["guest"])
}
