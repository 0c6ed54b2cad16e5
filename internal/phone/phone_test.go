package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain e164", "+254712345678", "+254712345678"},
		{"whatsapp prefix", "whatsapp:+254712345678", "+254712345678"},
		{"surrounding whitespace", "  whatsapp:+14155238886 ", "+14155238886"},
		{"short but valid", "+1234567", "+1234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"only prefix", "whatsapp:"},
		{"missing plus", "254712345678"},
		{"too short", "+12345"},
		{"too long", "+1234567890123456"},
		{"letters", "+2547abc5678"},
		{"embedded space", "+254 712345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("whatsapp:+254712345678"))
	assert.False(t, IsValid("hello"))
}
