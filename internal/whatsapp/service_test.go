package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		in, country, want string
	}{
		{"+63 917-123-4567", "63", "639171234567"},
		{"0917 123 4567", "63", "639171234567"},
		{"630917 123 4567", "63", "639171234567"},
		{"(0)917-123-4567", "63", "639171234567"},
		{"054-1234567", "972", "972541234567"},
		{"+1 415 555 0100", "", "14155550100"},
		{"0", "63", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhoneNumber(tt.in, tt.country))
		})
	}
}
