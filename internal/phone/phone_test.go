package phone

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
	}{
		{
			name:     "mobile with dashes and spaces",
			input:    "070-123 45 67",
			expected: "+46701234567",
		},
		{
			name:     "mobile without separators",
			input:    "0701234567",
			expected: "+46701234567",
		},
		{
			name:     "already E.164",
			input:    "+46701234567",
			expected: "+46701234567",
		},
		{
			name:     "leading and trailing whitespace",
			input:    "  0701234567  ",
			expected: "+46701234567",
		},
		{
			name:     "00 international prefix",
			input:    "0046701234567",
			expected: "+46701234567",
		},
		{
			name:        "empty",
			input:       "",
			shouldError: true,
		},
		{
			name:        "letters",
			input:       "ring mig",
			shouldError: true,
		},
		{
			name:        "too short",
			input:       "0701",
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.shouldError {
				require.ErrorIs(t, err, ErrInvalidNumber)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}
