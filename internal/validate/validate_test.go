package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024-01-15", true},
		{"2024-1-5", true},
		{"01/15/2024", true},
		{"15/01/2024", true},
		{"15-01-2024", true},
		{"15.01.2024", true},
		{"Jan 15, 2024", true},
		{"15 Jan 2024", true},
		{"January 15, 2024", true},
		{"2024-02-30", false},
		{"not-a-date", false},
		{" 2024-01-15", false},
		{"2024-01-15 ", false},
		{"2024-01-15T00:00:00", false},
		{"", false},
		{"13/13/2024", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidDate(tt.in), "IsValidDate(%q)", tt.in)
	}
}

func TestParseDate_FirstLayoutWins(t *testing.T) {
	got, ok := ParseDate("03/04/2024")
	assert.True(t, ok)
	assert.Equal(t, 3, int(got.Month()))
	assert.Equal(t, 4, got.Day())
}

func TestIsValidAmount(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1,234.56", true},
		{"$1,234.56", true},
		{"€999", true},
		{"0.99", true},
		{"1,234,567", true},
		{"12.3", false},
		{"abc", false},
		{"1234.56", false},
		{"1,23.00", false},
		{"$ 12.00", false},
		{"12.00\n", false},
		{"", false},
		{"-5.00", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidAmount(tt.in), "IsValidAmount(%q)", tt.in)
	}
}
