package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain integer", "1234", "1234"},
		{"plain decimal", "1234.56", "1234.56"},
		{"rand symbol with thousand separator", "R 1,234.56", "1234.56"},
		{"dollar symbol", "$99.99", "99.99"},
		{"zar prefix", "ZAR 500.00", "500"},
		{"space separated thousands", "1 234 567.89", "1234567.89"},
		{"apostrophe separated thousands", "1'234.50", "1234.5"},
		{"accounting negative", "(1,234.56)", "-1234.56"},
		{"trailing minus", "123.45-", "-123.45"},
		{"leading minus", "-123.45", "-123.45"},
		{"decimal comma treated as thousands", "1234,56", "123456"},
		{"multiple dots keep last as decimal", "1.234.56", "1234.56"},
		{"stray text around number", "approx 120.00 total", "120"},
		{"empty string", "", "0"},
		{"whitespace only", "   ", "0"},
		{"no digits at all", "pending", "0"},
		{"lone dot", ".", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amount(tt.input)
			want, err := decimal.NewFromString(tt.expected)
			if err != nil {
				t.Fatalf("bad expected value %q: %v", tt.expected, err)
			}
			if !got.Equal(want) {
				t.Errorf("Amount(%q) = %s, want %s", tt.input, got.String(), want.String())
			}
		})
	}
}

func TestAmount_Idempotent(t *testing.T) {
	inputs := []string{
		"R 1,234.56",
		"(500.00)",
		"123.45-",
		"1234,56",
		"0",
		"not a number",
	}

	for _, input := range inputs {
		first := Amount(input)
		second := Amount(first.String())
		if !first.Equal(second) {
			t.Errorf("Amount not idempotent for %q: first=%s second=%s",
				input, first.String(), second.String())
		}
	}
}

func TestAmount_AccountingNegativePinned(t *testing.T) {
	got := Amount("(1,234.56)")
	want := decimal.NewFromFloat(-1234.56)
	if !got.Equal(want) {
		t.Errorf("Amount(\"(1,234.56)\") = %s, want %s", got.String(), want.String())
	}
}
