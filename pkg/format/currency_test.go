package format

import (
	"strings"
	"testing"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		code     string
		locale   string
		contains []string
		prefix   string
	}{
		{
			name:     "US dollars in en-US",
			value:    1234.5,
			code:     "USD",
			locale:   "en-US",
			contains: []string{"$", "1,234.50"},
		},
		{
			name:     "Reais in pt-BR",
			value:    1234.5,
			code:     "BRL",
			locale:   "pt-BR",
			contains: []string{"R$", "1.234,50"},
		},
		{
			name:     "Negative amount keeps the sign in front",
			value:    -1234.5,
			code:     "BRL",
			locale:   "pt-BR",
			contains: []string{"1.234,50"},
			prefix:   "-",
		},
		{
			name:     "Zero",
			value:    0,
			code:     "EUR",
			locale:   "en",
			contains: []string{"0.00"},
		},
		{
			name:     "Lowercase code",
			value:    10,
			code:     "usd",
			locale:   "en-US",
			contains: []string{"10.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Currency(tt.value, tt.code, tt.locale)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Fatalf("Currency(%v, %q, %q) = %q, missing %q", tt.value, tt.code, tt.locale, got, want)
				}
			}
			if tt.prefix != "" && !strings.HasPrefix(got, tt.prefix) {
				t.Fatalf("Currency(%v) = %q, want prefix %q", tt.value, got, tt.prefix)
			}
		})
	}
}

func TestCurrencyNegativeRoundingToZero(t *testing.T) {
	tests := []struct {
		value    float64
		code     string
		locale   string
		expected string
	}{
		{-0.004, "BRL", "pt-BR", "R$ 0,00"},
		{-0.004, "USD", "en-US", "$0.00"},
		{-0.005, "USD", "en-US", "-$0.01"},
	}

	for _, tt := range tests {
		got, err := Currency(tt.value, tt.code, tt.locale)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.expected {
			t.Errorf("Currency(%v, %q, %q) = %q, expected %q", tt.value, tt.code, tt.locale, got, tt.expected)
		}
	}
}

func TestCurrencyErrors(t *testing.T) {
	if _, err := Currency(1, "DOLLARS", "en-US"); err == nil {
		t.Fatalf("expected error for invalid currency code")
	}
	if _, err := Currency(1, "USD", "not a locale!"); err == nil {
		t.Fatalf("expected error for invalid locale")
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		value  float64
		locale string
		want   string
	}{
		{12.5, "en-US", "12.5%"},
		{12.5, "pt-BR", "12,5%"},
		{0, "en-US", "0.0%"},
		{-40, "en-US", "-40.0%"},
	}

	for _, tt := range tests {
		got, err := Percent(tt.value, tt.locale)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Fatalf("Percent(%v, %q) = %q, want %q", tt.value, tt.locale, got, tt.want)
		}
	}
}
