package types

import (
	"math"
	"testing"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name     string
		a, b, d  int64
		expected int64
	}{
		{"Simple", 10, 3, 2, 15},
		{"Floors", 10, 1, 3, 3},
		{"Zero numerator", 0, 100, 7, 0},
		{"Identity", 42, 1, 1, 42},
		{"Large no overflow", math.MaxInt64, 2, 4, math.MaxInt64 / 2},
		{"Huge product", 1_000_000_000_000, 31_536_000, 63_072_000, 500_000_000_000},
		{"Bps", 999, 250, 10000, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MulDiv(tt.a, tt.b, tt.d); got != tt.expected {
				t.Errorf("MulDiv(%d, %d, %d): got %d, want %d", tt.a, tt.b, tt.d, got, tt.expected)
			}
		})
	}
}

func TestMulDivPanics(t *testing.T) {
	tests := []struct {
		name    string
		a, b, d int64
	}{
		{"Negative operand", -1, 2, 3},
		{"Zero denominator", 1, 2, 0},
		{"Negative denominator", 1, 2, -3},
		{"Quotient overflow", math.MaxInt64, math.MaxInt64, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("Expected panic")
				}
			}()
			_ = MulDiv(tt.a, tt.b, tt.d)
		})
	}
}

func BenchmarkMulDiv(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = MulDiv(1_000_000_000_000, 31_536_000, 63_072_000)
	}
}
