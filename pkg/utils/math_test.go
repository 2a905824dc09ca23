package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFloorToStep(t *testing.T) {
	tests := []struct {
		name, q, step, want string
	}{
		{"exact multiple", "0.02000001", "0.01", "0.02"},
		{"round down", "0.01234", "0.01", "0.01"},
		{"zero step leaves value unchanged", "1.23456789", "0", "1.23456789"},
		{"whole number step", "100.5", "1", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FloorToStep(d(tt.q), d(tt.step))
			if !got.Equal(d(tt.want)) {
				t.Errorf("FloorToStep(%s, %s) = %s, want %s", tt.q, tt.step, got, tt.want)
			}
		})
	}
}

func TestRoundToStepDigits(t *testing.T) {
	tests := []struct {
		qty, want string
		step      float64
	}{
		{"1.23456789", "1.2346", 0.0001},
		{"5", "5", 1},
		{"0.123456", "0.123", 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.qty, func(t *testing.T) {
			got := RoundToStepDigits(d(tt.qty), tt.step)
			if !got.Equal(d(tt.want)) {
				t.Errorf("RoundToStepDigits(%s, %v) = %s, want %s", tt.qty, tt.step, got, tt.want)
			}
		})
	}
}

func TestRoundToStepDigitsInvalidStep(t *testing.T) {
	qty := d("1.23456")
	if got := RoundToStepDigits(qty, 0); !got.Equal(qty) {
		t.Errorf("RoundToStepDigits with zero step = %s, want unchanged %s", got, qty)
	}
	if got := RoundToStepDigits(qty, -1); !got.Equal(qty) {
		t.Errorf("RoundToStepDigits with negative step = %s, want unchanged %s", got, qty)
	}
}

func BenchmarkFloorToStep(b *testing.B) {
	q, step := d("0.123456789"), d("0.001")
	for i := 0; i < b.N; i++ {
		FloorToStep(q, step)
	}
}
