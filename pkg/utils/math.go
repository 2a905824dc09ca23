package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// FloorToStep rounds q down to the nearest multiple of step in exact
// decimal arithmetic. A zero step leaves q unchanged (no rounding
// constraint configured for this pair). Used by the evaluator's sweep when
// computing a leg's tentative fill quantity.
func FloorToStep(q, step decimal.Decimal) decimal.Decimal {
	if step.IsZero() {
		return q
	}
	return q.Div(step).Floor().Mul(step)
}

// RoundToStepDigits rounds qty to the number of fractional digits implied
// by step: the smallest k with step * 10^k >= 1. Used by the executor to
// round a deal's chosen quantity to the exchange's lot-size increment
// before submitting an order.
func RoundToStepDigits(qty decimal.Decimal, step float64) decimal.Decimal {
	if step <= 0 || math.IsNaN(step) {
		return qty
	}
	k := int32(0)
	s := step
	for s > 0 && s < 1 {
		s *= 10
		k++
		if k > 18 {
			break
		}
	}
	return qty.Round(k)
}
