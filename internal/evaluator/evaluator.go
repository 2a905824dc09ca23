// Package evaluator simulates depth-walking sweeps across a triangular
// relationship's three legs to find the most profitable starting notional
// (SPEC_FULL §4.6).
package evaluator

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"arbitrage/internal/models"
	"arbitrage/pkg/utils"
)

// DepthSource is the subset of the depth cache the evaluator needs. Kept
// narrow and interface-typed so evaluator tests don't need a live cache.
type DepthSource interface {
	GetDepth(ctx context.Context, symbol string) (models.OrderBookReplica, error)
}

// SweepParams bounds the investment sweep and carries the per-trade taker
// fee, all base-denominated except TakerFee (percent, e.g. 0.1 for 0.1%).
type SweepParams struct {
	InvestmentMin  decimal.Decimal
	InvestmentMax  decimal.Decimal
	InvestmentStep decimal.Decimal
	TakerFee       decimal.Decimal
}

// Evaluate fetches the three books for relationship and runs the
// investment sweep, returning the best-profit Deal found. An error here
// means a book could not be read (e.g. an unknown symbol or a cancelled
// context); it does not mean an unprofitable sweep, which still returns a
// normal Deal with a negative Profit.
func Evaluate(ctx context.Context, depth DepthSource, rel *models.TriangularRelationship, params SweepParams) (models.Deal, error) {
	books := make([]models.OrderBookReplica, 3)
	for i, symbol := range rel.Symbols() {
		book, err := depth.GetDepth(ctx, symbol)
		if err != nil {
			return models.Deal{}, fmt.Errorf("evaluator: get depth for %s: %w", symbol, err)
		}
		books[i] = book
	}

	lowestEventTime := books[0].EventTime
	for _, b := range books[1:] {
		if b.EventTime < lowestEventTime {
			lowestEventTime = b.EventTime
		}
	}

	feeMultiplier := decimal.NewFromInt(1).Sub(params.TakerFee.Div(decimal.NewFromInt(100))).Pow(decimal.NewFromInt(3))

	best := models.Deal{
		Relationship: rel,
		Profit:       decimal.NewFromInt(-1),
		EventTime:    lowestEventTime,
	}

	first := true
	for investment := params.InvestmentMin; investment.LessThanOrEqual(params.InvestmentMax); investment = investment.Add(params.InvestmentStep) {
		actions, final := sweep(rel, books, investment)
		profit := final.Mul(feeMultiplier).Sub(investment).Div(investment)

		// Tie-break favors the later (larger) sweep value, matching the
		// source's >= comparison.
		if first || profit.GreaterThanOrEqual(best.Profit) {
			best.Profit = profit
			best.Investment = investment
			best.Actions = actions
			first = false
		}

		if params.InvestmentStep.IsZero() {
			break
		}
	}

	return best, nil
}

// sweep walks the three legs of rel for one starting notional, depth-walking
// each book in turn, and returns the recorded per-leg actions and the final
// held quantity.
func sweep(rel *models.TriangularRelationship, books []models.OrderBookReplica, investment decimal.Decimal) ([3]models.Action, decimal.Decimal) {
	var actions [3]models.Action
	current := investment

	for j, pair := range rel.Pairs {
		held := current
		current = decimal.Zero
		book := books[j]
		step := decimal.NewFromFloat(pair.Step)

		if rel.Actions[j] == models.ActionBuy {
			for _, ask := range book.Asks {
				want := utils.FloorToStep(held.Div(ask.Price), step)
				if ask.Quantity.GreaterThanOrEqual(want) {
					current = current.Add(want)
				} else {
					current = current.Add(utils.FloorToStep(ask.Quantity, step))
				}
				// Reproduces the source's sweep quirk: the full ask
				// quantity is deducted from the remaining notional even
				// when only `want` base units were actually bought.
				held = held.Sub(ask.Quantity.Mul(ask.Price))
				if held.LessThanOrEqual(decimal.Zero) {
					break
				}
			}
			actions[j] = models.Action{Pair: pair, Side: rel.Actions[j], Quantity: current}
		} else {
			actions[j] = models.Action{Pair: pair, Side: rel.Actions[j], Quantity: utils.FloorToStep(held, step)}
			for _, bid := range book.Bids {
				if bid.Quantity.GreaterThanOrEqual(held) {
					current = current.Add(utils.FloorToStep(held, step).Mul(bid.Price))
				} else {
					current = current.Add(utils.FloorToStep(bid.Quantity, step).Mul(bid.Price))
				}
				held = held.Sub(bid.Quantity)
				if held.LessThanOrEqual(decimal.Zero) {
					break
				}
			}
		}
	}

	return actions, current
}
