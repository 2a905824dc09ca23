package models

import (
	"errors"
	"fmt"
	"strings"
)

// Action sides for one hop of a triangular cycle.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// ErrRelationshipDoesNotCycle is returned by NewTriangularRelationship when
// the three pairs, walked in order from base, do not return to base.
var ErrRelationshipDoesNotCycle = errors.New("triangular relationship does not return to base asset")

// TriangularRelationship is a directed three-leg cycle start → middle → end
// that begins and ends at Base. Pairs holds the three markets in traversal
// order; Actions[i] is BUY or SELL for Pairs[i]; Intermediates holds the two
// assets held between hops.
type TriangularRelationship struct {
	Base          string
	Pairs         [3]TradingPair
	Actions       [3]string
	Intermediates [2]string
}

// NewTriangularRelationship derives the directed action plan for walking
// start → middle → end starting and ending at base. At each hop, if the
// asset currently held is the pair's base asset the action is SELL
// (consume the bid side); otherwise it is BUY (consume the ask side). The
// held asset after a hop becomes the pair's other side.
func NewTriangularRelationship(base string, start, middle, end TradingPair) (*TriangularRelationship, error) {
	rel := &TriangularRelationship{
		Base:  base,
		Pairs: [3]TradingPair{start, middle, end},
	}

	held := base
	for i, pair := range rel.Pairs {
		if held == pair.BaseAsset {
			rel.Actions[i] = ActionSell
			held = pair.QuoteAsset
		} else {
			rel.Actions[i] = ActionBuy
			held = pair.BaseAsset
		}
		if i < 2 {
			rel.Intermediates[i] = held
		}
	}

	if held != base {
		return nil, ErrRelationshipDoesNotCycle
	}
	return rel, nil
}

// Describe returns a one-line human-readable walk, e.g. "USDT -> BTC -> ETH".
func (r *TriangularRelationship) Describe() string {
	return strings.Join([]string{r.Base, r.Intermediates[0], r.Intermediates[1]}, " -> ")
}

// DescribeActions returns the per-leg action/pair walk, e.g. "BUY from
// BNB/BTC, then BUY from ETH/BNB and finally SELL from ETH/BTC".
func (r *TriangularRelationship) DescribeActions() string {
	return fmt.Sprintf("%s from %s, then %s from %s and finally %s from %s",
		r.Actions[0], r.Pairs[0].Text(),
		r.Actions[1], r.Pairs[1].Text(),
		r.Actions[2], r.Pairs[2].Text())
}

// Key returns the relationship's canonical map/log key.
func (r *TriangularRelationship) Key() string {
	return r.Base + "->" + r.Intermediates[0] + "->" + r.Intermediates[1]
}

// Symbols returns the three market symbols participating in the cycle.
func (r *TriangularRelationship) Symbols() [3]string {
	return [3]string{r.Pairs[0].Symbol, r.Pairs[1].Symbol, r.Pairs[2].Symbol}
}
