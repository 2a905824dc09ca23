// Package relationship computes the triangular cycle set once at startup:
// every pair of markets that can start and end at the configured base
// asset, joined through a shared middle market (SPEC_FULL §4.5).
package relationship

import (
	"fmt"

	"arbitrage/internal/models"
)

// Set is the output of Build: every triangular relationship found, plus the
// deduplicated symbol list the depth cache must subscribe to.
type Set struct {
	Relationships []*models.TriangularRelationship
	Symbols       []string
}

// Build enumerates triangular cycles over pairs that return to base,
// deriving each one's directed buy/sell action plan. Only pairs the caller
// has already filtered to actively-trading markets should be passed in.
func Build(base string, pairs []models.TradingPair) Set {
	var starters []models.TradingPair
	for _, p := range pairs {
		if p.HasAsset(base) {
			starters = append(starters, p)
		}
	}

	seenSymbol := make(map[string]bool)
	var symbols []string
	addSymbol := func(symbol string) {
		if !seenSymbol[symbol] {
			seenSymbol[symbol] = true
			symbols = append(symbols, symbol)
		}
	}

	var relationships []*models.TriangularRelationship
	for i := 0; i < len(starters); i++ {
		start := starters[i]
		x := start.TheOther(base)

		for j := i + 1; j < len(starters); j++ {
			end := starters[j]
			y := end.TheOther(base)

			middle, ok := findMiddle(pairs, x, y)
			if !ok {
				continue
			}

			rel, err := models.NewTriangularRelationship(base, start, middle, end)
			if err != nil {
				// x and y were derived from start/end themselves, so a
				// matching middle always cycles back to base; this branch
				// is unreachable in practice and only guards against a
				// malformed pairs list.
				continue
			}

			relationships = append(relationships, rel)
			addSymbol(start.Symbol)
			addSymbol(middle.Symbol)
			addSymbol(end.Symbol)
		}
	}

	return Set{Relationships: relationships, Symbols: symbols}
}

// findMiddle searches pairs for a market whose unordered asset set is
// exactly {x, y}.
func findMiddle(pairs []models.TradingPair, x, y string) (models.TradingPair, bool) {
	for _, p := range pairs {
		if (p.BaseAsset == x && p.QuoteAsset == y) || (p.BaseAsset == y && p.QuoteAsset == x) {
			return p, true
		}
	}
	return models.TradingPair{}, false
}

// String summarizes the build result for startup logs.
func (s Set) String() string {
	return fmt.Sprintf("%d relationships over %d symbols", len(s.Relationships), len(s.Symbols))
}
