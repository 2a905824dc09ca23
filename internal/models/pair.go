package models

// TradingPair identifies one market on the exchange: an ordered base/quote
// asset pair plus the minimum quantity increment (step) for the base asset.
// A TradingPair is built once from exchange metadata at startup and never
// mutated afterward.
type TradingPair struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Step       float64
}

// NewTradingPair constructs a TradingPair. Callers are expected to have
// already filtered to actively-trading symbols.
func NewTradingPair(symbol, base, quote string, step float64) TradingPair {
	return TradingPair{Symbol: symbol, BaseAsset: base, QuoteAsset: quote, Step: step}
}

// HasAsset reports whether asset is either side of the pair.
func (p TradingPair) HasAsset(asset string) bool {
	return p.BaseAsset == asset || p.QuoteAsset == asset
}

// TheOther returns the side of the pair that is not asset. Returns "" if
// asset matches neither side.
func (p TradingPair) TheOther(asset string) string {
	switch asset {
	case p.BaseAsset:
		return p.QuoteAsset
	case p.QuoteAsset:
		return p.BaseAsset
	default:
		return ""
	}
}

// Equals reports commutative equality on the unordered {base, quote} set:
// a BTC/USDT pair equals a USDT/BTC pair regardless of which side each one
// calls "base". Directed pricing roles are preserved on each value
// independently; only identity comparison is commutative.
func (p TradingPair) Equals(other TradingPair) bool {
	return (p.BaseAsset == other.BaseAsset && p.QuoteAsset == other.QuoteAsset) ||
		(p.BaseAsset == other.QuoteAsset && p.QuoteAsset == other.BaseAsset)
}

// Text renders the pair as "base/quote", for logging and relationship
// descriptions.
func (p TradingPair) Text() string {
	return p.BaseAsset + "/" + p.QuoteAsset
}
