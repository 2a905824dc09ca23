package models

import "testing"

// TestNewTriangularRelationshipActionDerivation mirrors a real
// USDT -> BTC -> ETH -> USDT cycle: sell nothing, buy BTC with USDT, buy
// ETH with BTC, sell ETH for USDT.
func TestNewTriangularRelationshipActionDerivation(t *testing.T) {
	btcUsdt := NewTradingPair("BTCUSDT", "BTC", "USDT", 0.0001)
	ethBtc := NewTradingPair("ETHBTC", "ETH", "BTC", 0.001)
	ethUsdt := NewTradingPair("ETHUSDT", "ETH", "USDT", 0.0001)

	rel, err := NewTriangularRelationship("USDT", btcUsdt, ethBtc, ethUsdt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantActions := [3]string{ActionBuy, ActionBuy, ActionSell}
	if rel.Actions != wantActions {
		t.Errorf("Actions = %v, want %v", rel.Actions, wantActions)
	}

	wantIntermediates := [2]string{"BTC", "ETH"}
	if rel.Intermediates != wantIntermediates {
		t.Errorf("Intermediates = %v, want %v", rel.Intermediates, wantIntermediates)
	}

	if got := rel.Describe(); got != "USDT -> BTC -> ETH" {
		t.Errorf("Describe() = %q", got)
	}
	if got := rel.Key(); got != "USDT->BTC->ETH" {
		t.Errorf("Key() = %q", got)
	}
}

// TestNewTriangularRelationshipSellFirst covers the opposite opening hop:
// holding the base asset as the pair's base, not its quote.
func TestNewTriangularRelationshipSellFirst(t *testing.T) {
	usdtBtc := NewTradingPair("SYNTH-USDTBTC", "USDT", "BTC", 0.01)
	btcEth := NewTradingPair("ETHBTC", "ETH", "BTC", 0.001)
	usdtEth := NewTradingPair("ETHUSDT", "ETH", "USDT", 0.0001)

	rel, err := NewTriangularRelationship("USDT", usdtBtc, btcEth, usdtEth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// hop0: held=USDT == usdtBtc.BaseAsset -> SELL, held becomes BTC
	// hop1: held=BTC != btcEth.BaseAsset(ETH) -> BUY, held becomes ETH
	// hop2: held=ETH == usdtEth.BaseAsset -> SELL, held becomes USDT (cycles)
	wantActions := [3]string{ActionSell, ActionBuy, ActionSell}
	if rel.Actions != wantActions {
		t.Errorf("Actions = %v, want %v", rel.Actions, wantActions)
	}
}

// TestTriangularRelationshipDescribeActions mirrors the BNB/BTC/ETH triangle
// used to define the action-sequence description format.
func TestTriangularRelationshipDescribeActions(t *testing.T) {
	bnbBtc := NewTradingPair("BNBBTC", "BNB", "BTC", 0.01)
	ethBnb := NewTradingPair("ETHBNB", "ETH", "BNB", 0.001)
	ethBtc := NewTradingPair("ETHBTC", "ETH", "BTC", 0.0001)

	rel, err := NewTriangularRelationship("BTC", bnbBtc, ethBnb, ethBtc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "BUY from BNB/BTC, then BUY from ETH/BNB and finally SELL from ETH/BTC"
	if got := rel.DescribeActions(); got != want {
		t.Errorf("DescribeActions() = %q, want %q", got, want)
	}
}

func TestNewTriangularRelationshipDoesNotCycle(t *testing.T) {
	a := NewTradingPair("BTCUSDT", "BTC", "USDT", 0.0001)
	b := NewTradingPair("ETHBTC", "ETH", "BTC", 0.001)
	c := NewTradingPair("BNBETH", "BNB", "ETH", 0.001) // does not return to USDT

	_, err := NewTriangularRelationship("USDT", a, b, c)
	if err == nil {
		t.Fatal("expected ErrRelationshipDoesNotCycle")
	}
}

func TestTriangularRelationshipSymbols(t *testing.T) {
	a := NewTradingPair("BTCUSDT", "BTC", "USDT", 0.0001)
	b := NewTradingPair("ETHBTC", "ETH", "BTC", 0.001)
	c := NewTradingPair("ETHUSDT", "ETH", "USDT", 0.0001)

	rel, err := NewTriangularRelationship("USDT", a, b, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [3]string{"BTCUSDT", "ETHBTC", "ETHUSDT"}
	if rel.Symbols() != want {
		t.Errorf("Symbols() = %v, want %v", rel.Symbols(), want)
	}
}
