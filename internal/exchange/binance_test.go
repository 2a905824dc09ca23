package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestBinance(t *testing.T, handler http.HandlerFunc) *Binance {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	b := NewBinance("test-key", "test-secret")
	b.baseURL = server.URL
	b.httpClient = server.Client()
	return b
}

func TestBinanceExchangeInfoFiltersFields(t *testing.T) {
	b := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/exchangeInfo" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"symbols": []map[string]interface{}{
				{
					"symbol": "BTCUSDT", "baseAsset": "BTC", "quoteAsset": "USDT", "status": "TRADING",
					"filters": []map[string]interface{}{
						{"filterType": "LOT_SIZE", "stepSize": "0.00001000"},
						{"filterType": "PRICE_FILTER", "stepSize": "0.01000000"},
					},
				},
				{
					"symbol": "ABCDEF", "baseAsset": "ABC", "quoteAsset": "DEF", "status": "BREAK",
					"filters": []map[string]interface{}{},
				},
			},
		})
	})

	symbols, err := b.ExchangeInfo(context.Background())
	if err != nil {
		t.Fatalf("ExchangeInfo failed: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("got %d symbols, want 2 (caller filters status)", len(symbols))
	}
	if symbols[0].Symbol != "BTCUSDT" || symbols[0].StepSize != 0.00001 {
		t.Errorf("unexpected symbol[0]: %+v", symbols[0])
	}
	if symbols[0].Status != TradingStatus {
		t.Errorf("Status = %q, want %q", symbols[0].Status, TradingStatus)
	}
}

func TestBinanceGetOrderBookSnapshot(t *testing.T) {
	b := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "ETHUSDT" {
			t.Fatalf("unexpected symbol param: %s", r.URL.Query().Get("symbol"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"lastUpdateId": 123456,
			"bids":         [][]string{{"100.50", "2.0"}},
			"asks":         [][]string{{"100.60", "1.5"}},
		})
	})

	snap, err := b.GetOrderBookSnapshot(context.Background(), "ETHUSDT", 100)
	if err != nil {
		t.Fatalf("GetOrderBookSnapshot failed: %v", err)
	}
	if snap.LastUpdateID != 123456 {
		t.Errorf("LastUpdateID = %d, want 123456", snap.LastUpdateID)
	}
	if len(snap.Bids) != 1 || !snap.Bids[0].Price.Equal(mustDecimal("100.50")) {
		t.Errorf("unexpected bids: %+v", snap.Bids)
	}
	if len(snap.Asks) != 1 || !snap.Asks[0].Quantity.Equal(mustDecimal("1.5")) {
		t.Errorf("unexpected asks: %+v", snap.Asks)
	}
}

func TestBinanceMarketBuySignsRequest(t *testing.T) {
	b := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-MBX-APIKEY") != "test-key" {
			t.Fatalf("missing API key header")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.Form.Get("signature") == "" {
			t.Fatalf("expected signature param on signed request")
		}
		if r.Form.Get("side") != "BUY" {
			t.Errorf("side = %q, want BUY", r.Form.Get("side"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"orderId": 987654})
	})

	ack, err := b.MarketBuy(context.Background(), "BTCUSDT", 0.01)
	if err != nil {
		t.Fatalf("MarketBuy failed: %v", err)
	}
	if ack.OrderID != "987654" {
		t.Errorf("OrderID = %q, want 987654", ack.OrderID)
	}
}

func TestBinanceOrderStatusNotFoundMapsToSentinel(t *testing.T) {
	b := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"code": -2013, "msg": "Order does not exist."})
	})
	b.retryCfg.MaxRetries = 1

	_, err := b.OrderStatus(context.Background(), "BTCUSDT", "1")
	if err != ErrOrderNotFound {
		t.Fatalf("OrderStatus error = %v, want ErrOrderNotFound", err)
	}
}

func TestParseBinanceDepthFrame(t *testing.T) {
	raw := []byte(`{
		"stream": "btcusdt@depth@100ms",
		"data": {
			"e": "depthUpdate",
			"E": 1700000000000,
			"s": "BTCUSDT",
			"U": 100,
			"u": 105,
			"b": [["30000.00", "1.5"]],
			"a": [["30001.00", "0.0"]]
		}
	}`)

	event, ok := parseBinanceDepthFrame(raw)
	if !ok {
		t.Fatal("expected frame to parse")
	}
	if event.Symbol != "BTCUSDT" || event.FirstUpdateID != 100 || event.FinalUpdateID != 105 {
		t.Errorf("unexpected event header: %+v", event)
	}
	if len(event.BidUpdates) != 1 || len(event.AskUpdates) != 1 {
		t.Fatalf("expected one bid and one ask update, got %+v", event)
	}
	if !event.AskUpdates[0].Quantity.IsZero() {
		t.Errorf("expected zero-quantity ask update to pass through as a deletion sentinel")
	}
}

func TestParseBinanceDepthFrameIgnoresNonDepthEvents(t *testing.T) {
	_, ok := parseBinanceDepthFrame([]byte(`{"stream":"x","data":{"e":"trade"}}`))
	if ok {
		t.Fatal("expected non-depthUpdate frame to be ignored")
	}
}
