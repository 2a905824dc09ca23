package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"arbitrage/internal/models"
	"arbitrage/pkg/ratelimit"
	"arbitrage/pkg/retry"
)

const (
	binanceBaseURL  = "https://api.binance.com"
	binanceWSBase   = "wss://stream.binance.com:9443/stream"
	binanceRecvWnd  = "5000"
	maxStreamsPerWS = 200 // Binance caps combined-stream subscriptions per connection
)

// Binance implements Exchange against Binance's spot REST and WebSocket
// market-data APIs.
type Binance struct {
	apiKey    string
	secretKey string
	baseURL   string // overridable in tests; defaults to binanceBaseURL

	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
	retryCfg   retry.Config

	wsManagersMu sync.Mutex
	wsManagers   []*WSReconnectManager
}

// NewBinance builds a client. apiKey/secretKey may be empty for the
// unauthenticated calls (ExchangeInfo, GetOrderBookSnapshot,
// SubscribeDepthDiff); MarketBuy/MarketSell/OrderStatus require both.
func NewBinance(apiKey, secretKey string) *Binance {
	cfg := retry.NetworkConfig()
	cfg.RetryIf = retry.IsRetryable // 4xx rejections are wrapped Permanent and stop immediately

	return &Binance{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    binanceBaseURL,
		httpClient: GetGlobalHTTPClient().GetClient(),
		// Binance's spot REST weight budget comfortably allows 10 req/s of
		// sustained traffic from one IP; burst covers a bootstrap fan-out of
		// snapshot fetches.
		limiter:  ratelimit.NewRateLimiter(10, 30),
		retryCfg: cfg,
	}
}

// sign returns the HMAC-SHA256 signature Binance requires on signed
// endpoints, hex-encoded.
func (b *Binance) sign(query string) string {
	h := hmac.New(sha256.New, []byte(b.secretKey))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// doRequest issues one REST call, rate-limited and retried on transient
// network failures. signed requests get an HMAC signature and API key
// header per Binance's auth scheme.
func (b *Binance) doRequest(ctx context.Context, method, endpoint string, params url.Values, signed bool) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", binanceRecvWnd)
		params.Set("signature", b.sign(params.Encode()))
	}

	body, err := retry.DoWithResult(ctx, func() ([]byte, error) {
		reqURL := b.baseURL + endpoint
		var req *http.Request
		var err error
		if method == http.MethodGet || method == http.MethodDelete {
			if q := params.Encode(); q != "" {
				reqURL += "?" + q
			}
			req, err = http.NewRequestWithContext(ctx, method, reqURL, nil)
		} else {
			req, err = http.NewRequestWithContext(ctx, method, reqURL, strings.NewReader(params.Encode()))
			if err == nil {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
		}
		if err != nil {
			return nil, retry.Permanent(err)
		}
		if signed {
			req.Header.Set("X-MBX-APIKEY", b.apiKey)
		}

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return nil, err // network error: retryable
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("binance: server error %d: %s", resp.StatusCode, string(data))
		}
		if resp.StatusCode >= 400 {
			var apiErr struct {
				Code int    `json:"code"`
				Msg  string `json:"msg"`
			}
			_ = json.Unmarshal(data, &apiErr)
			return nil, retry.Permanent(&ExchangeError{Exchange: "binance", Code: strconv.Itoa(apiErr.Code), Message: apiErr.Msg})
		}

		return data, nil
	}, b.retryCfg)

	return body, err
}

// ExchangeInfo fetches the full symbol universe from GET /api/v3/exchangeInfo.
func (b *Binance) ExchangeInfo(ctx context.Context) ([]Symbol, error) {
	body, err := b.doRequest(ctx, http.MethodGet, "/api/v3/exchangeInfo", nil, false)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Symbols []struct {
			Symbol     string `json:"symbol"`
			BaseAsset  string `json:"baseAsset"`
			QuoteAsset string `json:"quoteAsset"`
			Status     string `json:"status"`
			Filters    []struct {
				FilterType string `json:"filterType"`
				StepSize   string `json:"stepSize"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("binance: decode exchangeInfo: %w", err)
	}

	symbols := make([]Symbol, 0, len(resp.Symbols))
	for _, s := range resp.Symbols {
		var step float64
		for _, f := range s.Filters {
			if f.FilterType == "LOT_SIZE" {
				step, _ = strconv.ParseFloat(f.StepSize, 64)
			}
		}
		symbols = append(symbols, Symbol{
			Symbol:     s.Symbol,
			BaseAsset:  s.BaseAsset,
			QuoteAsset: s.QuoteAsset,
			Status:     s.Status,
			StepSize:   step,
		})
	}
	return symbols, nil
}

// GetOrderBookSnapshot fetches GET /api/v3/depth, used to seed a replica.
func (b *Binance) GetOrderBookSnapshot(ctx context.Context, symbol string, limit int) (models.Snapshot, error) {
	params := url.Values{
		"symbol": {symbol},
		"limit":  {strconv.Itoa(limit)},
	}

	body, err := b.doRequest(ctx, http.MethodGet, "/api/v3/depth", params, false)
	if err != nil {
		return models.Snapshot{}, err
	}

	var resp struct {
		LastUpdateID int64      `json:"lastUpdateId"`
		Bids         [][]string `json:"bids"`
		Asks         [][]string `json:"asks"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Snapshot{}, fmt.Errorf("binance: decode depth snapshot: %w", err)
	}

	snap := models.Snapshot{
		LastUpdateID: resp.LastUpdateID,
		Bids:         make([]models.PriceLevel, len(resp.Bids)),
		Asks:         make([]models.PriceLevel, len(resp.Asks)),
	}
	for i, lvl := range resp.Bids {
		snap.Bids[i] = models.PriceLevel{Price: decimal.RequireFromString(lvl[0]), Quantity: decimal.RequireFromString(lvl[1])}
	}
	for i, lvl := range resp.Asks {
		snap.Asks[i] = models.PriceLevel{Price: decimal.RequireFromString(lvl[0]), Quantity: decimal.RequireFromString(lvl[1])}
	}
	return snap, nil
}

// marketOrder submits a MARKET order on side for qty units of the symbol's
// base asset.
func (b *Binance) marketOrder(ctx context.Context, symbol, side string, qty float64) (OrderAck, error) {
	params := url.Values{
		"symbol":   {symbol},
		"side":     {side},
		"type":     {"MARKET"},
		"quantity": {strconv.FormatFloat(qty, 'f', -1, 64)},
	}

	body, err := b.doRequest(ctx, http.MethodPost, "/api/v3/order", params, true)
	if err != nil {
		return OrderAck{}, err
	}

	var resp struct {
		OrderID int64 `json:"orderId"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return OrderAck{}, fmt.Errorf("binance: decode order ack: %w", err)
	}
	return OrderAck{OrderID: strconv.FormatInt(resp.OrderID, 10)}, nil
}

// MarketBuy submits a market BUY order.
func (b *Binance) MarketBuy(ctx context.Context, symbol string, qty float64) (OrderAck, error) {
	return b.marketOrder(ctx, symbol, "BUY", qty)
}

// MarketSell submits a market SELL order.
func (b *Binance) MarketSell(ctx context.Context, symbol string, qty float64) (OrderAck, error) {
	return b.marketOrder(ctx, symbol, "SELL", qty)
}

// OrderStatus polls GET /api/v3/order for the current state of orderID.
func (b *Binance) OrderStatus(ctx context.Context, symbol, orderID string) (OrderState, error) {
	params := url.Values{
		"symbol":  {symbol},
		"orderId": {orderID},
	}

	body, err := b.doRequest(ctx, http.MethodGet, "/api/v3/order", params, true)
	if err != nil {
		var exErr *ExchangeError
		if asExchangeError(err, &exErr) && exErr.Code == "-2013" {
			return OrderState{}, ErrOrderNotFound
		}
		return OrderState{}, err
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return OrderState{}, fmt.Errorf("binance: decode order status: %w", err)
	}
	return OrderState{Status: resp.Status}, nil
}

// asExchangeError unwraps err looking for an *ExchangeError, including
// through retry.PermanentError's wrapping.
func asExchangeError(err error, target **ExchangeError) bool {
	for err != nil {
		if ee, ok := err.(*ExchangeError); ok {
			*target = ee
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// SubscribeDepthDiff opens one or more combined-stream WebSocket connections
// covering symbols (chunked at maxStreamsPerWS) and delivers every
// depthUpdate frame to handler as a models.DepthEvent, reconnecting
// automatically until ctx is cancelled.
func (b *Binance) SubscribeDepthDiff(ctx context.Context, symbols []string, handler DepthHandler) error {
	if len(symbols) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for start := 0; start < len(symbols); start += maxStreamsPerWS {
		end := start + maxStreamsPerWS
		if end > len(symbols) {
			end = len(symbols)
		}
		chunk := symbols[start:end]

		streams := make([]string, len(chunk))
		for i, s := range chunk {
			streams[i] = strings.ToLower(s) + "@depth@100ms"
		}
		wsURL := binanceWSBase + "?streams=" + strings.Join(streams, "/")

		manager := NewWSReconnectManager("binance-depth", wsURL, DefaultWSReconnectConfig())
		manager.SetOnMessage(func(raw []byte) {
			event, ok := parseBinanceDepthFrame(raw)
			if !ok {
				return
			}
			handler(event)
		})
		manager.SetOnDisconnect(func(err error) {
			if err != nil {
				log.Printf("[binance] depth stream disconnected: %v", err)
			}
		})

		b.wsManagersMu.Lock()
		b.wsManagers = append(b.wsManagers, manager)
		b.wsManagersMu.Unlock()

		if err := manager.Connect(); err != nil {
			return fmt.Errorf("binance: subscribe depth diff: %w", err)
		}

		wg.Add(1)
		go func(m *WSReconnectManager) {
			defer wg.Done()
			<-ctx.Done()
			m.Close()
		}(manager)
	}

	wg.Wait()
	return nil
}

// parseBinanceDepthFrame decodes one combined-stream depthUpdate frame.
func parseBinanceDepthFrame(raw []byte) (models.DepthEvent, bool) {
	var frame struct {
		Stream string `json:"stream"`
		Data   struct {
			EventType     string     `json:"e"`
			EventTime     int64      `json:"E"`
			Symbol        string     `json:"s"`
			FirstUpdateID int64      `json:"U"`
			FinalUpdateID int64      `json:"u"`
			Bids          [][]string `json:"b"`
			Asks          [][]string `json:"a"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Data.EventType != "depthUpdate" {
		return models.DepthEvent{}, false
	}

	d := frame.Data
	event := models.DepthEvent{
		Symbol:        d.Symbol,
		FirstUpdateID: d.FirstUpdateID,
		FinalUpdateID: d.FinalUpdateID,
		EventTime:     d.EventTime,
		BidUpdates:    make([]models.PriceLevel, 0, len(d.Bids)),
		AskUpdates:    make([]models.PriceLevel, 0, len(d.Asks)),
	}
	for _, lvl := range d.Bids {
		event.BidUpdates = append(event.BidUpdates, models.PriceLevel{
			Price:    decimal.RequireFromString(lvl[0]),
			Quantity: decimal.RequireFromString(lvl[1]),
		})
	}
	for _, lvl := range d.Asks {
		event.AskUpdates = append(event.AskUpdates, models.PriceLevel{
			Price:    decimal.RequireFromString(lvl[0]),
			Quantity: decimal.RequireFromString(lvl[1]),
		})
	}
	return event, true
}

// Close releases every open WebSocket connection and the shared HTTP pool.
func (b *Binance) Close() error {
	b.wsManagersMu.Lock()
	managers := b.wsManagers
	b.wsManagers = nil
	b.wsManagersMu.Unlock()

	for _, m := range managers {
		m.Close()
	}
	return nil
}
