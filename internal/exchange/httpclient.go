package exchange

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"
)

// HTTPClientConfig holds the connection-pooling and timeout knobs for the
// exchange's REST transport. Tuned for the low-latency requirements of the
// evaluation hot path rather than general-purpose HTTP use.
type HTTPClientConfig struct {
	// Connection timeouts.
	ConnectTimeout time.Duration // TCP dial timeout (default: 5s)
	ReadTimeout    time.Duration // response read timeout (default: 10s)
	WriteTimeout   time.Duration // request write timeout (default: 10s); not applied by NewHTTPClient
	TotalTimeout   time.Duration // overall operation timeout (default: 30s)

	// Connection pooling.
	MaxIdleConns        int           // max idle connections (default: 100)
	MaxIdleConnsPerHost int           // max idle connections per host (default: 10)
	MaxConnsPerHost     int           // max connections per host (default: 20)
	IdleConnTimeout     time.Duration // idle connection timeout (default: 90s)

	// TLS.
	TLSHandshakeTimeout time.Duration // TLS handshake timeout (default: 5s)

	// Keep-alive.
	DisableKeepAlives bool          // disable HTTP keep-alive (default: false)
	KeepAliveInterval time.Duration // keep-alive probe interval (default: 30s)
}

// DefaultHTTPClientConfig returns the configuration used unless a caller
// overrides it.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		TotalTimeout:   30 * time.Second,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout: 5 * time.Second,

		DisableKeepAlives: false,
		KeepAliveInterval: 30 * time.Second,
	}
}

// HTTPClient wraps http.Client with connection pooling and the detailed
// timeouts exchange REST calls need.
type HTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// globalClient is reused across exchange implementations so they share one
// connection pool.
var (
	globalClient     *HTTPClient
	globalClientOnce sync.Once
)

// GetGlobalHTTPClient returns the process-wide HTTP client, built with
// DefaultHTTPClientConfig on first use.
func GetGlobalHTTPClient() *HTTPClient {
	globalClientOnce.Do(func() {
		globalClient = NewHTTPClient(DefaultHTTPClientConfig())
	})
	return globalClient
}

// NewHTTPClient builds an HTTP client from config.
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: config.KeepAliveInterval,
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if deadline, ok := ctx.Deadline(); ok {
				timeout := time.Until(deadline)
				if timeout < config.ConnectTimeout {
					dialerWithTimeout := &net.Dialer{
						Timeout:   timeout,
						KeepAlive: config.KeepAliveInterval,
					}
					return dialerWithTimeout.DialContext(ctx, network, addr)
				}
			}
			return dialer.DialContext(ctx, network, addr)
		},

		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,

		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},

		DisableKeepAlives: config.DisableKeepAlives,

		DisableCompression:    true, // minimize latency jitter from decompression
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: config.ReadTimeout,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.TotalTimeout, // fallback ceiling across redirects
	}

	return &HTTPClient{
		client: client,
		config: config,
	}
}

// Do executes req, honoring the request's own context deadline.
func (hc *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return hc.client.Do(req)
}

// DoWithTimeout executes req with an explicit per-call timeout layered on
// top of req's context.
func (hc *HTTPClient) DoWithTimeout(req *http.Request, timeout time.Duration) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	defer cancel()
	return hc.client.Do(req.WithContext(ctx))
}

// GetClient returns the underlying http.Client.
func (hc *HTTPClient) GetClient() *http.Client {
	return hc.client
}

// GetConfig returns the client's configuration.
func (hc *HTTPClient) GetConfig() HTTPClientConfig {
	return hc.config
}

// Close drops all idle connections. Call during graceful shutdown.
func (hc *HTTPClient) Close() {
	if transport, ok := hc.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// CloseGlobalClient closes the process-wide HTTP client's idle connections.
func CloseGlobalClient() {
	if globalClient != nil {
		globalClient.Close()
	}
}
