package middleware

import (
	"net/http"
	"time"

	"arbitrage/pkg/utils"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logging records method, path, status, latency and response size for
// every request, via the shared structured logger.
func Logging(logger *utils.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			if logger != nil {
				logger.Info("http request",
					utils.String("method", r.Method),
					utils.String("path", r.URL.Path),
					utils.Int("status", wrapped.statusCode),
					utils.Latency(float64(time.Since(start).Milliseconds())),
					utils.String("remote_addr", r.RemoteAddr),
					utils.Int64("bytes", wrapped.written))
			}
		})
	}
}
