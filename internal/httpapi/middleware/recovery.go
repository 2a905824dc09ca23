// Package middleware holds the HTTP middleware chain the observability API
// applies to every request: panic recovery, access logging, CORS, and
// Basic-Auth gating on the debug/pprof surface.
package middleware

import (
	"net/http"
	"runtime/debug"

	"arbitrage/pkg/utils"
)

// Recovery catches a panic in any downstream handler, logs the stack
// trace, and returns 500 instead of taking the whole process down.
func Recovery(logger *utils.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if logger != nil {
						logger.Error("panic recovered",
							utils.Any("panic", err),
							utils.String("path", r.URL.Path),
							utils.String("stack", string(debug.Stack())))
					}
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
