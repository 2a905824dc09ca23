package middleware

import "net/http"

var defaultAllowedOrigins = map[string]bool{
	"http://localhost:3000": true,
	"http://127.0.0.1:3000": true,
	"http://localhost:5173": true, // Vite dev server
	"http://127.0.0.1:5173": true,
}

// CORS allows the configured dashboard origins (plus a small built-in
// localhost set for development) to call the API with credentials.
// Requests without an Origin header (curl, server-to-server) pass through
// with a wildcard since there is no browser same-origin policy to satisfy.
func CORS(extraOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(defaultAllowedOrigins)+len(extraOrigins))
	for origin := range defaultAllowedOrigins {
		allowed[origin] = true
	}
	for _, origin := range extraOrigins {
		if origin != "" {
			allowed[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case origin == "":
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
