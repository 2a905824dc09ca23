package middleware

import (
	"net/http"

	"arbitrage/pkg/crypto"
)

// DebugAuth gates the /debug/pprof surface behind HTTP
// Basic Auth, checked against a bcrypt hash rather than a plaintext
// password: adminUsername/adminPasswordHash come from config's
// admin_username/admin_password_hash fields. If adminPasswordHash is empty
// the debug surface is refused entirely rather than left open.
func DebugAuth(adminUsername, adminPasswordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminPasswordHash == "" {
				http.Error(w, "debug endpoints disabled: admin_password_hash not configured", http.StatusForbidden)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if user != adminUsername || !crypto.CheckPasswordMatch(pass, adminPasswordHash) {
				w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Auth is a pass-through placeholder: this scanner runs single-operator,
// local deployments and has no multi-user session concept. Kept as an
// explicit middleware slot so a future auth scheme has somewhere to attach
// without touching routes.go.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
	})
}
