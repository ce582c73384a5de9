package middleware

import (
	"net/http"

	"github.com/agoramesh/walletd/internal/domain"
)

// ActorHeader identifies the calling principal for audit trails.
const ActorHeader = "X-Actor-ID"

// Actor copies the caller identity header into the request context so
// ledger mutations can attribute their audit log entries.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get(ActorHeader); actor != "" {
			r = r.WithContext(domain.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}
