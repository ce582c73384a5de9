package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agoramesh/walletd/internal/domain"
)

func TestActorMiddleware(t *testing.T) {
	var actor string
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, found = domain.ActorFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets", nil)
	req.Header.Set(ActorHeader, "agent-42")
	Actor(next).ServeHTTP(httptest.NewRecorder(), req)

	if !found || actor != "agent-42" {
		t.Fatalf("expected actor agent-42 in context, got %q (found=%v)", actor, found)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/wallets", nil)
	Actor(next).ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Fatalf("expected no actor without the header")
	}
}
