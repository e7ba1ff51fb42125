package middleware

import (
	"net/http"

	"github.com/hubmatrix/cloudtree/internal/ctxkeys"
	"github.com/hubmatrix/cloudtree/internal/service"
)

// Identity resolves the acting identity (session cookie or basic auth,
// including the guest sentinel) and stores the session in the request
// context. Every request gets a session, anonymous at minimum.
func Identity(identity *service.IdentityService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := identity.FromRequest(r)
			ctx := ctxkeys.WithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
