package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/kalaskoll/kalaskoll/pkg/jwtx"
	"github.com/kalaskoll/kalaskoll/pkg/slogx"
)

// AuthnMiddleware verifies the bearer session token and injects the
// profile id, email and role into the request context.
func AuthnMiddleware(signer *jwtx.Signer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := signer.Verify(strings.TrimSpace(strings.TrimPrefix(authz, "Bearer")))
			if err != nil {
				log.Warn("session token verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = context.WithValue(ctx, CtxKeyProfileID, claims.Subject)
			ctx = context.WithValue(ctx, CtxKeyRole, claims.Role)
			ctx = context.WithValue(ctx, CtxKeyEmail, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows the request through when the authenticated profile
// holds one of the listed roles. Authorization decisions go through this
// single gate rather than ad hoc role checks in handlers.
func RequireRole(roles ...string) Middleware {
	want := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		want[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := want[RoleFromCtx(r.Context())]; !ok {
				WriteJSON(w, http.StatusForbidden, map[string]string{
					"error":   "forbidden",
					"message": "Du har inte behörighet för den här åtgärden",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750-style error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
