package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/learnhub/seminarbook/libs/httpx"
)

type ctxKey int

const ctxKeyClaims ctxKey = iota

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(*Claims)
	return c, ok
}

// RequireRole rejects requests without a valid HS256 bearer token carrying one of roles.
// An empty secret disables the check.
func RequireRole(secret string, roles ...string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			token, ok := strings.CutPrefix(raw, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			claims, err := ParseAndVerifyHS256(strings.TrimSpace(token), secret)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
				return
			}
			if !hasRole(claims.Role, roles) {
				httpx.WriteError(w, http.StatusForbidden, "Forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyClaims, claims)))
		})
	}
}

func hasRole(role string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
