package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookora/libs/auth"
	"github.com/md-rashed-zaman/bookora/libs/httpx"
)

type Identity struct {
	UserID string
	Role   string
}

type ctxKey int

const identityKey ctxKey = iota

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// ContextWithIdentity also publishes the caller as the rate limiting principal.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = httpx.ContextWithPrincipal(ctx, id.UserID)
	return context.WithValue(ctx, identityKey, id)
}

// Authenticate resolves the caller. With a secret configured only a valid HS256 bearer token
// is trusted; without one the X-User-Id and X-Role headers set by the gateway are used.
// Requests without credentials continue anonymously.
func Authenticate(secret string, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
				if userID != "" {
					role := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Role")))
					r = r.WithContext(ContextWithIdentity(r.Context(), Identity{UserID: userID, Role: role}))
				}
				next.ServeHTTP(w, r)
				return
			}

			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.ParseAndVerifyHS256(token, secret, now())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid token")
				return
			}
			r = r.WithContext(ContextWithIdentity(r.Context(), Identity{UserID: claims.Sub, Role: claims.Role}))
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects anonymous callers with 401 and callers of any other role with 403.
func RequireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
			return
		}
		if _, ok := allowed[id.Role]; !ok {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "forbidden")
			return
		}
		next(w, r)
	}
}
