package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/stockroom/pkg/jwtx"
	"github.com/aussiebroadwan/stockroom/pkg/slogx"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain wraps h so the first middleware listed runs first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type ctxKey string

const ctxKeyClaims ctxKey = "claims"

// AccessVerifier validates bearer access tokens.
type AccessVerifier interface {
	Verify(token string, want jwtx.TokenType) (jwtx.Claims, error)
}

// AuthnMiddleware rejects requests without a valid bearer access token with
// 401 and a {"detail": ...} body.
func AuthnMiddleware(v AccessVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "Authentication credentials were not provided.")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw, jwtx.TypeAccess)
			if err != nil {
				log.Debug("bearer rejected", "err", err)
				writeBearerError(w, "Given token not valid for any token type")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ctxKeyClaims, claims)))
		})
	}
}

// ClaimsFromContext returns the claims attached by AuthnMiddleware.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(jwtx.Claims)
	return c, ok
}

// RFC 6750-compliant challenge plus the API's detail body.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	WriteDetail(w, http.StatusUnauthorized, desc)
}
