package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/TRPST/airvoucher-backend/api/responses"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
)

const (
	apiRateLimitWindow = time.Minute
	apiRateLimitMax    = 300
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit applies a per-actor fixed-window ceiling across the authed API.
// The scope falls back to client IP for anything that slipped past auth.
func RateLimit(store fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope := UserIDFromContext(ctx)
			if scope == "" {
				scope = clientIP(r)
			}

			allowed, count, err := store.FixedWindowAllow(ctx, scope, apiRateLimitMax, apiRateLimitWindow)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"scope":    scope,
						"attempts": count,
						"limit":    apiRateLimitMax,
					})
					logg.Warn(logCtx, "api.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
