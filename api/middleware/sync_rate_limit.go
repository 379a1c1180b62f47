package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rafaelduartes/salescope-backend/api/responses"
	pkgerrors "github.com/rafaelduartes/salescope-backend/pkg/errors"
	"github.com/rafaelduartes/salescope-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// SyncRateLimitPolicy caps manual sync triggers per gateway within a window.
type SyncRateLimitPolicy struct {
	window time.Duration
	limit  int64
}

func NewSyncRateLimitPolicy(window time.Duration, limit int64) SyncRateLimitPolicy {
	return SyncRateLimitPolicy{window: window, limit: limit}
}

func (p SyncRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

// SyncRateLimit throttles on-demand sync triggers so one gateway cannot hammer
// the upstream API. The counter is keyed on the gatewayId route param.
func SyncRateLimit(policy SyncRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			gatewayID := strings.TrimSpace(chi.URLParam(r, "gatewayId"))
			if gatewayID == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := store.FixedWindowAllow(ctx, "gateway-sync:"+gatewayID, policy.limit, policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"gateway_config_id": gatewayID,
						"count":             count,
						"limit":             policy.limit,
					})
					logg.Warn(ctx, "sync trigger rate limited")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many sync requests for this gateway"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
