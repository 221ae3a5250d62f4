package middlewares

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dropDatabas3/githubauth/internal/http/errors"
	"github.com/dropDatabas3/githubauth/internal/metrics"
	"github.com/dropDatabas3/githubauth/internal/observability/logger"
	"github.com/dropDatabas3/githubauth/internal/rate"
)

// WithRateLimit limits requests per client IP. A nil limiter disables it.
// Limiter failures let the request through.
func WithRateLimit(l rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				secs := int64(math.Ceil(res.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
				metrics.RecordRateLimited(routePattern(r))
				logger.From(r.Context()).Info("rate limited", logger.Int("hits", int(res.CurrentHits)))
				errors.WriteError(w, errors.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
