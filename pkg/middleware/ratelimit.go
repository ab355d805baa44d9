package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"travel-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimit is a fixed-window per-IP limiter backed by Redis. With a
// nil client, or when Redis errors, requests pass through unchecked.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("rl:%s:%s", r.URL.Path, r.RemoteAddr)

			count, err := rdb.Incr(r.Context(), key).Result()
			if err != nil {
				logger.Warn("Rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				rdb.Expire(r.Context(), key, window)
			}

			if count > int64(limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window/time.Second)))
				utils.ResponseJSON(w, http.StatusTooManyRequests, false, "Rate limit exceeded", nil, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
