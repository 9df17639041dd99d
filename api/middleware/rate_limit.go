package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"dynconfig-service/service/rate_limiter"
)

// RateLimit 按用户限流；限流器不可用时放行
func RateLimit(limiter rate_limiter.Limiter, scope string, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserInfo(r.Context())
			result, err := limiter.Check(r.Context(), rate_limiter.RateLimitRule{
				Scope:       scope,
				TargetID:    user.UserID,
				TimeWindow:  60,
				MaxRequests: perMinute,
			})
			if err != nil {
				slog.Warn("限流检查失败，放行请求", "scope", scope, "user", user.UserID, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))
			if !result.Allowed {
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, map[string]interface{}{
					"status": http.StatusTooManyRequests,
					"msg":    fmt.Sprintf("请求过于频繁，每分钟最多 %d 次", perMinute),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
