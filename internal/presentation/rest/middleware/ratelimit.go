package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"eco-rewards/internal/infrastructure/config"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

// visitorTTL この期間アクセスのない利用者のリミッターは破棄する
const visitorTTL = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 利用者ごとのトークンバケット
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	visitors map[string]*visitor
	lastScan time.Time
	now      func() time.Time
}

// NewRateLimiter 新しいRateLimiterを作成
func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	perSecond := cfg.FixesPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow キーに対するリクエストを許可するか判定
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	v, ok := r.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep 古いエントリを削除する。走査は visitorTTL ごとに1回まで
func (r *RateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastScan) < visitorTTL {
		return
	}
	r.lastScan = now
	for key, v := range r.visitors {
		if now.Sub(v.lastSeen) >= visitorTTL {
			delete(r.visitors, key)
		}
	}
}

// RateLimitMiddleware レート制限ミドルウェア
// 認証済みならユーザーID、そうでなければクライアントIPで制限する
func RateLimitMiddleware(limiter *RateLimiter, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := c.Get("user_id").(string)
			if !ok || key == "" {
				key = c.RealIP()
			}

			if !limiter.Allow(key) {
				logger.Warn(c.Request().Context(), "Rate limit exceeded", map[string]interface{}{
					"key":  key,
					"path": c.Request().URL.Path,
				})
				return c.JSON(http.StatusTooManyRequests, ErrorResponse{
					Error:   "rate_limited",
					Message: "Too many requests",
				})
			}

			return next(c)
		}
	}
}
