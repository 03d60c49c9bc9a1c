package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

// LoggingMiddleware アクセスログミドルウェア
// リクエストごとに1行、ステータスに応じたレベルで出力する
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			status := c.Response().Status
			fields := map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"route":       c.Path(),
				"status_code": status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": c.RealIP(),
				"user_agent":  req.UserAgent(),
			}
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				fields["request_id"] = id
			}
			if userID, ok := c.Get("user_id").(string); ok {
				fields["user_id"] = userID
			}

			ctx := req.Context()
			switch {
			case err != nil:
				logger.Error(ctx, "HTTP request failed", err, fields)
			case status >= 500:
				logger.Error(ctx, "HTTP request failed", nil, fields)
			case status >= 400:
				logger.Warn(ctx, "HTTP request rejected", fields)
			default:
				logger.Info(ctx, "HTTP request completed", fields)
			}

			return err
		}
	}
}
