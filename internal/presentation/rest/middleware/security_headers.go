package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// apiCSP JSONとWebSocketしか返さないAPI用のポリシー
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeadersMiddleware セキュリティヘッダーを設定するミドルウェア
func SecurityHeadersMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Content-Security-Policy", apiCSP)
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if c.Scheme() == "https" {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			// 残高や履歴などユーザー固有のレスポンスはキャッシュさせない
			if strings.HasPrefix(c.Request().URL.Path, "/api/") {
				h.Set("Cache-Control", "no-store")
			}

			return next(c)
		}
	}
}
