package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeadersMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		target        string
		handlerStatus int
		expectHSTS    bool
		expectNoStore bool
	}{
		{"正常系: HTTPのAPI", "http://example.com/api/v1/me/rewards", http.StatusOK, false, true},
		{"正常系: HTTPSはHSTSを付与", "https://example.com/api/v1/me/rewards", http.StatusOK, true, true},
		{"正常系: ヘルスチェックはキャッシュ制御なし", "http://example.com/health", http.StatusOK, false, false},
		{"異常系: エラーレスポンスにも付与", "http://example.com/api/v1/me/cart", http.StatusBadRequest, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := SecurityHeadersMiddleware()(func(c echo.Context) error {
				return c.NoContent(tt.handlerStatus)
			})

			require.NoError(t, handler(c))
			assert.Equal(t, tt.handlerStatus, rec.Code)
			assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, apiCSP, rec.Header().Get("Content-Security-Policy"))
			assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))

			if tt.expectHSTS {
				assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")
			} else {
				assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
			}
			if tt.expectNoStore {
				assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			} else {
				assert.Empty(t, rec.Header().Get("Cache-Control"))
			}
		})
	}
}
