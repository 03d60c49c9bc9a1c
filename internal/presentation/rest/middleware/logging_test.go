package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		handler       echo.HandlerFunc
		userID        string
		expectedLevel string
		expectErr     bool
	}{
		{
			name: "正常系: 200はINFO",
			handler: func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			},
			userID:        "user-1",
			expectedLevel: "INFO",
		},
		{
			name: "正常系: 404はWARN",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusNotFound, ErrorResponse{Error: "trip_not_found"})
			},
			expectedLevel: "WARN",
		},
		{
			name: "異常系: 500はERROR",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_server_error"})
			},
			expectedLevel: "ERROR",
		},
		{
			name: "異常系: ハンドラーのエラーはそのまま返す",
			handler: func(c echo.Context) error {
				return errors.New("test error")
			},
			expectedLevel: "ERROR",
			expectErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"), otelinfra.WithOutput(&buf))

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/me/trips", nil)
			req.Header.Set("User-Agent", "test-agent")
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/api/v1/me/trips")
			c.Response().Header().Set(echo.HeaderXRequestID, "req-1")
			if tt.userID != "" {
				c.Set("user_id", tt.userID)
			}

			err := LoggingMiddleware(logger)(tt.handler)(c)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			var entry otelinfra.LogEntry
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.expectedLevel, entry.Level)
			assert.Equal(t, "POST", entry.Fields["method"])
			assert.Equal(t, "/api/v1/me/trips", entry.Fields["route"])
			assert.Equal(t, "req-1", entry.Fields["request_id"])
			assert.Equal(t, "test-agent", entry.Fields["user_agent"])
			if tt.userID != "" {
				assert.Equal(t, tt.userID, entry.Fields["user_id"])
			} else {
				assert.NotContains(t, entry.Fields, "user_id")
			}
		})
	}
}
