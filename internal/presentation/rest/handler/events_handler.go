package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

// EventStream ユーザー単位のリアルタイム配信
type EventStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string) error
}

// EventsHandler 実績解除・ティア変更・カート放置通知のWebSocketハンドラー
type EventsHandler struct {
	stream EventStream
	logger *otelinfra.Logger
}

// NewEventsHandler 新しいEventsHandlerを作成
func NewEventsHandler(stream EventStream, logger *otelinfra.Logger) *EventsHandler {
	return &EventsHandler{stream: stream, logger: logger}
}

// Subscribe WebSocketにアップグレードしてイベントを配信する
// @Summary イベントを購読
// @Tags events
// @Security Bearer
// @Param access_token query string false "ブラウザ向けのトークン"
// @Router /me/events [get]
func (h *EventsHandler) Subscribe(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	if err := h.stream.ServeWS(c.Response(), c.Request(), userID); err != nil {
		// アップグレード失敗時はレスポンスが書き込み済み
		h.logger.Warn(c.Request().Context(), "WebSocket upgrade failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
	return nil
}
