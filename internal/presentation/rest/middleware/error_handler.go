package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"eco-rewards/internal/application/ecoproof"
	"eco-rewards/internal/application/rewards"
	"eco-rewards/internal/domain/cart"
	"eco-rewards/internal/domain/catalog"
	"eco-rewards/internal/domain/ledger"
	"eco-rewards/internal/domain/trip"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// domainError ドメインエラーとHTTPレスポンスの対応
type domainError struct {
	target error
	status int
	code   string
	log    string
}

var domainErrors = []domainError{
	{ledger.ErrInsufficientCredits, http.StatusConflict, "insufficient_credits", "Insufficient credits"},
	{rewards.ErrTierTooLow, http.StatusForbidden, "tier_too_low", "Tier too low"},
	{catalog.ErrOptionNotFound, http.StatusNotFound, "option_not_found", "Redemption option not found"},
	{catalog.ErrTierNotFound, http.StatusNotFound, "tier_not_found", "Tier not found"},
	{catalog.ErrAchievementNotFound, http.StatusNotFound, "achievement_not_found", "Achievement not found"},
	{ledger.ErrRedemptionNotFound, http.StatusNotFound, "redemption_not_found", "Redemption not found"},
	{trip.ErrTripNotFound, http.StatusNotFound, "trip_not_found", "Trip not found"},
	{trip.ErrTripEnded, http.StatusConflict, "trip_ended", "Trip already ended"},
	{cart.ErrItemNotFound, http.StatusNotFound, "item_not_found", "Cart item not found"},
	{ledger.ErrInvalidUserID, http.StatusBadRequest, "invalid_user_id", "Invalid user id"},
	{cart.ErrInvalidUserID, http.StatusBadRequest, "invalid_user_id", "Invalid user id"},
	{ledger.ErrInvalidCO2Amount, http.StatusBadRequest, "invalid_co2_amount", "Invalid CO2 amount"},
	{trip.ErrInvalidMode, http.StatusBadRequest, "invalid_mode", "Invalid travel mode"},
	{cart.ErrInvalidItem, http.StatusBadRequest, "invalid_item", "Invalid cart item"},
	{ecoproof.ErrEmptyImage, http.StatusBadRequest, "empty_image", "Empty eco proof image"},
	{ecoproof.ErrImageTooLarge, http.StatusRequestEntityTooLarge, "image_too_large", "Eco proof image too large"},
	{trip.ErrVerifierUnavailable, http.StatusServiceUnavailable, "verifier_unavailable", "Verifier unavailable"},
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	for _, d := range domainErrors {
		if !errors.Is(err, d.target) {
			continue
		}
		logger.Warn(ctx, d.log, map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(d.status, ErrorResponse{
			Error:   d.code,
			Message: err.Error(),
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
