package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"eco-rewards/internal/infrastructure/config"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

var (
	// ErrMissingToken トークンが指定されていない
	ErrMissingToken = errors.New("missing token")
	// ErrMissingUserID トークンに user_id がない
	ErrMissingUserID = errors.New("missing user_id in token")
)

// ParseUserID JWTを検証し、user_id クレームを返す
func ParseUserID(cfg *config.JWTConfig, tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenSignatureInvalid
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrMissingUserID
	}
	return userID, nil
}

// AuthMiddleware JWT認証ミドルウェア
// WebSocket接続はヘッダーを付けられないため access_token クエリも受け付ける
func AuthMiddleware(cfg *config.JWTConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			tokenString := c.QueryParam("access_token")
			if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
				// Bearerトークンの形式を確認
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					logger.Warn(ctx, "Invalid authorization header format", nil)
					return c.JSON(http.StatusUnauthorized, ErrorResponse{
						Error:   "unauthorized",
						Message: "Invalid authorization header format",
					})
				}
				tokenString = parts[1]
			}

			if tokenString == "" {
				logger.Warn(ctx, "Missing authorization header", nil)
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Missing authorization header",
				})
			}

			userID, err := ParseUserID(cfg, tokenString)
			if errors.Is(err, ErrMissingUserID) {
				logger.Warn(ctx, "Missing user_id in token claims", nil)
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Missing user_id in token",
				})
			}
			if err != nil {
				logger.Warn(ctx, "Invalid token", map[string]interface{}{
					"error": err.Error(),
				})
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Invalid or expired token",
				})
			}

			// ユーザーIDをリクエストコンテキストに設定
			c.Set("user_id", userID)

			return next(c)
		}
	}
}
