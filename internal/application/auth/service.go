package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eco-rewards/internal/infrastructure/config"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	// ErrMissingUserID ユーザーIDが空
	ErrMissingUserID = errors.New("user_id is required")
	// ErrMissingSecret 署名鍵が設定されていない
	ErrMissingSecret = errors.New("jwt secret is not configured")
)

// TokenApplicationService REST・gRPC・WebSocket 用のトークンを発行する
type TokenApplicationService struct {
	jwtConfig *config.JWTConfig
	logger    *otelinfra.Logger
	now       func() time.Time
}

// NewTokenApplicationService 新しいTokenApplicationServiceを作成
func NewTokenApplicationService(jwtConfig *config.JWTConfig, logger *otelinfra.Logger) *TokenApplicationService {
	return &TokenApplicationService{
		jwtConfig: jwtConfig,
		logger:    logger,
		now:       time.Now,
	}
}

// IssueToken user_id クレームを持つJWTを発行
func (s *TokenApplicationService) IssueToken(ctx context.Context, req *IssueTokenRequest) (*IssueTokenResponse, error) {
	ctx, span := otel.Tracer("auth-service").Start(ctx, "TokenApplicationService.IssueToken")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", req.UserID))

	fail := func(err error) (*IssueTokenResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Failed to issue token", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, err
	}

	if req.UserID == "" {
		return fail(ErrMissingUserID)
	}
	if s.jwtConfig.Secret == "" {
		return fail(ErrMissingSecret)
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.jwtConfig.Expiration
	}
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := jwt.MapClaims{
		"user_id": req.UserID,
		"iat":     now.Unix(),
		"exp":     expiresAt.Unix(),
	}
	if s.jwtConfig.Issuer != "" {
		claims["iss"] = s.jwtConfig.Issuer
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return fail(fmt.Errorf("failed to sign token: %w", err))
	}

	s.logger.Info(ctx, "Token issued", map[string]interface{}{
		"user_id":    req.UserID,
		"expires_at": expiresAt.Unix(),
	})

	return &IssueTokenResponse{
		Token:     tokenString,
		ExpiresAt: expiresAt,
		ExpiresIn: int64(ttl.Seconds()),
		TokenType: "Bearer",
	}, nil
}
