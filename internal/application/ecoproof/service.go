package ecoproof

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eco-rewards/internal/application/rewards"
	"eco-rewards/internal/domain/trip"
	"eco-rewards/internal/infrastructure/config"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

// MaxImageBytes 受け付ける画像の最大サイズ
const MaxImageBytes = 10 << 20

var (
	// ErrEmptyImage 画像が空
	ErrEmptyImage = errors.New("eco proof image is empty")
	// ErrImageTooLarge 画像が大きすぎる
	ErrImageTooLarge = errors.New("eco proof image is too large")
)

// EcoTripRecorder 検証済みの移動を台帳に反映する
type EcoTripRecorder interface {
	RecordEcoTrip(ctx context.Context, req *rewards.EcoTripRequest) (*rewards.EcoTripResponse, error)
}

// EcoProofApplicationService 写真証明アプリケーションサービス
type EcoProofApplicationService struct {
	verifier       trip.PhotoVerifier
	recorder       EcoTripRecorder
	fallbackPolicy string
	logger         *otelinfra.Logger
	metrics        *otelinfra.Metrics
	tracer         trace.Tracer
}

// NewEcoProofApplicationService 新しいEcoProofApplicationServiceを作成
// fallbackPolicy は検証サービスが使えない場合の扱い（auto_approve / pending_review）
// 空なら auto_approve、不明な値は pending_review とする
func NewEcoProofApplicationService(
	verifier trip.PhotoVerifier,
	recorder EcoTripRecorder,
	fallbackPolicy string,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *EcoProofApplicationService {
	switch fallbackPolicy {
	case "":
		fallbackPolicy = config.FallbackAutoApprove
	case config.FallbackAutoApprove, config.FallbackPendingReview:
	default:
		fallbackPolicy = config.FallbackPendingReview
	}
	return &EcoProofApplicationService{
		verifier:       verifier,
		recorder:       recorder,
		fallbackPolicy: fallbackPolicy,
		logger:         logger,
		metrics:        metrics,
		tracer:         otel.Tracer("ecoproof-service"),
	}
}

// VerifyEcoProof 写真を検証サービスに送り、結果に応じて台帳に反映する
func (s *EcoProofApplicationService) VerifyEcoProof(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	ctx, span := s.tracer.Start(ctx, "EcoProofApplicationService.VerifyEcoProof")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("claimed_mode", req.ClaimedMode),
		attribute.Int("image_bytes", len(req.Image)),
	)

	mode, err := trip.ParseMode(req.ClaimedMode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	switch {
	case len(req.Image) == 0:
		err = ErrEmptyImage
	case len(req.Image) > MaxImageBytes:
		err = ErrImageTooLarge
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	result, err := s.verifier.VerifyEcoProof(ctx, &trip.EcoProofRequest{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Image:       req.Image,
		ClaimedMode: mode,
	})
	if err != nil {
		return s.fallback(ctx, span, req.UserID, mode, err)
	}

	resp := &VerifyResponse{
		Status:     result.Status,
		Verified:   result.Verified,
		Message:    result.Message,
		Confidence: result.Confidence,
		Result:     result,
	}
	span.SetAttributes(attribute.String("proof_status", result.Status))

	if !result.Verified {
		s.logger.Info(ctx, "Eco proof not verified", map[string]interface{}{
			"user_id": req.UserID,
			"status":  result.Status,
			"message": result.Message,
		})
		return resp, nil
	}

	distance := 0.0
	if result.DistanceKm != nil {
		distance = *result.DistanceKm
	}
	reward, err := s.record(ctx, req.UserID, mode, distance)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	resp.Status = trip.StatusVerified
	resp.Reward = reward
	return resp, nil
}

// fallback 検証サービスが使えない場合の扱い
func (s *EcoProofApplicationService) fallback(ctx context.Context, span trace.Span, userID string, mode trip.Mode, cause error) (*VerifyResponse, error) {
	span.RecordError(cause)
	s.logger.Warn(ctx, "Photo verifier unavailable", map[string]interface{}{
		"user_id": userID,
		"policy":  s.fallbackPolicy,
		"error":   cause.Error(),
	})
	s.metrics.RecordError(ctx, "photo_verifier_unavailable")

	if s.fallbackPolicy != config.FallbackAutoApprove {
		return &VerifyResponse{
			Status:   trip.StatusPendingReview,
			Message:  "Verification service unavailable, sent for manual review",
			Fallback: true,
		}, nil
	}

	reward, err := s.record(ctx, userID, mode, 0)
	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return &VerifyResponse{
		Status:   trip.StatusVerified,
		Verified: true,
		Fallback: true,
		Reward:   reward,
	}, nil
}

func (s *EcoProofApplicationService) record(ctx context.Context, userID string, mode trip.Mode, distanceKm float64) (*rewards.EcoTripResponse, error) {
	reward, err := s.recorder.RecordEcoTrip(ctx, &rewards.EcoTripRequest{
		UserID:     userID,
		Mode:       mode,
		DistanceKm: distanceKm,
		Source:     "eco_proof",
	})
	if err != nil {
		s.logger.Error(ctx, "Failed to record eco proof", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to record eco proof: %w", err)
	}
	return reward, nil
}
