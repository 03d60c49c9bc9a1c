package trip

import "context"

// 検証ステータス
const (
	StatusVerified      = "verified"
	StatusPendingReview = "pending_review"
	StatusRejected      = "rejected"
)

// VerificationRequest 外部のトリップ検証サービスへ送る内容
type VerificationRequest struct {
	TripID      string       `json:"trip_id"`
	UserID      string       `json:"user_id"`
	Mode        Mode         `json:"mode"`
	DistanceKm  float64      `json:"distance_km"`
	DurationSec int64        `json:"duration_sec"`
	GPSTrace    []TracePoint `json:"gps_trace"`
	StepCount   int          `json:"step_count"`
}

// VerificationResult 検証サービスの応答
type VerificationResult struct {
	IsVerified bool     `json:"is_verified"`
	Score      float64  `json:"score"`
	Status     string   `json:"status"`
	Reasons    []string `json:"reasons"`
}

// Verifier トリップ検証サービス
type Verifier interface {
	VerifyTrip(ctx context.Context, req *VerificationRequest) (*VerificationResult, error)
}
