package trip

import (
	"time"

	"eco-rewards/internal/application/rewards"
	"eco-rewards/internal/domain/trip"
)

// StartTripResponse トリップ開始レスポンス
type StartTripResponse struct {
	TripID    string
	StartedAt time.Time
}

// FixRequest 測位の送信リクエスト
type FixRequest struct {
	UserID string
	TripID string
	Sample trip.Sample
}

// FixResponse 測位の取り込み結果
type FixResponse struct {
	Result trip.FixResult
	State  trip.State
}

// TripStatusResponse 進行中トリップの状態
type TripStatusResponse struct {
	TripID    string
	StartedAt time.Time
	State     trip.State
}

// EndTripRequest トリップ終了リクエスト
type EndTripRequest struct {
	UserID    string
	TripID    string
	StepCount int
}

// EndTripResponse トリップ終了レスポンス
// Reward は検証済みの場合のみ設定される
type EndTripResponse struct {
	TripID       string
	Status       string
	Verification *trip.VerificationResult
	State        trip.State
	Reward       *rewards.EcoTripResponse
}
