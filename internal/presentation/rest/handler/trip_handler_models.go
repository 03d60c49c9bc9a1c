package handler

import (
	"time"

	"eco-rewards/internal/domain/trip"
)

// StartTripResponse トリップ開始レスポンス
type StartTripResponse struct {
	TripID    string    `json:"trip_id" example:"0190a1b2-..."`
	StartedAt time.Time `json:"started_at"`
}

// FixRequest 測位送信リクエスト
// @Description 速度は m/s。timestamp を省略した場合はサーバー受信時刻
type FixRequest struct {
	Latitude  *float64   `json:"latitude" example:"52.3702"`
	Longitude *float64   `json:"longitude" example:"4.8952"`
	Speed     float64    `json:"speed" example:"4.2"`
	Accuracy  float64    `json:"accuracy" example:"8"`
	Timestamp *time.Time `json:"timestamp"`
}

// TripStateResponse トリップの集計状態
type TripStateResponse struct {
	Mode        string  `json:"mode" example:"bike"`
	DistanceKm  float64 `json:"distance_km" example:"2.4"`
	CarbonGrams float64 `json:"carbon_saved_grams" example:"410.4"`
	DurationSec int64   `json:"duration_sec" example:"600"`
	TracePoints int     `json:"trace_points" example:"120"`
	Ended       bool    `json:"ended"`
}

// FixResponse 測位送信レスポンス
type FixResponse struct {
	Result string            `json:"result" example:"accepted"`
	State  TripStateResponse `json:"state"`
}

// TripStatusResponse 進行中トリップの状態レスポンス
type TripStatusResponse struct {
	TripID    string            `json:"trip_id"`
	StartedAt time.Time         `json:"started_at"`
	State     TripStateResponse `json:"state"`
}

// EndTripRequest トリップ終了リクエスト
type EndTripRequest struct {
	StepCount int `json:"step_count" example:"0"`
}

// EcoTripRewardResponse エコ移動の報酬
type EcoTripRewardResponse struct {
	Credits       int64   `json:"credits" example:"75"`
	IsFirst       bool    `json:"is_first"`
	CO2SavedGrams float64 `json:"co2_saved_grams" example:"513"`
	OutcomeResponse
}

// EndTripResponse トリップ終了レスポンス
type EndTripResponse struct {
	TripID       string                   `json:"trip_id"`
	Status       string                   `json:"status" example:"verified"`
	Verification *trip.VerificationResult `json:"verification,omitempty"`
	State        TripStateResponse        `json:"state"`
	Reward       *EcoTripRewardResponse   `json:"reward,omitempty"`
}

func toTripStateResponse(s trip.State) TripStateResponse {
	return TripStateResponse{
		Mode:        s.Mode.String(),
		DistanceKm:  s.DistanceKm,
		CarbonGrams: s.CarbonGrams,
		DurationSec: s.DurationSec,
		TracePoints: s.TracePoints,
		Ended:       s.Ended,
	}
}
