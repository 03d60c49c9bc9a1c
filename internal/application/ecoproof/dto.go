package ecoproof

import (
	"eco-rewards/internal/application/rewards"
	"eco-rewards/internal/domain/trip"
)

// VerifyRequest 写真によるエコ移動の証明リクエスト
type VerifyRequest struct {
	UserID      string
	ClaimedMode string
	Filename    string
	ContentType string
	Image       []byte
}

// VerifyResponse 証明の判定結果
// Reward は台帳に反映した場合のみ設定される
type VerifyResponse struct {
	Status     string
	Verified   bool
	Message    string
	Confidence float64
	Fallback   bool
	Result     *trip.EcoProofResult
	Reward     *rewards.EcoTripResponse
}
