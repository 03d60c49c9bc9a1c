package trip

import "context"

// EcoProofRequest 写真によるエコ移動の証明
type EcoProofRequest struct {
	Filename    string
	ContentType string
	Image       []byte
	ClaimedMode Mode
}

// EcoProofResult 画像検証サービスの応答
type EcoProofResult struct {
	Verified   bool     `json:"verified"`
	Status     string   `json:"status"`
	Message    string   `json:"message,omitempty"`
	Confidence float64  `json:"confidence"`
	DistanceKm *float64 `json:"distance_km,omitempty"` // 応答に距離が含まれる場合のみ
}

// PhotoVerifier 画像検証サービス
type PhotoVerifier interface {
	VerifyEcoProof(ctx context.Context, req *EcoProofRequest) (*EcoProofResult, error)
}
