package rewards

import (
	"time"

	"eco-rewards/internal/domain/catalog"
	"eco-rewards/internal/domain/ledger"
	"eco-rewards/internal/domain/trip"
)

// Outcome 変更操作の結果として返す台帳の状態
type Outcome struct {
	TotalCredits    int64
	LifetimeCredits int64
	CO2SavedGrams   float64
	Tier            catalog.TierID
	TierChanged     bool
	Unlocked        []catalog.Achievement
}

// SummaryResponse 台帳の概要
type SummaryResponse struct {
	UserID            string
	TotalCredits      int64
	LifetimeCredits   int64
	CO2SavedGrams     float64
	Tier              catalog.Tier
	Achievements      []string
	ActiveRedemptions []ledger.Redemption
	Stats             ledger.BehaviorStats
	UpdatedAt         time.Time
}

// HistoryResponse 獲得履歴と交換履歴
type HistoryResponse struct {
	Earnings    []ledger.Earning
	Redemptions []ledger.Redemption
}

// AwardRequest クレジット付与リクエスト
type AwardRequest struct {
	UserID   string
	Amount   int64
	Reason   string
	Metadata map[string]interface{}
}

// AwardResponse クレジット付与レスポンス
type AwardResponse struct {
	Earning ledger.Earning
	Outcome
}

// RedeemRequest 交換リクエスト
type RedeemRequest struct {
	UserID   string
	OptionID string
}

// RedeemResponse 交換レスポンス
type RedeemResponse struct {
	Redemption ledger.Redemption
	Outcome
}

// AchievementsResponse 解除済み・未解除の実績
type AchievementsResponse struct {
	Unlocked []catalog.Achievement
	Locked   []catalog.Achievement
}

// EcoTripRequest 検証済みエコ移動の記録リクエスト
// CO2Grams が nil の場合は移動手段と距離から算出する
type EcoTripRequest struct {
	UserID     string
	Mode       trip.Mode
	DistanceKm float64
	CO2Grams   *float64
	Source     string // "trip" or "eco_proof"
}

// EcoTripResponse エコ移動の記録結果
type EcoTripResponse struct {
	Earning       ledger.Earning
	Credits       int64
	IsFirst       bool
	CO2SavedGrams float64
	Outcome
}
