package handler

import (
	"time"

	"eco-rewards/internal/domain/catalog"
	"eco-rewards/internal/domain/ledger"
)

// SummaryResponse 報酬サマリーレスポンス
// @Description 報酬サマリーレスポンス
type SummaryResponse struct {
	UserID            string               `json:"user_id" example:"user123"`
	TotalCredits      int64                `json:"total_credits" example:"600"`
	LifetimeCredits   int64                `json:"lifetime_credits" example:"750"`
	CO2SavedGrams     float64              `json:"co2_saved_grams" example:"1200.5"`
	Tier              catalog.Tier         `json:"tier"`
	Achievements      []string             `json:"achievements"`
	ActiveRedemptions []ledger.Redemption  `json:"active_redemptions"`
	Stats             ledger.BehaviorStats `json:"stats"`
	UpdatedAt         *time.Time           `json:"updated_at"`
}

// HistoryResponse 履歴レスポンス
type HistoryResponse struct {
	Earnings    []ledger.Earning    `json:"earnings"`
	Redemptions []ledger.Redemption `json:"redemptions"`
}

// TierProgressResponse ティア進捗レスポンス
type TierProgressResponse struct {
	Current       catalog.Tier  `json:"current"`
	Progress      float64       `json:"progress" example:"42.5"`
	CreditsToNext int64         `json:"credits_to_next" example:"120"`
	Next          *catalog.Tier `json:"next"`
}

// AchievementsResponse 実績一覧レスポンス
type AchievementsResponse struct {
	Unlocked []AchievementItem `json:"unlocked"`
	Locked   []AchievementItem `json:"locked"`
}

// AwardRequest クレジット付与リクエスト
// @Description amountは数値・数値文字列を受け付け、それ以外は0として扱う
type AwardRequest struct {
	Amount   interface{}            `json:"amount" swaggertype:"number" example:"40"`
	Reason   interface{}            `json:"reason" swaggertype:"string" example:"Bike delivery"`
	Metadata map[string]interface{} `json:"metadata"`
}

// AwardResponse クレジット付与レスポンス
type AwardResponse struct {
	Earning ledger.Earning `json:"earning"`
	OutcomeResponse
}

// CO2Request CO2削減量の加算リクエスト
type CO2Request struct {
	Grams *float64 `json:"grams" example:"250"`
}

// StatsRequest 行動統計の更新リクエスト
// 指定したフィールドのみ上書きする
type StatsRequest struct {
	EcoTrips          *int64     `json:"eco_trips"`
	BikeDeliveries    *int64     `json:"bike_deliveries"`
	WalkDeliveries    *int64     `json:"walk_deliveries"`
	EcoDeliveries     *int64     `json:"eco_deliveries"`
	PlantBasedMeals   *int64     `json:"plant_based_meals"`
	ReusablePackaging *int64     `json:"reusable_packaging"`
	UniqueLocalChefs  []string   `json:"unique_local_chefs"`
	DailyStreak       *int64     `json:"daily_streak"`
	LastEcoOrderDate  *time.Time `json:"last_eco_order_date"`
}

// RedeemRequest 交換リクエスト
// @Description 交換リクエスト
type RedeemRequest struct {
	OptionID string `json:"option_id" example:"discount_1"`
}

// RedeemResponse 交換レスポンス
type RedeemResponse struct {
	Redemption ledger.Redemption `json:"redemption"`
	OutcomeResponse
}

// CartPotentialRequest 注文で得られるクレジットの見積もりリクエスト
type CartPotentialRequest struct {
	DeliveryMethod    string `json:"delivery_method" example:"bike"`
	ReusablePackaging bool   `json:"reusable_packaging"`
	PlantBasedCount   int64  `json:"plant_based_count"`
	IsLocalChef       bool   `json:"is_local_chef"`
}
