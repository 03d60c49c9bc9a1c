package handler

import (
	"time"

	rewardsapp "eco-rewards/internal/application/rewards"
	"eco-rewards/internal/domain/catalog"
)

// ErrorResponse エラーレスポンス
// @Description エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error" example:"insufficient_credits"`
	Message string `json:"message" example:"insufficient credits"`
	Code    string `json:"code,omitempty"`
}

// AchievementItem 実績
type AchievementItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Credits     int64  `json:"credits"`
	Category    string `json:"category"`
}

// OutcomeResponse 変更操作後の台帳の状態
type OutcomeResponse struct {
	TotalCredits    int64             `json:"total_credits" example:"120"`
	LifetimeCredits int64             `json:"lifetime_credits" example:"220"`
	CO2SavedGrams   float64           `json:"co2_saved_grams" example:"513"`
	Tier            string            `json:"tier" example:"silver"`
	TierChanged     bool              `json:"tier_changed"`
	Unlocked        []AchievementItem `json:"unlocked_achievements"`
}

// toAchievementItems 実績定義をレスポンス形式に変換
func toAchievementItems(achievements []catalog.Achievement) []AchievementItem {
	items := make([]AchievementItem, len(achievements))
	for i, a := range achievements {
		items[i] = AchievementItem{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Icon:        a.Icon,
			Credits:     a.Credits,
			Category:    string(a.Category),
		}
	}
	return items
}

func toOutcomeResponse(o rewardsapp.Outcome) OutcomeResponse {
	return OutcomeResponse{
		TotalCredits:    o.TotalCredits,
		LifetimeCredits: o.LifetimeCredits,
		CO2SavedGrams:   o.CO2SavedGrams,
		Tier:            o.Tier.String(),
		TierChanged:     o.TierChanged,
		Unlocked:        toAchievementItems(o.Unlocked),
	}
}

// formatTime 空の時刻はnullにする
func formatTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}
