package catalog

import "fmt"

// AchievementCategory 実績カテゴリ
type AchievementCategory string

const (
	CategoryTrips     AchievementCategory = "trips"
	CategoryMilestone AchievementCategory = "milestone"
	CategoryDelivery  AchievementCategory = "delivery"
	CategoryFood      AchievementCategory = "food"
	CategoryCommunity AchievementCategory = "community"
	CategoryPackaging AchievementCategory = "packaging"
	CategoryStreak    AchievementCategory = "streak"
	CategoryImpact    AchievementCategory = "impact"
)

// UnlockCriteria 実績の解除条件
// 設定された条件のいずれかを満たせば解除される
type UnlockCriteria struct {
	TotalCredits      *int64   `yaml:"totalCredits,omitempty" json:"total_credits,omitempty"`
	EcoTrips          *int64   `yaml:"ecoTrips,omitempty" json:"eco_trips,omitempty"`
	BikeDeliveries    *int64   `yaml:"bikeDeliveries,omitempty" json:"bike_deliveries,omitempty"`
	EcoDeliveries     *int64   `yaml:"ecoDeliveries,omitempty" json:"eco_deliveries,omitempty"`
	PlantBasedMeals   *int64   `yaml:"plantBasedMeals,omitempty" json:"plant_based_meals,omitempty"`
	ReusablePackaging *int64   `yaml:"reusablePackaging,omitempty" json:"reusable_packaging,omitempty"`
	UniqueLocalChefs  *int64   `yaml:"uniqueLocalChefs,omitempty" json:"unique_local_chefs,omitempty"`
	DailyStreak       *int64   `yaml:"dailyStreak,omitempty" json:"daily_streak,omitempty"`
	CO2Saved          *float64 `yaml:"co2Saved,omitempty" json:"co2_saved,omitempty"`
	Tier              TierID   `yaml:"tier,omitempty" json:"tier,omitempty"`
}

// IsEmpty 条件が一つも設定されていないか
func (c UnlockCriteria) IsEmpty() bool {
	return c.TotalCredits == nil &&
		c.EcoTrips == nil &&
		c.BikeDeliveries == nil &&
		c.EcoDeliveries == nil &&
		c.PlantBasedMeals == nil &&
		c.ReusablePackaging == nil &&
		c.UniqueLocalChefs == nil &&
		c.DailyStreak == nil &&
		c.CO2Saved == nil &&
		c.Tier == ""
}

// Achievement 実績定義
type Achievement struct {
	ID          string              `yaml:"id" json:"id"`
	Name        string              `yaml:"name" json:"name"`
	Description string              `yaml:"description" json:"description"`
	Icon        string              `yaml:"icon" json:"icon"`
	Credits     int64               `yaml:"credits" json:"credits"`
	Criteria    UnlockCriteria      `yaml:"unlockCriteria" json:"unlock_criteria"`
	Category    AchievementCategory `yaml:"category" json:"category"`
}

func validateAchievements(achievements []Achievement, tiers []Tier) error {
	tierIDs := make(map[TierID]struct{}, len(tiers))
	for _, t := range tiers {
		tierIDs[t.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(achievements))
	for _, a := range achievements {
		if a.ID == "" {
			return fmt.Errorf("%w: achievement with empty id", ErrInvalidCatalog)
		}
		if _, ok := seen[a.ID]; ok {
			return fmt.Errorf("%w: duplicate achievement id %q", ErrInvalidCatalog, a.ID)
		}
		seen[a.ID] = struct{}{}

		if a.Credits < 0 {
			return fmt.Errorf("%w: achievement %q has negative credits", ErrInvalidCatalog, a.ID)
		}
		if a.Criteria.IsEmpty() {
			return fmt.Errorf("%w: achievement %q has no unlock criteria", ErrInvalidCatalog, a.ID)
		}
		if a.Criteria.Tier != "" {
			if _, ok := tierIDs[a.Criteria.Tier]; !ok {
				return fmt.Errorf("%w: achievement %q references unknown tier %q", ErrInvalidCatalog, a.ID, a.Criteria.Tier)
			}
		}
	}
	return nil
}
