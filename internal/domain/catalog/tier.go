package catalog

import "fmt"

// TierID ティアID
type TierID string

const (
	TierBronze   TierID = "bronze"
	TierSilver   TierID = "silver"
	TierGold     TierID = "gold"
	TierPlatinum TierID = "platinum"
)

// String 文字列表現を返す
func (t TierID) String() string {
	return string(t)
}

// Tier 報酬ティア
// MaxCredits が nil の場合は上限なし
type Tier struct {
	ID         TierID   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	MinCredits int64    `yaml:"minCredits" json:"min_credits"`
	MaxCredits *int64   `yaml:"maxCredits,omitempty" json:"max_credits"`
	Color      string   `yaml:"color" json:"color"`
	Icon       string   `yaml:"icon" json:"icon"`
	Benefits   []string `yaml:"benefits" json:"benefits"`
	NextTier   TierID   `yaml:"nextTier,omitempty" json:"next_tier,omitempty"`
}

// Contains クレジットがこのティアの範囲に含まれるか
func (t Tier) Contains(credits int64) bool {
	if credits < t.MinCredits {
		return false
	}
	return t.MaxCredits == nil || credits <= *t.MaxCredits
}

// IsTop 最上位ティアかどうか
func (t Tier) IsTop() bool {
	return t.NextTier == ""
}

// TierProgress 次のティアまでの進捗
type TierProgress struct {
	Current       Tier
	Progress      float64 // 0-100
	CreditsToNext int64
	Next          *Tier
}

// validateTiers ティアが昇順・連続・隙間なしで並んでいるか検証
func validateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: no tiers defined", ErrInvalidCatalog)
	}
	if tiers[0].MinCredits != 0 {
		return fmt.Errorf("%w: first tier %q must start at 0", ErrInvalidCatalog, tiers[0].ID)
	}

	seen := make(map[TierID]struct{}, len(tiers))
	for i, t := range tiers {
		if t.ID == "" {
			return fmt.Errorf("%w: tier at index %d has empty id", ErrInvalidCatalog, i)
		}
		if _, ok := seen[t.ID]; ok {
			return fmt.Errorf("%w: duplicate tier id %q", ErrInvalidCatalog, t.ID)
		}
		seen[t.ID] = struct{}{}

		last := i == len(tiers)-1
		if last {
			if t.MaxCredits != nil {
				return fmt.Errorf("%w: last tier %q must be unbounded", ErrInvalidCatalog, t.ID)
			}
			if t.NextTier != "" {
				return fmt.Errorf("%w: last tier %q must not have a next tier", ErrInvalidCatalog, t.ID)
			}
			continue
		}

		if t.MaxCredits == nil {
			return fmt.Errorf("%w: tier %q must have maxCredits", ErrInvalidCatalog, t.ID)
		}
		if *t.MaxCredits < t.MinCredits {
			return fmt.Errorf("%w: tier %q has maxCredits below minCredits", ErrInvalidCatalog, t.ID)
		}
		next := tiers[i+1]
		if next.MinCredits != *t.MaxCredits+1 {
			return fmt.Errorf("%w: gap or overlap between %q and %q", ErrInvalidCatalog, t.ID, next.ID)
		}
		if t.NextTier != next.ID {
			return fmt.Errorf("%w: tier %q nextTier is %q, want %q", ErrInvalidCatalog, t.ID, t.NextTier, next.ID)
		}
	}
	return nil
}
