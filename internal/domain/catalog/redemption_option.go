package catalog

import "fmt"

// OptionType 交換オプション種別
type OptionType string

const (
	OptionTypeDiscount OptionType = "discount"
	OptionTypeDelivery OptionType = "delivery"
	OptionTypeImpact   OptionType = "impact"
	OptionTypeSpecial  OptionType = "special"
)

// RedemptionOption クレジット交換オプション
type RedemptionOption struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description"`
	Cost        int64      `yaml:"cost" json:"cost"`
	Type        OptionType `yaml:"type" json:"type"`
	Value       float64    `yaml:"value" json:"value"`
	Icon        string     `yaml:"icon" json:"icon"`
	MinTier     TierID     `yaml:"minTier" json:"min_tier"`
}

func validateOptions(options []RedemptionOption, tiers []Tier) error {
	tierIDs := make(map[TierID]struct{}, len(tiers))
	for _, t := range tiers {
		tierIDs[t.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		if o.ID == "" {
			return fmt.Errorf("%w: redemption option with empty id", ErrInvalidCatalog)
		}
		if _, ok := seen[o.ID]; ok {
			return fmt.Errorf("%w: duplicate redemption option id %q", ErrInvalidCatalog, o.ID)
		}
		seen[o.ID] = struct{}{}

		if o.Cost <= 0 {
			return fmt.Errorf("%w: redemption option %q must have positive cost", ErrInvalidCatalog, o.ID)
		}
		if _, ok := tierIDs[o.MinTier]; !ok {
			return fmt.Errorf("%w: redemption option %q references unknown tier %q", ErrInvalidCatalog, o.ID, o.MinTier)
		}
	}
	return nil
}
