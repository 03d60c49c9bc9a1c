package catalog

import (
	"fmt"
	"math"
)

// Catalog ティア・実績・交換オプション・付与ルールの静的定義
// 起動時に一度だけ読み込まれ、以後は変更されない
type Catalog struct {
	tiers        []Tier
	achievements []Achievement
	options      []RedemptionOption
	credits      CreditValues
}

// NewCatalog 検証済みのCatalogを作成
func NewCatalog(tiers []Tier, achievements []Achievement, options []RedemptionOption, credits CreditValues) (*Catalog, error) {
	if err := validateTiers(tiers); err != nil {
		return nil, err
	}
	if err := validateAchievements(achievements, tiers); err != nil {
		return nil, err
	}
	if err := validateOptions(options, tiers); err != nil {
		return nil, err
	}
	for key, v := range credits {
		if v < 0 {
			return nil, fmt.Errorf("%w: credit value %s is negative", ErrInvalidCatalog, key)
		}
	}

	c := &Catalog{
		tiers:        append([]Tier(nil), tiers...),
		achievements: append([]Achievement(nil), achievements...),
		options:      append([]RedemptionOption(nil), options...),
		credits:      make(CreditValues, len(credits)),
	}
	for k, v := range credits {
		c.credits[k] = v
	}
	return c, nil
}

// MustNewCatalog テスト用ヘルパー: NewCatalogを呼び出し、エラーが発生した場合はpanicする
func MustNewCatalog(tiers []Tier, achievements []Achievement, options []RedemptionOption, credits CreditValues) *Catalog {
	c, err := NewCatalog(tiers, achievements, options, credits)
	if err != nil {
		panic(err)
	}
	return c
}

// Tiers ティア一覧を昇順で返す
func (c *Catalog) Tiers() []Tier {
	return append([]Tier(nil), c.tiers...)
}

// Achievements 実績一覧を返す
func (c *Catalog) Achievements() []Achievement {
	return append([]Achievement(nil), c.achievements...)
}

// Options 交換オプション一覧を返す
func (c *Catalog) Options() []RedemptionOption {
	return append([]RedemptionOption(nil), c.options...)
}

// Credits 付与ルール表を返す
func (c *Catalog) Credits() CreditValues {
	out := make(CreditValues, len(c.credits))
	for k, v := range c.credits {
		out[k] = v
	}
	return out
}

// CreditValue キーに対応する付与クレジットを返す
func (c *Catalog) CreditValue(key CreditKey) int64 {
	return c.credits.Value(key)
}

// TierFor クレジットに対応するティアを返す
// 上位ティアから順に走査し、minCredits <= credits を満たす最初のティアを選ぶ
func (c *Catalog) TierFor(credits int64) Tier {
	for i := len(c.tiers) - 1; i >= 0; i-- {
		if c.tiers[i].MinCredits <= credits {
			return c.tiers[i]
		}
	}
	return c.tiers[0]
}

// TierByID IDでティアを取得
func (c *Catalog) TierByID(id TierID) (Tier, error) {
	for _, t := range c.tiers {
		if t.ID == id {
			return t, nil
		}
	}
	return Tier{}, ErrTierNotFound
}

// TierRank ティアの順位を返す（bronze=0）
func (c *Catalog) TierRank(id TierID) (int, error) {
	for i, t := range c.tiers {
		if t.ID == id {
			return i, nil
		}
	}
	return -1, ErrTierNotFound
}

// MeetsTier current が required 以上のティアかどうか
func (c *Catalog) MeetsTier(current, required TierID) (bool, error) {
	cur, err := c.TierRank(current)
	if err != nil {
		return false, err
	}
	req, err := c.TierRank(required)
	if err != nil {
		return false, err
	}
	return cur >= req, nil
}

// Progress クレジットに対する次ティアまでの進捗を計算
func (c *Catalog) Progress(credits int64) TierProgress {
	current := c.TierFor(credits)
	if current.IsTop() {
		return TierProgress{
			Current:       current,
			Progress:      100,
			CreditsToNext: 0,
			Next:          nil,
		}
	}

	next, err := c.TierByID(current.NextTier)
	if err != nil {
		return TierProgress{Current: current, Progress: 100}
	}

	span := float64(next.MinCredits - current.MinCredits)
	progress := float64(credits-current.MinCredits) / span * 100
	progress = math.Min(100, progress)

	return TierProgress{
		Current:       current,
		Progress:      progress,
		CreditsToNext: next.MinCredits - credits,
		Next:          &next,
	}
}

// AchievementByID IDで実績を取得
func (c *Catalog) AchievementByID(id string) (Achievement, error) {
	for _, a := range c.achievements {
		if a.ID == id {
			return a, nil
		}
	}
	return Achievement{}, ErrAchievementNotFound
}

// OptionByID IDで交換オプションを取得
func (c *Catalog) OptionByID(id string) (RedemptionOption, error) {
	for _, o := range c.options {
		if o.ID == id {
			return o, nil
		}
	}
	return RedemptionOption{}, ErrOptionNotFound
}
