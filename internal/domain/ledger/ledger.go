package ledger

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/google/uuid"

	"eco-rewards/internal/domain/catalog"
)

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)

// CreditLedger ユーザーごとのクレジット台帳
// 単一の書き込み者を前提とし、内部でロックは取らない
type CreditLedger struct {
	userID          string
	totalCredits    int64 // 利用可能残高
	lifetimeCredits int64 // 累計獲得量（減らない）
	co2SavedGrams   float64
	achievements    []string
	redemptions     []Redemption // 新しい順
	earningHistory  []Earning    // 新しい順、最大 MaxEarningHistory 件
	stats           BehaviorStats
	updatedAt       time.Time

	now   func() time.Time
	newID func() string
}

// Option CreditLedger の生成オプション
type Option func(*CreditLedger)

// WithClock 時刻取得関数を差し替える
func WithClock(now func() time.Time) Option {
	return func(l *CreditLedger) {
		l.now = now
	}
}

// WithIDGenerator ID生成関数を差し替える
func WithIDGenerator(newID func() string) Option {
	return func(l *CreditLedger) {
		l.newID = newID
	}
}

// NewCreditLedger 空の台帳を作成
func NewCreditLedger(userID string, opts ...Option) (*CreditLedger, error) {
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	l := &CreditLedger{
		userID:         userID,
		achievements:   []string{},
		redemptions:    []Redemption{},
		earningHistory: []Earning{},
		stats:          BehaviorStats{UniqueLocalChefs: []string{}},
		now:            time.Now,
		newID:          newTimeOrderedID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// MustNewCreditLedger テスト用ヘルパー: NewCreditLedgerを呼び出し、エラーが発生した場合はpanicする
func MustNewCreditLedger(userID string, opts ...Option) *CreditLedger {
	l, err := NewCreditLedger(userID, opts...)
	if err != nil {
		panic(err)
	}
	return l
}

func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// UserID ユーザーIDを返す
func (l *CreditLedger) UserID() string {
	return l.userID
}

// TotalCredits 利用可能残高を返す
func (l *CreditLedger) TotalCredits() int64 {
	return l.totalCredits
}

// LifetimeCredits 累計獲得クレジットを返す
func (l *CreditLedger) LifetimeCredits() int64 {
	return l.lifetimeCredits
}

// CO2SavedGrams 累計CO2削減量 (g) を返す
func (l *CreditLedger) CO2SavedGrams() float64 {
	return l.co2SavedGrams
}

// Achievements 解除済み実績IDを解除順に返す
func (l *CreditLedger) Achievements() []string {
	return append([]string{}, l.achievements...)
}

// Redemptions 交換履歴を新しい順に返す
func (l *CreditLedger) Redemptions() []Redemption {
	return append([]Redemption{}, l.redemptions...)
}

// EarningHistory 獲得履歴を新しい順に返す
func (l *CreditLedger) EarningHistory() []Earning {
	return append([]Earning{}, l.earningHistory...)
}

// Stats 統計を返す
func (l *CreditLedger) Stats() BehaviorStats {
	return l.stats.clone()
}

// UpdatedAt 最終更新日時を返す
func (l *CreditLedger) UpdatedAt() time.Time {
	return l.updatedAt
}

// HasAchievement 実績が解除済みか
func (l *CreditLedger) HasAchievement(id string) bool {
	for _, a := range l.achievements {
		if a == id {
			return true
		}
	}
	return false
}

// AwardCredits クレジットを付与し、獲得記録を返す
// 実績判定は行わない（呼び出し側で CheckAchievements を呼ぶ）
func (l *CreditLedger) AwardCredits(amount int64, reason string, metadata map[string]interface{}) Earning {
	if amount < 0 {
		amount = 0
	}
	earning := Earning{
		ID:        l.newID(),
		Amount:    amount,
		Reason:    reason,
		Timestamp: l.now(),
		Metadata:  FilterMetadata(metadata),
	}
	l.credit(amount)
	l.prependEarning(earning)
	l.touch()
	return earning
}

func (l *CreditLedger) credit(amount int64) {
	if l.totalCredits > math.MaxInt64-amount {
		l.totalCredits = math.MaxInt64
	} else {
		l.totalCredits += amount
	}
	if l.lifetimeCredits > math.MaxInt64-amount {
		l.lifetimeCredits = math.MaxInt64
	} else {
		l.lifetimeCredits += amount
	}
}

func (l *CreditLedger) prependEarning(e Earning) {
	history := make([]Earning, 0, min(len(l.earningHistory)+1, MaxEarningHistory))
	history = append(history, e)
	for _, old := range l.earningHistory {
		if len(history) >= MaxEarningHistory {
			break
		}
		history = append(history, old)
	}
	l.earningHistory = history
}

// AddCO2Savings CO2削減量を加算
// 符号は検証しない。非有限値のみ拒否する
func (l *CreditLedger) AddCO2Savings(grams float64) error {
	if math.IsNaN(grams) || math.IsInf(grams, 0) {
		return ErrInvalidCO2Amount
	}
	l.co2SavedGrams += grams
	l.touch()
	return nil
}

// UpdateStats 統計を部分更新
func (l *CreditLedger) UpdateStats(update StatsUpdate) {
	update.apply(&l.stats)
	l.touch()
}

// CheckAchievements 未解除の実績を現在の状態で判定し、解除した実績を返す
// 解除ボーナスで新たな条件を満たす場合もあるため、解除がなくなるまで繰り返す
func (l *CreditLedger) CheckAchievements(cat *catalog.Catalog) []catalog.Achievement {
	var unlocked []catalog.Achievement
	for {
		progressed := false
		for _, a := range cat.Achievements() {
			if l.HasAchievement(a.ID) {
				continue
			}
			if !l.criteriaMet(cat, a.Criteria) {
				continue
			}
			l.unlock(a)
			unlocked = append(unlocked, a)
			progressed = true
		}
		if !progressed {
			return unlocked
		}
	}
}

// criteriaMet いずれかの条件を満たしていれば true
// 閾値が0以下の条件は未設定として扱う
func (l *CreditLedger) criteriaMet(cat *catalog.Catalog, c catalog.UnlockCriteria) bool {
	reached := func(threshold *int64, value int64) bool {
		return threshold != nil && *threshold > 0 && value >= *threshold
	}

	switch {
	case reached(c.TotalCredits, l.lifetimeCredits),
		reached(c.EcoTrips, l.stats.EcoTrips),
		reached(c.BikeDeliveries, l.stats.BikeDeliveries),
		reached(c.EcoDeliveries, l.stats.EcoDeliveries),
		reached(c.PlantBasedMeals, l.stats.PlantBasedMeals),
		reached(c.ReusablePackaging, l.stats.ReusablePackaging),
		reached(c.UniqueLocalChefs, int64(len(l.stats.UniqueLocalChefs))),
		reached(c.DailyStreak, l.stats.DailyStreak):
		return true
	}
	if c.CO2Saved != nil && *c.CO2Saved > 0 && l.co2SavedGrams >= *c.CO2Saved {
		return true
	}
	if c.Tier != "" && l.CurrentTier(cat).ID == c.Tier {
		return true
	}
	return false
}

func (l *CreditLedger) unlock(a catalog.Achievement) {
	if l.HasAchievement(a.ID) {
		return
	}
	l.achievements = append(l.achievements, a.ID)
	bonus := a.Credits
	if bonus < 0 {
		bonus = 0
	}
	l.credit(bonus)
	l.prependEarning(Earning{
		ID:        l.newID(),
		Amount:    bonus,
		Reason:    fmt.Sprintf("Achievement Unlocked: %s", a.Name),
		Timestamp: l.now(),
		Metadata: map[string]interface{}{
			"type":          "achievement",
			"achievementId": a.ID,
		},
	})
	l.touch()
}

// Redeem 交換オプションとクレジットを交換する
// ティア条件は確認しない（呼び出し側の責務）
func (l *CreditLedger) Redeem(option catalog.RedemptionOption) (Redemption, error) {
	if l.totalCredits < option.Cost {
		return Redemption{}, ErrInsufficientCredits
	}
	r := Redemption{
		ID:        l.newID(),
		OptionID:  option.ID,
		Name:      option.Name,
		Cost:      option.Cost,
		Timestamp: l.now(),
		Used:      false,
	}
	l.totalCredits -= option.Cost
	l.redemptions = append([]Redemption{r}, l.redemptions...)
	l.touch()
	return r, nil
}

// UseRedemption 交換済みの特典を使用済みにする
// 見つからない場合は false を返し、何も変更しない
func (l *CreditLedger) UseRedemption(id string) bool {
	for i := range l.redemptions {
		if l.redemptions[i].ID != id {
			continue
		}
		if !l.redemptions[i].Used {
			l.redemptions[i].Used = true
			l.touch()
		}
		return true
	}
	return false
}

// ActiveRedemptions 未使用の交換履歴を返す
func (l *CreditLedger) ActiveRedemptions() []Redemption {
	active := make([]Redemption, 0, len(l.redemptions))
	for _, r := range l.redemptions {
		if !r.Used {
			active = append(active, r)
		}
	}
	return active
}

// CurrentTier 利用可能残高から現在のティアを返す
func (l *CreditLedger) CurrentTier(cat *catalog.Catalog) catalog.Tier {
	return cat.TierFor(l.totalCredits)
}

// TierProgress 次のティアまでの進捗を返す
func (l *CreditLedger) TierProgress(cat *catalog.Catalog) catalog.TierProgress {
	return cat.Progress(l.totalCredits)
}

// UnlockedAchievements 解除済みの実績をカタログ順に返す
func (l *CreditLedger) UnlockedAchievements(cat *catalog.Catalog) []catalog.Achievement {
	var out []catalog.Achievement
	for _, a := range cat.Achievements() {
		if l.HasAchievement(a.ID) {
			out = append(out, a)
		}
	}
	return out
}

// LockedAchievements 未解除の実績をカタログ順に返す
func (l *CreditLedger) LockedAchievements(cat *catalog.Catalog) []catalog.Achievement {
	var out []catalog.Achievement
	for _, a := range cat.Achievements() {
		if !l.HasAchievement(a.ID) {
			out = append(out, a)
		}
	}
	return out
}

func (l *CreditLedger) touch() {
	l.updatedAt = l.now()
}
