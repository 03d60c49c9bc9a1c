package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// snapshot 永続化用の台帳全体の表現
type snapshot struct {
	UserID          string        `json:"userId"`
	TotalCredits    int64         `json:"totalCredits"`
	LifetimeCredits int64         `json:"lifetimeCredits"`
	CO2SavedGrams   float64       `json:"co2SavedGrams"`
	Achievements    []string      `json:"achievements"`
	Redemptions     []Redemption  `json:"redemptions"`
	EarningHistory  []Earning     `json:"earningHistory"`
	Stats           BehaviorStats `json:"stats"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// MarshalJSON 台帳全体を1つのJSONオブジェクトとして出力
func (l *CreditLedger) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		UserID:          l.userID,
		TotalCredits:    l.totalCredits,
		LifetimeCredits: l.lifetimeCredits,
		CO2SavedGrams:   l.co2SavedGrams,
		Achievements:    l.achievements,
		Redemptions:     l.redemptions,
		EarningHistory:  l.earningHistory,
		Stats:           l.stats,
		UpdatedAt:       l.updatedAt,
	})
}

// Decode 保存データから台帳を復元する
// トップレベルがJSONオブジェクトでなければ ErrCorruptLedger を返す。
// 各フィールドは個別に検証し、型が合わないものは初期値に戻す
func Decode(userID string, data []byte, opts ...Option) (*CreditLedger, error) {
	l, err := NewCreditLedger(userID, opts...)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrCorruptLedger)
	}

	if v, ok := decodeInt(fields["totalCredits"]); ok && v >= 0 {
		l.totalCredits = v
	}
	if v, ok := decodeInt(fields["lifetimeCredits"]); ok && v >= 0 {
		l.lifetimeCredits = v
	}
	if v, ok := decodeFloat(fields["co2SavedGrams"]); ok && v >= 0 {
		l.co2SavedGrams = v
	}
	l.achievements = decodeStringSet(fields["achievements"])
	l.redemptions = decodeRedemptions(fields["redemptions"])
	l.earningHistory = decodeEarnings(fields["earningHistory"])
	l.stats = decodeStats(fields["stats"])

	var updatedAt time.Time
	if raw, ok := fields["updatedAt"]; ok && json.Unmarshal(raw, &updatedAt) == nil {
		l.updatedAt = updatedAt
	}
	return l, nil
}

func decodeFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	// json.Number は数値文字列 "\"12\"" も受け付けるため先頭文字で判別する
	if raw[0] == '"' {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func decodeInt(raw json.RawMessage) (int64, bool) {
	f, ok := decodeFloat(raw)
	if !ok {
		return 0, false
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64, true
	}
	if f <= math.MinInt64 {
		return math.MinInt64, true
	}
	return int64(f), true
}

// decodeArray 配列でなければ nil を返す
func decodeArray(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func decodeStringSet(raw json.RawMessage) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, item := range decodeArray(raw) {
		var id string
		if err := json.Unmarshal(item, &id); err != nil || id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func decodeRedemptions(raw json.RawMessage) []Redemption {
	out := []Redemption{}
	for _, item := range decodeArray(raw) {
		var r Redemption
		if err := json.Unmarshal(item, &r); err != nil || r.ID == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

func decodeEarnings(raw json.RawMessage) []Earning {
	out := []Earning{}
	for _, item := range decodeArray(raw) {
		if len(out) >= MaxEarningHistory {
			break
		}
		var e Earning
		if err := json.Unmarshal(item, &e); err != nil || e.ID == "" {
			continue
		}
		e.Metadata = FilterMetadata(e.Metadata)
		out = append(out, e)
	}
	return out
}

func decodeStats(raw json.RawMessage) BehaviorStats {
	stats := BehaviorStats{UniqueLocalChefs: []string{}}
	if len(raw) == 0 {
		return stats
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return stats
	}

	counters := map[string]*int64{
		"ecoTrips":          &stats.EcoTrips,
		"bikeDeliveries":    &stats.BikeDeliveries,
		"walkDeliveries":    &stats.WalkDeliveries,
		"ecoDeliveries":     &stats.EcoDeliveries,
		"plantBasedMeals":   &stats.PlantBasedMeals,
		"reusablePackaging": &stats.ReusablePackaging,
		"dailyStreak":       &stats.DailyStreak,
	}
	for key, dst := range counters {
		if v, ok := decodeInt(fields[key]); ok && v >= 0 {
			*dst = v
		}
	}

	StatsUpdate{UniqueLocalChefs: decodeStringSet(fields["uniqueLocalChefs"])}.apply(&stats)

	var last time.Time
	if raw, ok := fields["lastEcoOrderDate"]; ok && json.Unmarshal(raw, &last) == nil && !last.IsZero() {
		stats.LastEcoOrderDate = &last
	}
	return stats
}
