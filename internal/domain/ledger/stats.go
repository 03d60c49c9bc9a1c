package ledger

import "time"

// BehaviorStats エコ行動の統計
type BehaviorStats struct {
	EcoTrips          int64      `json:"ecoTrips"`
	BikeDeliveries    int64      `json:"bikeDeliveries"`
	WalkDeliveries    int64      `json:"walkDeliveries"`
	EcoDeliveries     int64      `json:"ecoDeliveries"`
	PlantBasedMeals   int64      `json:"plantBasedMeals"`
	ReusablePackaging int64      `json:"reusablePackaging"`
	UniqueLocalChefs  []string   `json:"uniqueLocalChefs"`
	DailyStreak       int64      `json:"dailyStreak"`
	LastEcoOrderDate  *time.Time `json:"lastEcoOrderDate"`
}

// clone 独立したコピーを返す
func (s BehaviorStats) clone() BehaviorStats {
	out := s
	out.UniqueLocalChefs = append([]string{}, s.UniqueLocalChefs...)
	if s.LastEcoOrderDate != nil {
		d := *s.LastEcoOrderDate
		out.LastEcoOrderDate = &d
	}
	return out
}

// StatsUpdate 統計の部分更新
// nil のフィールドは変更しない。UniqueLocalChefs は和集合として追加される
type StatsUpdate struct {
	EcoTrips          *int64
	BikeDeliveries    *int64
	WalkDeliveries    *int64
	EcoDeliveries     *int64
	PlantBasedMeals   *int64
	ReusablePackaging *int64
	UniqueLocalChefs  []string
	DailyStreak       *int64
	LastEcoOrderDate  *time.Time
}

// apply 統計に部分更新を反映する
func (u StatsUpdate) apply(s *BehaviorStats) {
	setIf := func(dst *int64, v *int64) {
		if v != nil {
			*dst = *v
		}
	}
	setIf(&s.EcoTrips, u.EcoTrips)
	setIf(&s.BikeDeliveries, u.BikeDeliveries)
	setIf(&s.WalkDeliveries, u.WalkDeliveries)
	setIf(&s.EcoDeliveries, u.EcoDeliveries)
	setIf(&s.PlantBasedMeals, u.PlantBasedMeals)
	setIf(&s.ReusablePackaging, u.ReusablePackaging)
	setIf(&s.DailyStreak, u.DailyStreak)

	if u.LastEcoOrderDate != nil {
		d := *u.LastEcoOrderDate
		s.LastEcoOrderDate = &d
	}

	if len(u.UniqueLocalChefs) > 0 {
		seen := make(map[string]struct{}, len(s.UniqueLocalChefs)+len(u.UniqueLocalChefs))
		for _, c := range s.UniqueLocalChefs {
			seen[c] = struct{}{}
		}
		for _, c := range u.UniqueLocalChefs {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			s.UniqueLocalChefs = append(s.UniqueLocalChefs, c)
		}
	}
}

// Int64 ポインタを返す（StatsUpdate 組み立て用）
func Int64(v int64) *int64 {
	return &v
}
