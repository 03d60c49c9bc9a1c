package trip

import "time"

const (
	// MaxAccuracyMeters これより精度が悪い測位は破棄する
	MaxAccuracyMeters = 30.0
	// JitterFloorKm 前回採用地点からこの距離以下の移動は距離に加算しない
	JitterFloorKm = 0.015
)

// FixResult 測位の取り込み結果
type FixResult string

const (
	// FixOrigin 最初の有効な測位。距離は加算されない
	FixOrigin FixResult = "origin"
	// FixAccepted 距離・削減量に加算された
	FixAccepted FixResult = "accepted"
	// FixRejectedAccuracy 精度不足で破棄された
	FixRejectedAccuracy FixResult = "rejected_accuracy"
	// FixRejectedJitter ジッター範囲内。軌跡には記録される
	FixRejectedJitter FixResult = "rejected_jitter"
	// FixRejectedEnded トリップ終了後の測位
	FixRejectedEnded FixResult = "rejected_ended"
)

// Accepted 最終採用地点が更新されたか
func (r FixResult) Accepted() bool {
	return r == FixAccepted || r == FixOrigin
}

// Sample GPS測位
// Speed は m/s、不明な場合は0
type Sample struct {
	Latitude  float64
	Longitude float64
	Speed     float64
	Accuracy  float64
	Timestamp time.Time
}

// TracePoint 検証用に記録する軌跡の1点
type TracePoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed"`
	Accuracy  float64   `json:"accuracy"`
}

type coordinate struct {
	lat float64
	lon float64
}

// Tracker 1回のトリップの距離・時間・削減量を集計する
// 並行呼び出しには対応しない（呼び出し側で直列化する）
type Tracker struct {
	mode        Mode
	distanceKm  float64
	carbonGrams float64
	durationSec int64
	last        *coordinate
	trace       []TracePoint
	ended       bool
}

// NewTracker 新しいTrackerを作成
func NewTracker() *Tracker {
	return &Tracker{
		mode:  ModeWalk,
		trace: make([]TracePoint, 0, 64),
	}
}

// AcceptFix 測位を取り込む
func (t *Tracker) AcceptFix(s Sample) FixResult {
	if t.ended {
		return FixRejectedEnded
	}
	if s.Accuracy > MaxAccuracyMeters {
		return FixRejectedAccuracy
	}

	defer t.record(s)

	if t.last == nil {
		t.last = &coordinate{lat: s.Latitude, lon: s.Longitude}
		return FixOrigin
	}

	dist := Haversine(t.last.lat, t.last.lon, s.Latitude, s.Longitude)
	if dist <= JitterFloorKm {
		return FixRejectedJitter
	}

	t.mode = ClassifySpeed(s.Speed)
	t.carbonGrams += CO2Saved(t.mode, dist)
	t.distanceKm += dist
	t.last = &coordinate{lat: s.Latitude, lon: s.Longitude}
	return FixAccepted
}

func (t *Tracker) record(s Sample) {
	t.trace = append(t.trace, TracePoint{
		Lat:       s.Latitude,
		Lng:       s.Longitude,
		Timestamp: s.Timestamp,
		Speed:     s.Speed,
		Accuracy:  s.Accuracy,
	})
}

// Tick 経過時間を1秒進める
func (t *Tracker) Tick() {
	if t.ended {
		return
	}
	t.durationSec++
}

// State 集計状態のスナップショット
type State struct {
	Mode        Mode
	DistanceKm  float64
	CarbonGrams float64
	DurationSec int64
	TracePoints int
	Ended       bool
}

// Snapshot 現在の集計状態を返す
func (t *Tracker) Snapshot() State {
	return State{
		Mode:        t.mode,
		DistanceKm:  t.distanceKm,
		CarbonGrams: t.carbonGrams,
		DurationSec: t.durationSec,
		TracePoints: len(t.trace),
		Ended:       t.ended,
	}
}

// End トリップを終了し、検証リクエストを組み立てる
// 以降の測位と時間経過は無視される
func (t *Tracker) End() VerificationRequest {
	t.ended = true
	trace := make([]TracePoint, len(t.trace))
	copy(trace, t.trace)
	return VerificationRequest{
		Mode:        t.mode,
		DistanceKm:  t.distanceKm,
		DurationSec: t.durationSec,
		GPSTrace:    trace,
	}
}
