package trip

import (
	"math"
	"strings"
)

// Mode 移動手段
type Mode string

const (
	ModeWalk    Mode = "walk"
	ModeBike    Mode = "bike"
	ModeRun     Mode = "run"
	ModeScooter Mode = "scooter"
)

const (
	// CarBaselineGramsPerKm 自動車の基準排出量 (g/km)
	CarBaselineGramsPerKm = 192.0

	// BikeSpeedThreshold この速度 (m/s) を超えると自転車と判定
	BikeSpeedThreshold = 4.5
	// RunSpeedThreshold この速度 (m/s) を超えるとランと判定
	RunSpeedThreshold = 1.5
)

var emissionFactors = map[Mode]float64{
	ModeBike:    21.0,
	ModeWalk:    50.0,
	ModeScooter: 50.0,
	ModeRun:     65.0,
}

// ParseMode 文字列から移動手段を生成
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := emissionFactors[m]; !ok {
		return "", ErrInvalidMode
	}
	return m, nil
}

// String 文字列表現を返す
func (m Mode) String() string {
	return string(m)
}

// EmissionFactor 移動手段の排出係数 (g/km) を返す
func EmissionFactor(m Mode) (float64, bool) {
	f, ok := emissionFactors[m]
	return f, ok
}

// ClassifySpeed 瞬間速度 (m/s) から移動手段を判定
func ClassifySpeed(speed float64) Mode {
	switch {
	case speed > BikeSpeedThreshold:
		return ModeBike
	case speed > RunSpeedThreshold:
		return ModeRun
	default:
		return ModeWalk
	}
}

// CO2Saved 自動車の代わりにこの手段で移動した場合の削減量 (g)
// 未知の手段は排出0として扱う
func CO2Saved(m Mode, distanceKm float64) float64 {
	factor := emissionFactors[m]
	return math.Max(0, (CarBaselineGramsPerKm-factor)*distanceKm)
}
