package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// MaxEarningHistory 保持する獲得履歴の最大件数
const MaxEarningHistory = 100

// Earning クレジット獲得記録（作成後は不変）
type Earning struct {
	ID        string                 `json:"id"`
	Amount    int64                  `json:"amount"`
	Reason    string                 `json:"reason"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// FilterMetadata 文字列・数値・真偽値のみを残す
func FilterMetadata(metadata map[string]interface{}) map[string]interface{} {
	safe := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32:
			safe[k] = val
		case float64:
			if !math.IsNaN(val) && !math.IsInf(val, 0) {
				safe[k] = val
			}
		case json.Number:
			safe[k] = val
		}
	}
	return safe
}

// CoerceAmount 任意の値を付与量に変換する
// 数値と数値文字列以外は0、小数は切り捨て、負数は0
func CoerceAmount(v interface{}) int64 {
	var f float64
	switch val := v.(type) {
	case int:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case float32:
		f = float64(val)
	case float64:
		f = val
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if val {
			return 1
		}
		return 0
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

// CoerceReason 任意の値を付与理由の文字列に変換する
// nilは空文字、整数値の数値は小数点なしで表記する
func CoerceReason(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
