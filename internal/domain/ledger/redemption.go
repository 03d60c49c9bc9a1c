package ledger

import "time"

// Redemption クレジット交換記録
// Used 以外は作成後に変更されない
type Redemption struct {
	ID        string    `json:"id"`
	OptionID  string    `json:"optionId"`
	Name      string    `json:"name"`
	Cost      int64     `json:"cost"`
	Timestamp time.Time `json:"timestamp"`
	Used      bool      `json:"used"`
}
