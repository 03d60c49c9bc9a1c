package ledger

import "errors"

var (
	// ErrInsufficientCredits クレジット不足エラー
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidCO2Amount CO2削減量が非有限値
	ErrInvalidCO2Amount = errors.New("invalid co2 amount")
	// ErrLedgerNotFound 台帳が見つからないエラー
	ErrLedgerNotFound = errors.New("ledger not found")
	// ErrCorruptLedger 保存データが破損している
	ErrCorruptLedger = errors.New("corrupt ledger data")
	// ErrRedemptionNotFound 交換履歴が見つからないエラー
	ErrRedemptionNotFound = errors.New("redemption not found")
)
