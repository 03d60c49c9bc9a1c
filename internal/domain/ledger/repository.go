package ledger

import (
	"context"
)

// LedgerRepository 台帳リポジトリインターフェース
type LedgerRepository interface {
	// FindByUserID ユーザーIDで台帳を取得
	// 保存データが破損している場合は ErrCorruptLedger をラップしたエラーを返す
	FindByUserID(ctx context.Context, userID string) (*CreditLedger, error)

	// Save 台帳全体を保存（存在しなければ作成）
	Save(ctx context.Context, l *CreditLedger) error

	// Delete 保存データを削除
	Delete(ctx context.Context, userID string) error
}
