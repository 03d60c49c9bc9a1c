package cart

import "context"

// CartRepository カートリポジトリインターフェース
type CartRepository interface {
	// FindByUserID ユーザーIDでカートを取得（存在しなければ ErrCartNotFound）
	FindByUserID(ctx context.Context, userID string) (*Cart, error)

	// Save カート全体を保存
	Save(ctx context.Context, c *Cart) error

	// Delete カートを削除
	Delete(ctx context.Context, userID string) error
}
