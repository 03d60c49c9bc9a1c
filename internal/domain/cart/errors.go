package cart

import "errors"

var (
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidItem 商品情報が無効
	ErrInvalidItem = errors.New("invalid cart item")
	// ErrItemNotFound カートに商品が存在しない
	ErrItemNotFound = errors.New("cart item not found")
	// ErrCartNotFound カートが存在しない
	ErrCartNotFound = errors.New("cart not found")
)
