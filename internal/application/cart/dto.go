package cart

import (
	"time"

	"eco-rewards/internal/domain/cart"
)

// CartResponse カートの内容
type CartResponse struct {
	UserID    string
	Items     []cart.Item
	Count     int64
	Total     float64
	UpdatedAt time.Time
}

// AddItemRequest 商品追加リクエスト
type AddItemRequest struct {
	UserID         string
	RestaurantName string
	Item           cart.Item
}

// ItemRequest 行を指定するリクエスト
type ItemRequest struct {
	UserID         string
	ItemID         string
	RestaurantName string
}

// Reminder カート放置通知の内容
type Reminder struct {
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Type      string  `json:"type"`
	ItemCount int64   `json:"itemCount"`
	Total     float64 `json:"total"`
}
