package cart

import (
	"regexp"
	"time"
)

// AbandonedReminderDelay 最終更新からカート放置通知までの時間
const AbandonedReminderDelay = 15 * time.Minute

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)

// Item カートの1行
// 同じ商品でもレストランが異なれば別の行として扱う
type Item struct {
	ID             string  `json:"id"`
	RestaurantName string  `json:"restaurantName"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Quantity       int64   `json:"quantity"`
}

// Cart ユーザーごとのカート
type Cart struct {
	userID    string
	items     []Item
	updatedAt time.Time
}

// NewCart 空のカートを作成
func NewCart(userID string) (*Cart, error) {
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	return &Cart{userID: userID, items: []Item{}}, nil
}

// Restore 保存データからカートを復元
// 数量が1未満の行は読み捨てる
func Restore(userID string, items []Item, updatedAt time.Time) (*Cart, error) {
	c, err := NewCart(userID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.Quantity < 1 || item.ID == "" {
			continue
		}
		c.items = append(c.items, item)
	}
	c.updatedAt = updatedAt
	return c, nil
}

// MustNewCart テスト用ヘルパー: NewCartを呼び出し、エラーが発生した場合はpanicする
func MustNewCart(userID string) *Cart {
	c, err := NewCart(userID)
	if err != nil {
		panic(err)
	}
	return c
}

// UserID ユーザーIDを返す
func (c *Cart) UserID() string {
	return c.userID
}

// Items カートの行を追加順に返す
func (c *Cart) Items() []Item {
	return append([]Item{}, c.items...)
}

// UpdatedAt 最終更新日時を返す
func (c *Cart) UpdatedAt() time.Time {
	return c.updatedAt
}

// IsEmpty 行が1つもなければ true
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) indexOf(id, restaurantName string) int {
	for i, item := range c.items {
		if item.ID == id && item.RestaurantName == restaurantName {
			return i
		}
	}
	return -1
}

// Add 商品を1つ追加する
// 既に同じ行があれば数量を増やす
func (c *Cart) Add(item Item, restaurantName string, now time.Time) error {
	if item.ID == "" || item.Price < 0 {
		return ErrInvalidItem
	}
	if i := c.indexOf(item.ID, restaurantName); i >= 0 {
		c.items[i].Quantity++
	} else {
		item.RestaurantName = restaurantName
		item.Quantity = 1
		c.items = append(c.items, item)
	}
	c.updatedAt = now
	return nil
}

// Remove 数量を1つ減らす。数量が1の行は削除する
func (c *Cart) Remove(id, restaurantName string, now time.Time) error {
	i := c.indexOf(id, restaurantName)
	if i < 0 {
		return ErrItemNotFound
	}
	if c.items[i].Quantity > 1 {
		c.items[i].Quantity--
	} else {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	c.updatedAt = now
	return nil
}

// Delete 数量に関わらず行を削除する
func (c *Cart) Delete(id, restaurantName string, now time.Time) error {
	i := c.indexOf(id, restaurantName)
	if i < 0 {
		return ErrItemNotFound
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.updatedAt = now
	return nil
}

// Quantity 指定行の数量（無ければ0）
func (c *Cart) Quantity(id, restaurantName string) int64 {
	if i := c.indexOf(id, restaurantName); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

// Count 数量の合計
func (c *Cart) Count() int64 {
	var n int64
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// Total 価格×数量の合計
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Clear 全ての行を削除
func (c *Cart) Clear(now time.Time) {
	c.items = []Item{}
	c.updatedAt = now
}

// ReminderDelay 最終更新から delay 後に送る放置通知までの残り時間
// カートが空、または既に期限を過ぎていれば false
func (c *Cart) ReminderDelay(now time.Time, delay time.Duration) (time.Duration, bool) {
	if c.IsEmpty() {
		return 0, false
	}
	remaining := delay - now.Sub(c.updatedAt)
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}
