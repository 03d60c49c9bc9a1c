package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 9, 12, 0, 0, 0, time.UTC)

func TestCart_AddAndRemove(t *testing.T) {
	drums := Item{ID: "f1", Name: "Jerk Drums", Price: 10}
	bowl := Item{ID: "f2", Name: "Veggie Bowl", Price: 8.5}

	t.Run("正常系: 同じ行は数量を増やす", func(t *testing.T) {
		c := MustNewCart("user123")
		require.NoError(t, c.Add(drums, "Mama's Kitchen", now))
		require.NoError(t, c.Add(drums, "Mama's Kitchen", now))
		require.NoError(t, c.Add(bowl, "Mama's Kitchen", now))

		assert.Len(t, c.Items(), 2)
		assert.Equal(t, int64(2), c.Quantity("f1", "Mama's Kitchen"))
		assert.Equal(t, int64(3), c.Count())
		assert.InDelta(t, 28.5, c.Total(), 1e-9)
		assert.Equal(t, now, c.UpdatedAt())
	})

	t.Run("正常系: レストランが違えば別の行", func(t *testing.T) {
		c := MustNewCart("user123")
		require.NoError(t, c.Add(drums, "A", now))
		require.NoError(t, c.Add(drums, "B", now))

		assert.Len(t, c.Items(), 2)
		assert.Equal(t, int64(1), c.Quantity("f1", "A"))
		assert.Equal(t, int64(1), c.Quantity("f1", "B"))
	})

	t.Run("正常系: 数量1の行を減らすと削除", func(t *testing.T) {
		c := MustNewCart("user123")
		require.NoError(t, c.Add(drums, "A", now))
		require.NoError(t, c.Add(drums, "A", now))

		require.NoError(t, c.Remove("f1", "A", now))
		assert.Equal(t, int64(1), c.Quantity("f1", "A"))

		require.NoError(t, c.Remove("f1", "A", now))
		assert.True(t, c.IsEmpty())
		assert.Equal(t, int64(0), c.Quantity("f1", "A"))
	})

	t.Run("異常系: 存在しない行", func(t *testing.T) {
		c := MustNewCart("user123")
		assert.ErrorIs(t, c.Remove("f1", "A", now), ErrItemNotFound)
		assert.ErrorIs(t, c.Delete("f1", "A", now), ErrItemNotFound)
	})

	t.Run("異常系: 商品IDなし", func(t *testing.T) {
		c := MustNewCart("user123")
		assert.ErrorIs(t, c.Add(Item{Name: "x"}, "A", now), ErrInvalidItem)
	})
}

func TestCart_DeleteAndClear(t *testing.T) {
	c := MustNewCart("user123")
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Add(Item{ID: "f1", Price: 10}, "A", now))
	}
	require.NoError(t, c.Add(Item{ID: "f2", Price: 9}, "A", now))

	require.NoError(t, c.Delete("f1", "A", now))
	assert.Equal(t, int64(1), c.Count())

	c.Clear(now)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, float64(0), c.Total())
}

func TestCart_ReminderDelay(t *testing.T) {
	tests := []struct {
		name    string
		items   []Item
		elapsed time.Duration
		want    time.Duration
		wantOK  bool
	}{
		{name: "正常系: 更新直後", items: []Item{{ID: "f1", Quantity: 1}}, elapsed: 0, want: 15 * time.Minute, wantOK: true},
		{name: "正常系: 残り5分", items: []Item{{ID: "f1", Quantity: 1}}, elapsed: 10 * time.Minute, want: 5 * time.Minute, wantOK: true},
		{name: "正常系: 期限切れ", items: []Item{{ID: "f1", Quantity: 1}}, elapsed: 20 * time.Minute, wantOK: false},
		{name: "正常系: 空のカート", items: nil, elapsed: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Restore("user123", tt.items, now)
			require.NoError(t, err)

			got, ok := c.ReminderDelay(now.Add(tt.elapsed), AbandonedReminderDelay)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRestore(t *testing.T) {
	t.Run("正常系: 数量0の行は捨てる", func(t *testing.T) {
		c, err := Restore("user123", []Item{{ID: "f1", Quantity: 0}, {ID: "f2", Quantity: 2}}, now)
		require.NoError(t, err)
		assert.Equal(t, int64(2), c.Count())
	})

	t.Run("異常系: 不正なユーザーID", func(t *testing.T) {
		_, err := Restore("", nil, now)
		assert.ErrorIs(t, err, ErrInvalidUserID)
	})
}
