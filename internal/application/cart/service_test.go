package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/goleak"

	"eco-rewards/internal/domain/cart"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockCartRepository モックカートリポジトリ
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByUserID(ctx context.Context, userID string) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// recordingNotifier 送信されたイベントを記録する
type recordingNotifier struct {
	mu     sync.Mutex
	events []Reminder
}

func (n *recordingNotifier) Publish(_ context.Context, _ string, eventType string, data interface{}) {
	if eventType != EventCartAbandoned {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, data.(Reminder))
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func (n *recordingNotifier) last() Reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[len(n.events)-1]
}

func newTestService(t *testing.T, repo *MockCartRepository, notifier Notifier, delay time.Duration) *CartApplicationService {
	t.Helper()

	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)
	svc := NewCartApplicationService(repo, notifier, delay, otelinfra.NewLogger(otel.Tracer("test")), metrics)
	t.Cleanup(svc.Close)
	return svc
}

func emptyRepo() *MockCartRepository {
	repo := new(MockCartRepository)
	repo.On("FindByUserID", mock.Anything, "user-1").Return(nil, cart.ErrCartNotFound)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	return repo
}

var (
	salad = cart.Item{ID: "f1", Name: "Green Salad", Price: 8.5}
	soup  = cart.Item{ID: "f2", Name: "Lentil Soup", Price: 6}
)

func TestCartApplicationService_Mutations(t *testing.T) {
	svc := newTestService(t, emptyRepo(), &recordingNotifier{}, time.Hour)
	ctx := context.Background()

	t.Run("正常系: 同じ商品は数量を増やす", func(t *testing.T) {
		_, err := svc.Add(ctx, &AddItemRequest{UserID: "user-1", RestaurantName: "Chef Anna", Item: salad})
		require.NoError(t, err)
		got, err := svc.Add(ctx, &AddItemRequest{UserID: "user-1", RestaurantName: "Chef Anna", Item: salad})
		require.NoError(t, err)

		require.Len(t, got.Items, 1)
		assert.Equal(t, int64(2), got.Items[0].Quantity)
		assert.Equal(t, int64(2), got.Count)
		assert.InDelta(t, 17.0, got.Total, 1e-9)
	})

	t.Run("正常系: 店が違えば別の行", func(t *testing.T) {
		got, err := svc.Add(ctx, &AddItemRequest{UserID: "user-1", RestaurantName: "Chef Ben", Item: salad})
		require.NoError(t, err)
		assert.Len(t, got.Items, 2)
		assert.Equal(t, int64(3), got.Count)
	})

	t.Run("正常系: 数量を減らす", func(t *testing.T) {
		got, err := svc.Remove(ctx, &ItemRequest{UserID: "user-1", ItemID: "f1", RestaurantName: "Chef Anna"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Count)
	})

	t.Run("正常系: 数量1なら行を削除", func(t *testing.T) {
		got, err := svc.Remove(ctx, &ItemRequest{UserID: "user-1", ItemID: "f1", RestaurantName: "Chef Ben"})
		require.NoError(t, err)
		assert.Len(t, got.Items, 1)
	})

	t.Run("正常系: 行を削除", func(t *testing.T) {
		got, err := svc.Delete(ctx, &ItemRequest{UserID: "user-1", ItemID: "f1", RestaurantName: "Chef Anna"})
		require.NoError(t, err)
		assert.Empty(t, got.Items)
	})

	t.Run("異常系: 存在しない行", func(t *testing.T) {
		_, err := svc.Remove(ctx, &ItemRequest{UserID: "user-1", ItemID: "nope", RestaurantName: "Chef Anna"})
		assert.ErrorIs(t, err, cart.ErrItemNotFound)
	})

	t.Run("異常系: 不正な商品", func(t *testing.T) {
		_, err := svc.Add(ctx, &AddItemRequest{UserID: "user-1", Item: cart.Item{ID: "", Price: 1}})
		assert.ErrorIs(t, err, cart.ErrInvalidItem)
	})

	t.Run("異常系: 無効なユーザーID", func(t *testing.T) {
		_, err := svc.Get(ctx, "")
		assert.ErrorIs(t, err, cart.ErrInvalidUserID)
	})
}

func TestCartApplicationService_Load(t *testing.T) {
	t.Run("正常系: 保存済みのカートを読み込む", func(t *testing.T) {
		stored, err := cart.Restore("user-1", []cart.Item{{ID: "f2", Name: "Lentil Soup", Price: 6, Quantity: 3}}, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		repo := new(MockCartRepository)
		repo.On("FindByUserID", mock.Anything, "user-1").Return(stored, nil).Once()
		svc := newTestService(t, repo, &recordingNotifier{}, time.Hour)

		got, err := svc.Get(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Count)
		assert.InDelta(t, 18.0, got.Total, 1e-9)
	})

	t.Run("異常系: 読み込みエラー", func(t *testing.T) {
		repo := new(MockCartRepository)
		repo.On("FindByUserID", mock.Anything, "user-1").Return(nil, errors.New("connection refused"))
		svc := newTestService(t, repo, &recordingNotifier{}, time.Hour)

		_, err := svc.Get(context.Background(), "user-1")
		assert.Error(t, err)
	})

	t.Run("正常系: 保存失敗でも結果を返す", func(t *testing.T) {
		repo := new(MockCartRepository)
		repo.On("FindByUserID", mock.Anything, "user-1").Return(nil, cart.ErrCartNotFound)
		repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		svc := newTestService(t, repo, &recordingNotifier{}, time.Hour)

		got, err := svc.Add(context.Background(), &AddItemRequest{UserID: "user-1", RestaurantName: "Chef Anna", Item: soup})
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Count)
	})
}

func TestCartApplicationService_Reminder(t *testing.T) {
	const delay = 30 * time.Millisecond

	t.Run("正常系: 放置すると通知される", func(t *testing.T) {
		notifier := &recordingNotifier{}
		svc := newTestService(t, emptyRepo(), notifier, delay)
		ctx := context.Background()

		_, err := svc.Add(ctx, &AddItemRequest{UserID: "user-1", RestaurantName: "Chef Anna", Item: salad})
		require.NoError(t, err)
		_, err = svc.Add(ctx, &AddItemRequest{UserID: "user-1", RestaurantName: "Chef Anna", Item: soup})
		require.NoError(t, err)

		require.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 5*time.Millisecond)
		got := notifier.last()
		assert.Equal(t, "You have 2 delicious items waiting in your cart!", got.Body)
		assert.Equal(t, "abandoned_cart", got.Type)
		assert.Equal(t, int64(2), got.ItemCount)

		time.Sleep(3 * delay)
		assert.Equal(t, 1, notifier.count())
	})

	t.Run("正常系: 1品は単数形", func(t *testing.T) {
		notifier := &recordingNotifier{}
		svc := newTestService(t, emptyRepo(), notifier, delay)

		_, err := svc.Add(context.Background(), &AddItemRequest{UserID: "user-1", RestaurantName: "Chef Anna", Item: soup})
		require.NoError(t, err)

		require.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, "You have 1 delicious item waiting in your cart!", notifier.last().Body)
	})

	t.Run("正常系: 空にすると取り消される", func(t *testing.T) {
		notifier := &recordingNotifier{}
		svc := newTestService(t, emptyRepo(), notifier, delay)
		ctx := context.Background()

		_, err := svc.Add(ctx, &AddItemRequest{UserID: "user-1", RestaurantName: "Chef Anna", Item: salad})
		require.NoError(t, err)
		_, err = svc.Clear(ctx, "user-1")
		require.NoError(t, err)

		time.Sleep(3 * delay)
		assert.Equal(t, 0, notifier.count())
	})

	t.Run("正常系: 期限切れのカートは通知しない", func(t *testing.T) {
		stored, err := cart.Restore("user-1", []cart.Item{{ID: "f1", Quantity: 1, Price: 1}}, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		repo := new(MockCartRepository)
		repo.On("FindByUserID", mock.Anything, "user-1").Return(stored, nil)
		notifier := &recordingNotifier{}
		svc := newTestService(t, repo, notifier, delay)

		_, err = svc.Get(context.Background(), "user-1")
		require.NoError(t, err)

		time.Sleep(3 * delay)
		assert.Equal(t, 0, notifier.count())
	})

	t.Run("正常系: Close 後は通知しない", func(t *testing.T) {
		notifier := &recordingNotifier{}
		svc := newTestService(t, emptyRepo(), notifier, delay)

		_, err := svc.Add(context.Background(), &AddItemRequest{UserID: "user-1", RestaurantName: "Chef Anna", Item: salad})
		require.NoError(t, err)
		svc.Close()

		time.Sleep(3 * delay)
		assert.Equal(t, 0, notifier.count())
	})
}
