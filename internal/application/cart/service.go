package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eco-rewards/internal/domain/cart"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

// EventCartAbandoned カート放置通知のイベント種別
const EventCartAbandoned = "cart.abandoned"

// Notifier ユーザーへのリアルタイム通知
type Notifier interface {
	Publish(ctx context.Context, userID, eventType string, data interface{})
}

// session ユーザーごとのカートと放置通知タイマー
type session struct {
	mu         sync.Mutex
	cart       *cart.Cart
	timer      *time.Timer
	generation uint64
}

// CartApplicationService カートアプリケーションサービス
type CartApplicationService struct {
	cartRepo      cart.CartRepository
	notifier      Notifier
	reminderDelay time.Duration
	now           func() time.Time
	logger        *otelinfra.Logger
	metrics       *otelinfra.Metrics
	tracer        trace.Tracer

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

// NewCartApplicationService 新しいCartApplicationServiceを作成
func NewCartApplicationService(
	cartRepo cart.CartRepository,
	notifier Notifier,
	reminderDelay time.Duration,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *CartApplicationService {
	if reminderDelay <= 0 {
		reminderDelay = cart.AbandonedReminderDelay
	}
	return &CartApplicationService{
		cartRepo:      cartRepo,
		notifier:      notifier,
		reminderDelay: reminderDelay,
		now:           time.Now,
		logger:        logger,
		metrics:       metrics,
		tracer:        otel.Tracer("cart-service"),
		sessions:      make(map[string]*session),
	}
}

func (s *CartApplicationService) session(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
	}
	return sess
}

// withCart ユーザーのカートをロックした状態で fn を実行する
// mutate が true の場合は保存して放置通知を予約し直す
func (s *CartApplicationService) withCart(ctx context.Context, userID string, mutate bool, fn func(*cart.Cart) error) error {
	if _, err := cart.NewCart(userID); err != nil {
		return err
	}

	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.cart == nil {
		c, err := s.cartRepo.FindByUserID(ctx, userID)
		switch {
		case errors.Is(err, cart.ErrCartNotFound):
			c, err = cart.NewCart(userID)
			if err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("failed to load cart: %w", err)
		}
		sess.cart = c
		s.schedule(userID, sess)
	}

	if err := fn(sess.cart); err != nil {
		return err
	}
	if !mutate {
		return nil
	}

	if err := s.cartRepo.Save(ctx, sess.cart); err != nil {
		s.logger.Error(ctx, "Failed to save cart", err, map[string]interface{}{
			"user_id": userID,
		})
		s.metrics.RecordPersistenceError(ctx, "cart")
	}
	s.schedule(userID, sess)
	return nil
}

// schedule 既存の放置通知を取り消し、残り時間で予約し直す
// sess.mu を保持した状態で呼ぶ
func (s *CartApplicationService) schedule(userID string, sess *session) {
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
	sess.generation++

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	remaining, ok := sess.cart.ReminderDelay(s.now(), s.reminderDelay)
	if !ok {
		return
	}
	gen := sess.generation
	sess.timer = time.AfterFunc(remaining, func() {
		s.remind(userID, sess, gen)
	})
}

func (s *CartApplicationService) remind(userID string, sess *session, gen uint64) {
	sess.mu.Lock()
	if sess.generation != gen || sess.cart == nil || sess.cart.IsEmpty() {
		sess.mu.Unlock()
		return
	}
	sess.timer = nil
	count := sess.cart.Count()
	total := sess.cart.Total()
	sess.mu.Unlock()

	noun := "items"
	if count == 1 {
		noun = "item"
	}
	reminder := Reminder{
		Title:     "Complete Your Order",
		Body:      fmt.Sprintf("You have %d delicious %s waiting in your cart!", count, noun),
		Type:      "abandoned_cart",
		ItemCount: count,
		Total:     total,
	}

	ctx := context.Background()
	s.logger.Info(ctx, "Sending abandoned cart reminder", map[string]interface{}{
		"user_id":    userID,
		"item_count": count,
	})
	if s.notifier != nil {
		s.notifier.Publish(ctx, userID, EventCartAbandoned, reminder)
	}
}

func toResponse(c *cart.Cart) *CartResponse {
	return &CartResponse{
		UserID:    c.UserID(),
		Items:     c.Items(),
		Count:     c.Count(),
		Total:     c.Total(),
		UpdatedAt: c.UpdatedAt(),
	}
}

// Get カートの内容を取得
func (s *CartApplicationService) Get(ctx context.Context, userID string) (*CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartApplicationService.Get")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	var resp *CartResponse
	err := s.withCart(ctx, userID, false, func(c *cart.Cart) error {
		resp = toResponse(c)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

// Add 商品を1つ追加（同じ商品なら数量を増やす）
func (s *CartApplicationService) Add(ctx context.Context, req *AddItemRequest) (*CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartApplicationService.Add")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("item_id", req.Item.ID),
		attribute.String("restaurant_name", req.RestaurantName),
	)

	return s.mutate(ctx, span, req.UserID, func(c *cart.Cart) error {
		return c.Add(req.Item, req.RestaurantName, s.now())
	})
}

// Remove 数量を1つ減らす（1なら行を削除）
func (s *CartApplicationService) Remove(ctx context.Context, req *ItemRequest) (*CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartApplicationService.Remove")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("item_id", req.ItemID),
	)

	return s.mutate(ctx, span, req.UserID, func(c *cart.Cart) error {
		return c.Remove(req.ItemID, req.RestaurantName, s.now())
	})
}

// Delete 行を削除
func (s *CartApplicationService) Delete(ctx context.Context, req *ItemRequest) (*CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartApplicationService.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("item_id", req.ItemID),
	)

	return s.mutate(ctx, span, req.UserID, func(c *cart.Cart) error {
		return c.Delete(req.ItemID, req.RestaurantName, s.now())
	})
}

// Clear カートを空にし、放置通知を取り消す
func (s *CartApplicationService) Clear(ctx context.Context, userID string) (*CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartApplicationService.Clear")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	return s.mutate(ctx, span, userID, func(c *cart.Cart) error {
		c.Clear(s.now())
		return nil
	})
}

func (s *CartApplicationService) mutate(ctx context.Context, span trace.Span, userID string, fn func(*cart.Cart) error) (*CartResponse, error) {
	var resp *CartResponse
	err := s.withCart(ctx, userID, true, func(c *cart.Cart) error {
		if err := fn(c); err != nil {
			return err
		}
		resp = toResponse(c)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int64("cart.count", resp.Count))
	return resp, nil
}

// Close 予約済みの放置通知を全て取り消す
func (s *CartApplicationService) Close() {
	s.mu.Lock()
	s.closed = true
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		if sess.timer != nil {
			sess.timer.Stop()
			sess.timer = nil
		}
		sess.generation++
		sess.mu.Unlock()
	}
}
