package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eco-rewards/internal/domain/cart"
)

// cartRecord バケットに保存するカートの形式
type cartRecord struct {
	Items     []cart.Item `json:"items"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// CartRepository bbolt実装のCartRepository
type CartRepository struct {
	store  *Store
	tracer trace.Tracer
}

// NewCartRepository 新しいCartRepositoryを作成
func NewCartRepository(store *Store) *CartRepository {
	return &CartRepository{
		store:  store,
		tracer: otel.Tracer("cart-repository"),
	}
}

// FindByUserID ユーザーIDでカートを取得
func (r *CartRepository) FindByUserID(ctx context.Context, userID string) (*cart.Cart, error) {
	_, span := r.tracer.Start(ctx, "CartRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "bbolt"),
		attribute.String("db.user_id", userID),
		attribute.String("db.bucket", string(bucketCarts)),
	)

	data, err := r.store.get(bucketCarts, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	if data == nil {
		span.SetStatus(otelcodes.Ok, "cart not found")
		return nil, cart.ErrCartNotFound
	}

	var rec cartRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		span.RecordError(err)
		rec = cartRecord{}
	}

	c, err := cart.Restore(userID, rec.Items, rec.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to reconstruct cart entity: %w", err)
	}
	span.SetStatus(otelcodes.Ok, "cart found")
	return c, nil
}

// Save カートを保存
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	_, span := r.tracer.Start(ctx, "CartRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "bbolt"),
		attribute.String("db.user_id", c.UserID()),
	)

	data, err := json.Marshal(cartRecord{Items: c.Items(), UpdatedAt: c.UpdatedAt()})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := r.store.put(bucketCarts, c.UserID(), data); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save cart: %w", err)
	}
	span.SetStatus(otelcodes.Ok, "cart saved")
	return nil
}

// Delete カートを削除
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	_, span := r.tracer.Start(ctx, "CartRepository.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "bbolt"),
		attribute.String("db.user_id", userID),
	)

	if err := r.store.delete(bucketCarts, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	span.SetStatus(otelcodes.Ok, "cart deleted")
	return nil
}
