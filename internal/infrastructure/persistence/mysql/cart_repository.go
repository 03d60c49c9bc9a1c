package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eco-rewards/internal/domain/cart"
)

// CartRepository MySQL実装のCartRepository
type CartRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewCartRepository 新しいCartRepositoryを作成
func NewCartRepository(db *DB) *CartRepository {
	return &CartRepository{
		db:     db,
		tracer: otel.Tracer("cart-repository"),
	}
}

// FindByUserID ユーザーIDでカートを取得
func (r *CartRepository) FindByUserID(ctx context.Context, userID string) (*cart.Cart, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "carts"),
	)

	query := `
		SELECT items, updated_at
		FROM carts
		WHERE user_id = ?
	`

	var data []byte
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "cart not found")
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	var items []cart.Item
	if err := json.Unmarshal(data, &items); err != nil {
		// 読めない行は空のカートとして扱う
		span.RecordError(err)
		items = nil
	}

	c, err := cart.Restore(userID, items, updatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to reconstruct cart entity: %w", err)
	}

	span.SetAttributes(attribute.Int("db.items", len(items)))
	span.SetStatus(otelcodes.Ok, "cart found")
	return c, nil
}

// Save カートを保存
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", c.UserID()),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "carts"),
	)

	data, err := json.Marshal(c.Items())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	query := `
		INSERT INTO carts (user_id, items, updated_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			items = VALUES(items),
			updated_at = VALUES(updated_at)
	`

	if _, err := r.db.ExecContext(ctx, query, c.UserID(), data, c.UpdatedAt().UTC()); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save cart: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "cart saved")
	return nil
}

// Delete カートを削除
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.table", "carts"),
	)

	if _, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = ?`, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "cart deleted")
	return nil
}
