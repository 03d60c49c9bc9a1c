package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eco-rewards/internal/domain/ledger"
)

// LedgerRepository bbolt実装のLedgerRepository
type LedgerRepository struct {
	store  *Store
	tracer trace.Tracer
}

// NewLedgerRepository 新しいLedgerRepositoryを作成
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{
		store:  store,
		tracer: otel.Tracer("ledger-repository"),
	}
}

// FindByUserID ユーザーIDで台帳を取得
func (r *LedgerRepository) FindByUserID(ctx context.Context, userID string) (*ledger.CreditLedger, error) {
	_, span := r.tracer.Start(ctx, "LedgerRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "bbolt"),
		attribute.String("db.user_id", userID),
		attribute.String("db.bucket", string(bucketLedgers)),
	)

	data, err := r.store.get(bucketLedgers, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find ledger: %w", err)
	}
	if data == nil {
		span.SetStatus(otelcodes.Ok, "ledger not found")
		return nil, ledger.ErrLedgerNotFound
	}

	l, err := ledger.Decode(userID, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to decode ledger: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "ledger found")
	return l, nil
}

// Save 台帳を保存
func (r *LedgerRepository) Save(ctx context.Context, l *ledger.CreditLedger) error {
	_, span := r.tracer.Start(ctx, "LedgerRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "bbolt"),
		attribute.String("db.user_id", l.UserID()),
		attribute.String("db.bucket", string(bucketLedgers)),
	)

	data, err := json.Marshal(l)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := r.store.put(bucketLedgers, l.UserID(), data); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save ledger: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "ledger saved")
	return nil
}

// Delete 台帳を削除
func (r *LedgerRepository) Delete(ctx context.Context, userID string) error {
	_, span := r.tracer.Start(ctx, "LedgerRepository.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "bbolt"),
		attribute.String("db.user_id", userID),
	)

	if err := r.store.delete(bucketLedgers, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to delete ledger: %w", err)
	}
	span.SetStatus(otelcodes.Ok, "ledger deleted")
	return nil
}
