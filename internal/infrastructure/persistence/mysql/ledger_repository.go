package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eco-rewards/internal/domain/ledger"
)

// LedgerRepository MySQL実装のLedgerRepository
// 台帳全体を1行のJSONとして保存する
type LedgerRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewLedgerRepository 新しいLedgerRepositoryを作成
func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{
		db:     db,
		tracer: otel.Tracer("ledger-repository"),
	}
}

// FindByUserID ユーザーIDで台帳を取得
func (r *LedgerRepository) FindByUserID(ctx context.Context, userID string) (*ledger.CreditLedger, error) {
	ctx, span := r.tracer.Start(ctx, "LedgerRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "reward_ledgers"),
	)

	query := `
		SELECT data
		FROM reward_ledgers
		WHERE user_id = ?
	`

	var data []byte
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "ledger not found")
		return nil, ledger.ErrLedgerNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find ledger: %w", err)
	}

	l, err := ledger.Decode(userID, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to decode ledger: %w", err)
	}

	span.SetAttributes(attribute.Int("db.blob_size", len(data)))
	span.SetStatus(otelcodes.Ok, "ledger found")
	return l, nil
}

// Save 台帳を保存（存在しなければ作成、あれば上書き）
func (r *LedgerRepository) Save(ctx context.Context, l *ledger.CreditLedger) error {
	ctx, span := r.tracer.Start(ctx, "LedgerRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", l.UserID()),
		attribute.Int64("db.total_credits", l.TotalCredits()),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "reward_ledgers"),
	)

	data, err := json.Marshal(l)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	query := `
		INSERT INTO reward_ledgers (user_id, data, updated_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			data = VALUES(data),
			updated_at = VALUES(updated_at)
	`

	if _, err := r.db.ExecContext(ctx, query, l.UserID(), data, l.UpdatedAt().UTC()); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save ledger: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "ledger saved")
	return nil
}

// Delete 台帳を削除（存在しなくてもエラーにしない）
func (r *LedgerRepository) Delete(ctx context.Context, userID string) error {
	ctx, span := r.tracer.Start(ctx, "LedgerRepository.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.table", "reward_ledgers"),
	)

	query := `DELETE FROM reward_ledgers WHERE user_id = ?`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to delete ledger: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", rows))
	}
	span.SetStatus(otelcodes.Ok, "ledger deleted")
	return nil
}
