package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 付与クレジット量
	CreditsAwarded metric.Int64Counter

	// 交換で消費したクレジット量
	CreditsRedeemed metric.Int64Counter

	// 実績解除数
	AchievementsUnlocked metric.Int64Counter

	// CO2削減量 (g)
	CO2Saved metric.Float64Counter

	// 位置情報の判定結果
	TripFixes metric.Int64Counter

	// 永続化の失敗数
	PersistenceErrors metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	creditsAwarded, err := meter.Int64Counter(
		"credits_awarded_total",
		metric.WithDescription("Total number of credits awarded"),
	)
	if err != nil {
		return nil, err
	}

	creditsRedeemed, err := meter.Int64Counter(
		"credits_redeemed_total",
		metric.WithDescription("Total number of credits spent on redemptions"),
	)
	if err != nil {
		return nil, err
	}

	achievementsUnlocked, err := meter.Int64Counter(
		"achievements_unlocked_total",
		metric.WithDescription("Total number of achievements unlocked"),
	)
	if err != nil {
		return nil, err
	}

	co2Saved, err := meter.Float64Counter(
		"co2_saved_grams_total",
		metric.WithDescription("Total grams of CO2 saved"),
		metric.WithUnit("g"),
	)
	if err != nil {
		return nil, err
	}

	tripFixes, err := meter.Int64Counter(
		"trip_fixes_total",
		metric.WithDescription("Total number of location fixes by result"),
	)
	if err != nil {
		return nil, err
	}

	persistenceErrors, err := meter.Int64Counter(
		"persistence_errors_total",
		metric.WithDescription("Total number of failed ledger or cart saves"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		CreditsAwarded:       creditsAwarded,
		CreditsRedeemed:      creditsRedeemed,
		AchievementsUnlocked: achievementsUnlocked,
		CO2Saved:             co2Saved,
		TripFixes:            tripFixes,
		PersistenceErrors:    persistenceErrors,
		RequestCount:         requestCount,
		ResponseTime:         responseTime,
		ErrorCount:           errorCount,
	}, nil
}

// RecordCreditsAwarded クレジット付与を記録
func (m *Metrics) RecordCreditsAwarded(ctx context.Context, reason string, amount int64) {
	m.CreditsAwarded.Add(ctx, amount,
		metric.WithAttributes(
			attribute.String("reason", reason),
		),
	)
}

// RecordCreditsRedeemed 交換を記録
func (m *Metrics) RecordCreditsRedeemed(ctx context.Context, optionID string, cost int64) {
	m.CreditsRedeemed.Add(ctx, cost,
		metric.WithAttributes(
			attribute.String("option_id", optionID),
		),
	)
}

// RecordAchievementUnlocked 実績解除を記録
func (m *Metrics) RecordAchievementUnlocked(ctx context.Context, achievementID string) {
	m.AchievementsUnlocked.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("achievement_id", achievementID),
		),
	)
}

// RecordCO2Saved CO2削減量を記録
func (m *Metrics) RecordCO2Saved(ctx context.Context, source string, grams float64) {
	m.CO2Saved.Add(ctx, grams,
		metric.WithAttributes(
			attribute.String("source", source),
		),
	)
}

// RecordTripFix 位置情報の判定結果を記録
func (m *Metrics) RecordTripFix(ctx context.Context, result string) {
	m.TripFixes.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("result", result),
		),
	)
}

// RecordPersistenceError 永続化の失敗を記録
func (m *Metrics) RecordPersistenceError(ctx context.Context, store string) {
	m.PersistenceErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("store", store),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
