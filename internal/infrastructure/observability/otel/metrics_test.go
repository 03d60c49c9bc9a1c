package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collectSums 手動リーダーで収集した Sum を名前ごとに合計する
func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]float64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]float64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += float64(dp.Value)
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	return sums
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordCreditsAwarded(ctx, "eco_trip", 25)
	metrics.RecordCreditsAwarded(ctx, "achievement", 50)
	metrics.RecordCreditsRedeemed(ctx, "discount_1", 100)
	metrics.RecordAchievementUnlocked(ctx, "first_eco_trip")
	metrics.RecordCO2Saved(ctx, "trip", 171)
	metrics.RecordTripFix(ctx, "accepted")
	metrics.RecordTripFix(ctx, "rejected_jitter")
	metrics.RecordPersistenceError(ctx, "ledger")
	metrics.RecordRequest(ctx, "GET", "/api/v1/me/rewards")
	metrics.RecordResponseTime(ctx, "GET", "/api/v1/me/rewards", 0.05)
	metrics.RecordError(ctx, "redeem_failed")

	sums := collectSums(t, reader)
	assert.Equal(t, float64(75), sums["credits_awarded_total"])
	assert.Equal(t, float64(100), sums["credits_redeemed_total"])
	assert.Equal(t, float64(1), sums["achievements_unlocked_total"])
	assert.Equal(t, float64(171), sums["co2_saved_grams_total"])
	assert.Equal(t, float64(2), sums["trip_fixes_total"])
	assert.Equal(t, float64(1), sums["persistence_errors_total"])
	assert.Equal(t, float64(1), sums["requests_total"])
	assert.Equal(t, float64(1), sums["errors_total"])
}
