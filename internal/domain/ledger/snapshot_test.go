package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eco-rewards/internal/domain/catalog"
)

func TestCreditLedger_MarshalAndDecode(t *testing.T) {
	cat := catalog.Default()
	option, _ := cat.OptionByID("free_delivery")

	l := newTestLedger(t)
	l.AwardCredits(200, "seed", map[string]interface{}{"type": "eco_trip"})
	l.UpdateStats(StatsUpdate{EcoTrips: Int64(1), UniqueLocalChefs: []string{"chef-a"}})
	require.NoError(t, l.AddCO2Savings(342.5))
	l.CheckAchievements(cat)
	r, err := l.Redeem(option)
	require.NoError(t, err)
	l.UseRedemption(r.ID)

	data, err := json.Marshal(l)
	require.NoError(t, err)

	restored, err := Decode("user123", data)
	require.NoError(t, err)

	assert.Equal(t, l.TotalCredits(), restored.TotalCredits())
	assert.Equal(t, l.LifetimeCredits(), restored.LifetimeCredits())
	assert.Equal(t, l.CO2SavedGrams(), restored.CO2SavedGrams())
	assert.Equal(t, l.Achievements(), restored.Achievements())
	assert.Equal(t, l.Redemptions(), restored.Redemptions())
	assert.Equal(t, l.Stats().UniqueLocalChefs, restored.Stats().UniqueLocalChefs)
	assert.Equal(t, l.Stats().EcoTrips, restored.Stats().EcoTrips)
	assert.True(t, l.UpdatedAt().Equal(restored.UpdatedAt()))
	require.Len(t, restored.EarningHistory(), len(l.EarningHistory()))
	assert.Equal(t, l.EarningHistory()[0].Reason, restored.EarningHistory()[0].Reason)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantError error
		check     func(t *testing.T, l *CreditLedger)
	}{
		{
			name:      "異常系: トップレベルが配列",
			data:      `[1,2,3]`,
			wantError: ErrCorruptLedger,
		},
		{
			name:      "異常系: トップレベルがnull",
			data:      `null`,
			wantError: ErrCorruptLedger,
		},
		{
			name:      "異常系: JSONとして不正",
			data:      `{"totalCredits":`,
			wantError: ErrCorruptLedger,
		},
		{
			name: "正常系: 型が不正なフィールドは初期値",
			data: `{"totalCredits":"abc","lifetimeCredits":50,"co2SavedGrams":-3,"achievements":"x","redemptions":{},"stats":{"ecoTrips":3,"uniqueLocalChefs":"bad"}}`,
			check: func(t *testing.T, l *CreditLedger) {
				assert.Equal(t, int64(0), l.TotalCredits())
				assert.Equal(t, int64(50), l.LifetimeCredits())
				assert.Equal(t, float64(0), l.CO2SavedGrams())
				assert.Empty(t, l.Achievements())
				assert.Empty(t, l.Redemptions())
				assert.Equal(t, int64(3), l.Stats().EcoTrips)
				assert.Empty(t, l.Stats().UniqueLocalChefs)
				assert.Empty(t, l.EarningHistory())
			},
		},
		{
			name: "正常系: 実績IDの重複を除去",
			data: `{"achievements":["eco_warrior","eco_warrior",7,"first_eco_trip"]}`,
			check: func(t *testing.T, l *CreditLedger) {
				assert.Equal(t, []string{"eco_warrior", "first_eco_trip"}, l.Achievements())
			},
		},
		{
			name: "正常系: 獲得履歴のメタデータを再フィルタ",
			data: `{"earningHistory":[{"id":"e1","amount":5,"reason":"r","timestamp":"2026-01-09T12:00:00Z","metadata":{"ok":"yes","bad":{"x":1}}},"garbage"]}`,
			check: func(t *testing.T, l *CreditLedger) {
				history := l.EarningHistory()
				require.Len(t, history, 1)
				assert.Equal(t, map[string]interface{}{"ok": "yes"}, history[0].Metadata)
			},
		},
		{
			name: "正常系: 空オブジェクト",
			data: `{}`,
			check: func(t *testing.T, l *CreditLedger) {
				assert.Equal(t, "user123", l.UserID())
				assert.Equal(t, int64(0), l.TotalCredits())
				assert.NotNil(t, l.Stats().UniqueLocalChefs)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Decode("user123", []byte(tt.data))
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, l)
				return
			}
			require.NoError(t, err)
			tt.check(t, l)
		})
	}
}
