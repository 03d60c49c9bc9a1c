package catalogfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eco-rewards/internal/domain/catalog"
)

func TestLoad(t *testing.T) {
	t.Run("正常系: パス未指定は標準カタログ", func(t *testing.T) {
		cat, err := Load("")
		require.NoError(t, err)
		assert.Len(t, cat.Tiers(), 4)
		assert.Len(t, cat.Achievements(), 10)
		assert.Len(t, cat.Options(), 6)
	})

	t.Run("異常系: ファイルが存在しない", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("正常系: ファイルから読み込む", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
redemptionOptions:
  - id: coffee
    name: Free Coffee
    cost: 50
    type: special
    minTier: bronze
creditValues:
  ECO_TRIP_VERIFIED: 30
  FIRST_ECO_PROOF: 60
`), 0o600))

		cat, err := Load(path)
		require.NoError(t, err)
		require.Len(t, cat.Options(), 1)
		assert.Equal(t, "coffee", cat.Options()[0].ID)
		assert.Equal(t, int64(30), cat.CreditValue(catalog.CreditEcoTripVerified))
		assert.Equal(t, int64(0), cat.CreditValue(catalog.CreditBikeDelivery))
		// 省略したセクションは標準値
		assert.Len(t, cat.Tiers(), 4)
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "異常系: 未知のキー",
			data: "tierz: []\n",
		},
		{
			name: "異常系: ティアに隙間がある",
			data: `
tiers:
  - id: bronze
    minCredits: 0
    maxCredits: 99
    nextTier: silver
  - id: silver
    minCredits: 150
`,
		},
		{
			name: "異常系: 交換オプションの最低ティアが存在しない",
			data: `
redemptionOptions:
  - id: x
    cost: 10
    minTier: diamond
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
		})
	}
}

func TestDumpThenParse(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, catalog.Default()))
	assert.Contains(t, buf.String(), "unlockCriteria:")
	assert.Contains(t, buf.String(), "ECO_TRIP_VERIFIED: 25")

	cat, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, catalog.Default().Tiers(), cat.Tiers())
	assert.Equal(t, catalog.Default().Achievements(), cat.Achievements())
	assert.Equal(t, catalog.Default().Credits(), cat.Credits())
}
