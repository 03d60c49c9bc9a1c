package catalogfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"eco-rewards/internal/domain/catalog"
)

// document YAMLファイルの構造
// 省略されたセクションは標準カタログの値を使う
type document struct {
	Tiers             []catalog.Tier             `yaml:"tiers,omitempty"`
	Achievements      []catalog.Achievement      `yaml:"achievements,omitempty"`
	RedemptionOptions []catalog.RedemptionOption `yaml:"redemptionOptions,omitempty"`
	CreditValues      catalog.CreditValues       `yaml:"creditValues,omitempty"`
}

// Load パスが空なら標準カタログ、指定されていればファイルから読み込む
func Load(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Parse YAMLを検証済みのカタログに変換
func Parse(data []byte) (*catalog.Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", catalog.ErrInvalidCatalog, err)
	}

	if doc.Tiers == nil {
		doc.Tiers = catalog.DefaultTiers()
	}
	if doc.Achievements == nil {
		doc.Achievements = catalog.DefaultAchievements()
	}
	if doc.RedemptionOptions == nil {
		doc.RedemptionOptions = catalog.DefaultOptions()
	}
	if doc.CreditValues == nil {
		doc.CreditValues = catalog.DefaultCredits()
	}

	return catalog.NewCatalog(doc.Tiers, doc.Achievements, doc.RedemptionOptions, doc.CreditValues)
}

// Dump カタログをYAMLとして出力
func Dump(w io.Writer, cat *catalog.Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{
		Tiers:             cat.Tiers(),
		Achievements:      cat.Achievements(),
		RedemptionOptions: cat.Options(),
		CreditValues:      cat.Credits(),
	}); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}
