package catalog

import "errors"

var (
	// ErrTierNotFound ティアが見つからないエラー
	ErrTierNotFound = errors.New("tier not found")
	// ErrAchievementNotFound 実績が見つからないエラー
	ErrAchievementNotFound = errors.New("achievement not found")
	// ErrOptionNotFound 交換オプションが見つからないエラー
	ErrOptionNotFound = errors.New("redemption option not found")
	// ErrInvalidCatalog カタログ定義が不正
	ErrInvalidCatalog = errors.New("invalid catalog")
)
