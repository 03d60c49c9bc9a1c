package trip

import "errors"

var (
	// ErrInvalidMode 不正な移動手段
	ErrInvalidMode = errors.New("invalid travel mode")
	// ErrTripNotFound トリップが見つからないエラー
	ErrTripNotFound = errors.New("trip not found")
	// ErrTripEnded 終了済みのトリップ
	ErrTripEnded = errors.New("trip already ended")
	// ErrVerifierUnavailable 検証サービスが利用できない
	ErrVerifierUnavailable = errors.New("trip verifier unavailable")
)
