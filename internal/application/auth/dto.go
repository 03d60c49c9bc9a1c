package auth

import "time"

// IssueTokenRequest トークン発行リクエスト
type IssueTokenRequest struct {
	UserID string
	TTL    time.Duration // 0以下なら設定の有効期限
}

// IssueTokenResponse トークン発行レスポンス
type IssueTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"` // 秒単位
	TokenType string    `json:"token_type"` // "Bearer"
}
