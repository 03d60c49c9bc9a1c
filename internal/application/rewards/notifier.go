package rewards

import "context"

// イベント種別
const (
	EventAchievementUnlocked = "achievement.unlocked"
	EventTierChanged         = "tier.changed"
)

// Notifier ユーザーへのリアルタイム通知
type Notifier interface {
	Publish(ctx context.Context, userID, eventType string, data interface{})
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, string, string, interface{}) {}
