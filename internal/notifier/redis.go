package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier はユーザーごとのチャンネルへPUBLISHする。
// 購読側（リアルタイム配信）はこのサービスの外。
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(addr string) *RedisNotifier {
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (n *RedisNotifier) NotifyPayment(ctx context.Context, userID int64, ev PaymentEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.ErrorContext(ctx, "payment notify marshal failed", "error", err)
		return
	}

	channel := fmt.Sprintf("payments:user:%d", userID)
	if err := n.client.Publish(ctx, channel, payload).Err(); err != nil {
		//通知はベストエフォート。ログだけ残して続行
		slog.ErrorContext(ctx, "payment notify publish failed",
			"channel", channel, "order_id", ev.OrderID, "error", err)
	}
}
