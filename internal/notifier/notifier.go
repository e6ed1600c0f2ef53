package notifier

import "context"

// 支払い状態の変化をユーザーへ通知するイベント。
type PaymentEvent struct {
	OrderID       int64  `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
}

// Notifier はベストエフォートの通知口。
// 失敗しても呼び出し元の処理は失敗させない（errorを返さない）。
type Notifier interface {
	NotifyPayment(ctx context.Context, userID int64, ev PaymentEvent)
}

// 通知先が設定されていないときに使う
type Noop struct{}

func (Noop) NotifyPayment(ctx context.Context, userID int64, ev PaymentEvent) {}
