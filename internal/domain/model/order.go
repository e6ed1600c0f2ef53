package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
)

// 旧データの"Order Placed"はPENDINGと同じ扱い
const legacyOrderPlaced = "Order Placed"

// NormalizeOrderStatus は入力文字列を正規のステータスへ変換する。
// 不明な値は ok=false。
func NormalizeOrderStatus(s string) (OrderStatus, bool) {
	if s == legacyOrderPlaced || s == "pending" {
		return OrderStatusPending, true
	}
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled:
		return OrderStatus(s), true
	}
	return "", false
}

// 終端状態（DELIVERED / CANCELED）からの遷移はない
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCanceled   PaymentStatus = "CANCELED"
)

type PaymentMethod string

const (
	PaymentMethodCOD           PaymentMethod = "COD"
	PaymentMethodUPI           PaymentMethod = "UPI"
	PaymentMethodOnline        PaymentMethod = "ONLINE"
	PaymentMethodHostedGateway PaymentMethod = "HOSTED_GATEWAY"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodUPI, PaymentMethodOnline, PaymentMethodHostedGateway:
		return true
	}
	return false
}

type RefundStatus string

const (
	RefundStatusNotApplicable RefundStatus = "NOT_APPLICABLE"
	RefundStatusPending       RefundStatus = "PENDING"
	RefundStatusProcessing    RefundStatus = "PROCESSING"
	RefundStatusCompleted     RefundStatus = "COMPLETED"
)

// 返金は前進のみ（PENDING→PROCESSING→COMPLETED）
var refundRank = map[RefundStatus]int{
	RefundStatusPending:    1,
	RefundStatusProcessing: 2,
	RefundStatusCompleted:  3,
}

func (s RefundStatus) Rank() (int, bool) {
	r, ok := refundRank[s]
	return r, ok
}

// 配送先住所（注文時のスナップショット、変更不可）
type ShippingAddress struct {
	FullName string `gorm:"type:varchar(255);not null" json:"full_name"`
	Line1    string `gorm:"type:varchar(255);not null" json:"line1"`
	City     string `gorm:"type:varchar(255);not null" json:"city"`
	State    string `gorm:"type:varchar(100);not null" json:"state"`
	Pincode  string `gorm:"type:varchar(20);not null" json:"pincode"`
	Phone    string `gorm:"type:varchar(30);not null" json:"phone"`
}

// 注文。注文・支払い・返金の3つの状態軸を持つ。
type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`

	//金額は最小単位のint64。TotalPriceは実際に請求する額（商品小計+送料+税）
	TotalPrice    int64 `gorm:"not null" json:"total_price"`
	ShippingPrice int64 `gorm:"not null" json:"shipping_price"`
	TaxPrice      int64 `gorm:"not null" json:"tax_price"`

	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`

	OrderStatus   OrderStatus   `gorm:"type:varchar(20);not null;index" json:"order_status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`

	RefundStatus        RefundStatus `gorm:"type:varchar(20);not null;default:'NOT_APPLICABLE'" json:"refund_status"`
	RefundAmount        int64        `gorm:"not null;default:0" json:"refund_amount"`
	RefundTransactionID string       `gorm:"type:varchar(255)" json:"refund_transaction_id"`
	RefundNotes         string       `gorm:"type:text" json:"refund_notes"`
	RefundCompletedAt   *time.Time   `json:"refund_completed_at"`

	//管理者が割り当てた配達担当。未割り当てはnull
	DeliveryAgentID *int64 `gorm:"index" json:"delivery_agent_id"`

	//外部決済ゲートウェイとの対応付け。セッション作成時に一度だけ設定
	GatewaySessionRef     string `gorm:"type:varchar(255)" json:"gateway_session_ref"`
	GatewayOrderRef       string `gorm:"type:varchar(255);index" json:"gateway_order_ref"`
	GatewayTransactionRef string `gorm:"type:varchar(255)" json:"gateway_transaction_ref"`

	CancellationReason string     `gorm:"type:text" json:"cancellation_reason"`
	CanceledAt         *time.Time `json:"canceled_at"`
	FailureReason      string     `gorm:"type:text" json:"failure_reason"`
	PaidAt             *time.Time `json:"paid_at"`

	//楽観ロック用
	Version int64 `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
