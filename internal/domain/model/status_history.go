package model

import "time"

// 支払い完了は注文ステータスとは別の履歴行として残す
const HistoryPaymentCompleted = "PAYMENT_COMPLETED"

// ステータス履歴（追記のみ、更新・削除しない）。
// 「誰が」「いつ」「どのステータスへ」「なぜ」を残す。
type StatusHistory struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`

	Status string `gorm:"type:varchar(30);not null" json:"status"`

	//操作したユーザー
	UpdatedByID   int64  `gorm:"not null" json:"updated_by_id"`
	UpdatedByName string `gorm:"type:varchar(255)" json:"updated_by_name"`
	UpdatedByRole string `gorm:"type:varchar(20);not null" json:"updated_by_role"`

	Reason string `gorm:"type:text" json:"reason"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
