package model

import "time"

// 注文明細。商品情報は注文時点のスナップショット。
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	Size                string    `gorm:"type:varchar(20)" json:"size"`
	Color               string    `gorm:"type:varchar(50)" json:"color"`
	ImageRef            string    `gorm:"type:varchar(512)" json:"image_ref"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
