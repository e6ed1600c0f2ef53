package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page          int
	Limit         int
	OrderStatus   string
	PaymentStatus string
	UserID        *int64
	From          *time.Time
	To            *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	//versionが一致するときだけ全体を書き込む。不一致は ErrConflict。
	Save(ctx context.Context, order model.Order, expectedVersion int64) error

	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)

	//配達担当に割り当てられた注文一覧
	ListByDeliveryAgent(ctx context.Context, agentID int64, page int, limit int) ([]model.Order, int64, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
