package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"
)

type OrderUsecase struct {
	tx repo.TransactionManager
	gw gateway.Gateway
}

func NewOrderUsecase(tx repo.TransactionManager, gw gateway.Gateway) *OrderUsecase {
	return &OrderUsecase{tx: tx, gw: gw}
}

type PlaceOrderItemInput struct {
	ProductID int64
	Name      string
	UnitPrice int64
	Quantity  int64
	Size      string
	Color     string
	ImageRef  string
}

type PlaceOrderInput struct {
	Items         []PlaceOrderItemInput
	Address       model.ShippingAddress
	PaymentMethod string
	ShippingPrice int64
	TaxPrice      int64

	//ゲートウェイのセッション作成に使う
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

type HistoryOutput struct {
	Status        string    `json:"status"`
	UpdatedByID   int64     `json:"updated_by_id"`
	UpdatedByName string    `json:"updated_by_name"`
	UpdatedByRole string    `json:"updated_by_role"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	ImageRef  string `json:"image_ref"`
}

type OrderOutput struct {
	ID              int64                 `json:"id"`
	UserID          int64                 `json:"user_id"`
	OrderStatus     string                `json:"order_status"`
	PaymentStatus   string                `json:"payment_status"`
	PaymentMethod   string                `json:"payment_method"`
	RefundStatus    string                `json:"refund_status"`
	RefundAmount    int64                 `json:"refund_amount"`
	TotalPrice      int64                 `json:"total_price"`
	ShippingPrice   int64                 `json:"shipping_price"`
	TaxPrice        int64                 `json:"tax_price"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	DeliveryAgentID *int64                `json:"delivery_agent_id"`
	PaidAt          *time.Time            `json:"paid_at"`
	CreatedAt       time.Time             `json:"created_at"`
	Items           []OrderItemOutput     `json:"items"`
	History         []HistoryOutput       `json:"history,omitempty"`
}

type PlaceOrderOutput struct {
	Order OrderOutput `json:"order"`

	//ゲートウェイ決済のときだけ入る（リダイレクト用）
	GatewaySessionRef string `json:"gateway_session_ref,omitempty"`
	GatewayOrderRef   string `json:"gateway_order_ref,omitempty"`
	RedirectURL       string `json:"redirect_url,omitempty"`
}

// PlaceOrder はチェックアウト。明細をスナップショットして注文を作る。
// ゲートウェイ決済はセッション作成が先。外部呼び出しが失敗したら何も保存しない。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, actor Actor, in PlaceOrderInput) (PlaceOrderOutput, error) {
	if !actor.IsCustomer() || actor.ID <= 0 {
		return PlaceOrderOutput{}, NewError(KindForbidden, "forbidden")
	}
	if len(in.Items) == 0 {
		return PlaceOrderOutput{}, NewError(KindValidation, "items required")
	}

	method := model.PaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if !model.ValidPaymentMethod(method) {
		return PlaceOrderOutput{}, NewError(KindValidation, "invalid payment_method")
	}

	if err := validateAddress(in.Address); err != nil {
		return PlaceOrderOutput{}, err
	}
	if in.ShippingPrice < 0 || in.TaxPrice < 0 {
		return PlaceOrderOutput{}, NewError(KindValidation, "invalid price")
	}

	//明細の検証と小計
	var subtotal int64
	orderItems := make([]model.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return PlaceOrderOutput{}, NewError(KindValidation, "invalid quantity")
		}
		if it.UnitPrice < 0 {
			return PlaceOrderOutput{}, NewError(KindValidation, "invalid unit price")
		}
		if strings.TrimSpace(it.Name) == "" {
			return PlaceOrderOutput{}, NewError(KindValidation, "item name required")
		}
		orderItems = append(orderItems, model.OrderItem{
			ProductID:           it.ProductID,
			ProductNameSnapshot: it.Name,
			UnitPriceSnapshot:   it.UnitPrice,
			Quantity:            it.Quantity,
			Size:                it.Size,
			Color:               it.Color,
			ImageRef:            it.ImageRef,
		})
		subtotal += it.UnitPrice * it.Quantity
	}

	//請求額は小計+送料+税
	total := subtotal + in.ShippingPrice + in.TaxPrice

	now := time.Now()
	order := model.Order{
		UserID:          actor.ID,
		ShippingAddress: in.Address,
		TotalPrice:      total,
		ShippingPrice:   in.ShippingPrice,
		TaxPrice:        in.TaxPrice,
		PaymentMethod:   method,
		OrderStatus:     model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		RefundStatus:    model.RefundStatusNotApplicable,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	//COD以外はゲートウェイ経由。セッションを先に作る
	var session gateway.Session
	if method != model.PaymentMethodCOD {
		s, err := u.gw.CreateSession(ctx, total, gateway.CustomerDetails{
			Name:  in.CustomerName,
			Email: in.CustomerEmail,
			Phone: in.CustomerPhone,
		})
		if err != nil {
			if errors.Is(err, gateway.ErrUnavailable) {
				return PlaceOrderOutput{}, NewError(KindGatewayUnavailable, "payment gateway unavailable")
			}
			return PlaceOrderOutput{}, NewError(KindInternal, "gateway error")
		}
		session = s
		order.GatewaySessionRef = s.SessionRef
		order.GatewayOrderRef = s.GatewayOrderRef
	}

	var out PlaceOrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewError(KindInternal, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewError(KindInternal, "db error")
		}

		//作成も履歴に残す（履歴は常に1件以上）
		if err := r.StatusHistories().Append(ctx, model.StatusHistory{
			OrderID:       orderID,
			Status:        string(model.OrderStatusPending),
			UpdatedByID:   actor.ID,
			UpdatedByName: actor.Name,
			UpdatedByRole: string(actor.Role),
			CreatedAt:     now,
		}); err != nil {
			return NewError(KindInternal, "db error")
		}

		order.ID = orderID
		out = PlaceOrderOutput{
			Order:             toOrderOutput(order, orderItems, nil),
			GatewaySessionRef: session.SessionRef,
			GatewayOrderRef:   session.GatewayOrderRef,
			RedirectURL:       session.RedirectURL,
		}
		return nil
	})

	if err != nil {
		return PlaceOrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, actor Actor) ([]OrderOutput, error) {
	if actor.ID <= 0 {
		return []OrderOutput{}, NewError(KindForbidden, "forbidden")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, actor.ID, 1, 50)
		if err != nil {
			return NewError(KindInternal, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewError(KindInternal, "db error")
			}
			outs = append(outs, toOrderOutput(o, items, nil))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	if actor.ID <= 0 {
		return OrderOutput{}, NewError(KindForbidden, "forbidden")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewError(KindValidation, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindNotFound, "not found")
		}
		if err != nil {
			return NewError(KindInternal, "db error")
		}
		if o.UserID != actor.ID {
			//他人の注文は「存在しない扱い」にする
			return NewError(KindNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewError(KindInternal, "db error")
		}

		history, err := r.StatusHistories().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewError(KindInternal, "db error")
		}

		out = toOrderOutput(o, items, history)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ListAssignedOrders は配達担当の割り当て一覧。
func (u *OrderUsecase) ListAssignedOrders(ctx context.Context, actor Actor) ([]OrderOutput, error) {
	if !actor.IsDelivery() || actor.ID <= 0 {
		return []OrderOutput{}, NewError(KindForbidden, "forbidden")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByDeliveryAgent(ctx, actor.ID, 1, 50)
		if err != nil {
			return NewError(KindInternal, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewError(KindInternal, "db error")
			}
			outs = append(outs, toOrderOutput(o, items, nil))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func validateAddress(a model.ShippingAddress) error {
	if strings.TrimSpace(a.FullName) == "" ||
		strings.TrimSpace(a.Line1) == "" ||
		strings.TrimSpace(a.City) == "" ||
		strings.TrimSpace(a.State) == "" ||
		strings.TrimSpace(a.Pincode) == "" ||
		strings.TrimSpace(a.Phone) == "" {
		return NewError(KindValidation, "incomplete shipping address")
	}
	return nil
}

func toOrderOutput(o model.Order, items []model.OrderItem, history []model.StatusHistory) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
			ImageRef:  it.ImageRef,
		})
	}

	var outHistory []HistoryOutput
	for _, h := range history {
		outHistory = append(outHistory, HistoryOutput{
			Status:        h.Status,
			UpdatedByID:   h.UpdatedByID,
			UpdatedByName: h.UpdatedByName,
			UpdatedByRole: h.UpdatedByRole,
			Reason:        h.Reason,
			Timestamp:     h.CreatedAt,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderStatus:     string(o.OrderStatus),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentMethod:   string(o.PaymentMethod),
		RefundStatus:    string(o.RefundStatus),
		RefundAmount:    o.RefundAmount,
		TotalPrice:      o.TotalPrice,
		ShippingPrice:   o.ShippingPrice,
		TaxPrice:        o.TaxPrice,
		ShippingAddress: o.ShippingAddress,
		DeliveryAgentID: o.DeliveryAgentID,
		PaidAt:          o.PaidAt,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
		History:         outHistory,
	}
}
