package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/notifier"
	repo "app/internal/repository"
)

// 顧客がキャンセルできる状態。配達完了後とキャンセル済みは不可。
var customerCancelableFrom = map[model.OrderStatus]bool{
	model.OrderStatusPending:    true,
	model.OrderStatusConfirmed:  true,
	model.OrderStatusProcessing: true,
	model.OrderStatusShipped:    true,
}

// 配達担当は前進のみ。CONFIRMEDはゲートウェイ決済済みの入口、
// PENDINGはCODの入口。
var deliveryNext = map[model.OrderStatus]model.OrderStatus{
	model.OrderStatusPending:    model.OrderStatusProcessing,
	model.OrderStatusConfirmed:  model.OrderStatusProcessing,
	model.OrderStatusProcessing: model.OrderStatusShipped,
	model.OrderStatusShipped:    model.OrderStatusDelivered,
}

type LifecycleUsecase struct {
	tx       repo.TransactionManager
	notifier notifier.Notifier
}

func NewLifecycleUsecase(tx repo.TransactionManager, n notifier.Notifier) *LifecycleUsecase {
	return &LifecycleUsecase{tx: tx, notifier: n}
}

type TransitionInput struct {
	TargetStatus string
	Reason       string
}

// RequestTransition は注文ステータスの遷移を1件適用する。
// 役割・所有・現在状態のチェックを通ったときだけ、
// ステータス更新と履歴追記を同一トランザクションで行う。
func (u *LifecycleUsecase) RequestTransition(ctx context.Context, actor Actor, orderID int64, in TransitionInput) error {
	if actor.ID <= 0 {
		return NewError(KindForbidden, "forbidden")
	}
	if orderID <= 0 {
		return NewError(KindValidation, "invalid id")
	}

	target, ok := model.NormalizeOrderStatus(strings.TrimSpace(in.TargetStatus))
	if !ok {
		return NewError(KindValidation, "invalid status")
	}
	reason := strings.TrimSpace(in.Reason)

	var (
		paymentChanged bool
		paymentAfter   model.PaymentStatus
		orderUserID    int64
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindNotFound, "not found")
		}
		if err != nil {
			return NewError(KindInternal, "db error")
		}

		switch actor.Role {
		case model.RoleUser:
			//顧客は自分の注文のキャンセルだけ
			if o.UserID != actor.ID {
				return NewError(KindForbidden, "forbidden")
			}
			if target != model.OrderStatusCanceled {
				return NewError(KindForbidden, "customers may only cancel")
			}
			if reason == "" {
				return NewError(KindValidation, "cancellation reason is required")
			}
			if !customerCancelableFrom[o.OrderStatus] {
				return NewError(KindInvalidTransition,
					fmt.Sprintf("cannot cancel order in status %s", o.OrderStatus))
			}

		case model.RoleDelivery:
			//割り当てられた注文だけ、決まった順に前進
			if o.DeliveryAgentID == nil || *o.DeliveryAgentID != actor.ID {
				return NewError(KindForbidden, "order not assigned to you")
			}
			next, ok := deliveryNext[o.OrderStatus]
			if !ok || next != target {
				return NewError(KindInvalidTransition,
					fmt.Sprintf("cannot move from %s to %s", o.OrderStatus, target))
			}

		case model.RoleAdmin:
			//すでに同じなら何もしない
			if o.OrderStatus == target {
				return nil
			}
			//終端ガード
			if o.OrderStatus.IsTerminal() {
				return NewError(KindInvalidTransition,
					fmt.Sprintf("cannot change %s order", strings.ToLower(string(o.OrderStatus))))
			}

		default:
			return NewError(KindForbidden, "forbidden")
		}

		now := time.Now()
		before := o.OrderStatus
		version := o.Version
		orderUserID = o.UserID

		o.OrderStatus = target
		if target == model.OrderStatusCanceled {
			o.CancellationReason = reason
			o.CanceledAt = &now

			switch o.PaymentStatus {
			case model.PaymentStatusCompleted:
				//支払い済みの注文のキャンセルは返金追跡を開始する
				o.RefundStatus = model.RefundStatusPending
				o.RefundAmount = o.TotalPrice
			case model.PaymentStatusPending, model.PaymentStatusProcessing:
				//未回収なら支払いも打ち切り
				o.PaymentStatus = model.PaymentStatusCanceled
				paymentChanged = true
				paymentAfter = o.PaymentStatus
			}
		}

		if err := r.Orders().Save(ctx, o, version); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return NewError(KindConflict, "order was updated concurrently")
			}
			return NewError(KindInternal, "db error")
		}

		//履歴はステータス更新と同じTxで追記する
		if err := r.StatusHistories().Append(ctx, model.StatusHistory{
			OrderID:       o.ID,
			Status:        string(target),
			UpdatedByID:   actor.ID,
			UpdatedByName: actor.Name,
			UpdatedByRole: string(actor.Role),
			Reason:        reason,
			CreatedAt:     now,
		}); err != nil {
			return NewError(KindInternal, "db error")
		}

		//管理者操作は監査ログも残す
		if actor.IsAdmin() {
			beforeJSON := `{"order_status":"` + string(before) + `"}`
			afterJSON := `{"order_status":"` + string(target) + `"}`
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  actor.ID,
				Action:       model.AuditActionUpdateOrderStatus,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   o.ID,
				BeforeJSON:   beforeJSON,
				AfterJSON:    afterJSON,
				CreatedAt:    now,
			}); err != nil {
				return NewError(KindInternal, "db error")
			}
		}

		return nil
	})

	if err != nil {
		return err
	}

	//支払い状態が動いたときだけ通知する（コミット後、ベストエフォート）
	if paymentChanged {
		u.notifier.NotifyPayment(ctx, orderUserID, notifier.PaymentEvent{
			OrderID:       orderID,
			PaymentStatus: string(paymentAfter),
		})
	}
	return nil
}

// AssignDeliveryAgent は管理者が配達担当を割り当てる。
func (u *LifecycleUsecase) AssignDeliveryAgent(ctx context.Context, actor Actor, orderID int64, agentID int64) error {
	if !actor.IsAdmin() {
		return NewError(KindForbidden, "admin only")
	}
	if orderID <= 0 || agentID <= 0 {
		return NewError(KindValidation, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindNotFound, "not found")
		}
		if err != nil {
			return NewError(KindInternal, "db error")
		}

		if o.OrderStatus.IsTerminal() {
			return NewError(KindInvalidState, "order is closed")
		}

		agent, err := r.Users().FindByID(ctx, agentID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindValidation, "agent not found")
		}
		if err != nil {
			return NewError(KindInternal, "db error")
		}
		if agent.Role != model.RoleDelivery {
			return NewError(KindValidation, "user is not a delivery agent")
		}

		before := "null"
		if o.DeliveryAgentID != nil {
			before = fmt.Sprintf("%d", *o.DeliveryAgentID)
		}

		version := o.Version
		o.DeliveryAgentID = &agentID

		if err := r.Orders().Save(ctx, o, version); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return NewError(KindConflict, "order was updated concurrently")
			}
			return NewError(KindInternal, "db error")
		}

		now := time.Now()
		beforeJSON := `{"delivery_agent_id":` + before + `}`
		afterJSON := fmt.Sprintf(`{"delivery_agent_id":%d}`, agentID)
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.ID,
			Action:       model.AuditActionAssignDeliveryAgent,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    now,
		}); err != nil {
			return NewError(KindInternal, "db error")
		}

		return nil
	})
}
