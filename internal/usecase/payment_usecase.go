package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway"
	"app/internal/notifier"
	repo "app/internal/repository"
)

// ゲートウェイがPENDINGのままのときのポーリング上限。
// 無限ポーリングはしない。上限に達したら KindVerificationTimedOut。
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

type PaymentUsecase struct {
	tx       repo.TransactionManager
	gw       gateway.Gateway
	notifier notifier.Notifier
	retry    RetryPolicy

	//テストから差し替えられるように
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPaymentUsecase(tx repo.TransactionManager, gw gateway.Gateway, n notifier.Notifier, retry RetryPolicy) *PaymentUsecase {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	return &PaymentUsecase{
		tx:       tx,
		gw:       gw,
		notifier: n,
		retry:    retry,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ConfirmCODPayment は配達担当による代引きの回収確認。
func (u *PaymentUsecase) ConfirmCODPayment(ctx context.Context, actor Actor, orderID int64, notes string) error {
	if !actor.IsDelivery() || actor.ID <= 0 {
		return NewError(KindForbidden, "forbidden")
	}
	if orderID <= 0 {
		return NewError(KindValidation, "invalid id")
	}

	var userID int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindNotFound, "not found")
		}
		if err != nil {
			return NewError(KindInternal, "db error")
		}

		if o.DeliveryAgentID == nil || *o.DeliveryAgentID != actor.ID {
			return NewError(KindForbidden, "order not assigned to you")
		}
		if o.PaymentMethod != model.PaymentMethodCOD {
			return NewError(KindInvalidState, "payment method is not COD")
		}
		if o.PaymentStatus != model.PaymentStatusPending {
			return NewError(KindInvalidState,
				fmt.Sprintf("payment is %s", strings.ToLower(string(o.PaymentStatus))))
		}

		now := time.Now()
		version := o.Version
		o.PaymentStatus = model.PaymentStatusCompleted
		o.PaidAt = &now

		if err := r.Orders().Save(ctx, o, version); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return NewError(KindConflict, "order was updated concurrently")
			}
			return NewError(KindInternal, "db error")
		}

		if err := r.StatusHistories().Append(ctx, model.StatusHistory{
			OrderID:       o.ID,
			Status:        model.HistoryPaymentCompleted,
			UpdatedByID:   actor.ID,
			UpdatedByName: actor.Name,
			UpdatedByRole: string(actor.Role),
			Reason:        strings.TrimSpace(notes),
			CreatedAt:     now,
		}); err != nil {
			return NewError(KindInternal, "db error")
		}

		userID = o.UserID
		return nil
	})

	if err != nil {
		return err
	}

	u.notifier.NotifyPayment(ctx, userID, notifier.PaymentEvent{
		OrderID:       orderID,
		PaymentStatus: string(model.PaymentStatusCompleted),
	})
	return nil
}

type VerifyResult struct {
	Outcome       gateway.Outcome     `json:"outcome"`
	OrderStatus   model.OrderStatus   `json:"order_status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	RefundStatus  model.RefundStatus  `json:"refund_status"`
}

// VerifyGatewayPayment はゲートウェイの現在の結果を1回照会して取り込む。
// 同じ結果を二度取り込んでも状態は変わらない（冪等）。
func (u *PaymentUsecase) VerifyGatewayPayment(ctx context.Context, orderID int64) (VerifyResult, error) {
	if orderID <= 0 {
		return VerifyResult{}, NewError(KindValidation, "invalid id")
	}

	//外部照会はTxの外で行う
	var gatewayOrderRef string
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindNotFound, "not found")
		}
		if err != nil {
			return NewError(KindInternal, "db error")
		}
		if o.GatewayOrderRef == "" {
			return NewError(KindInvalidState, "order has no gateway session")
		}
		gatewayOrderRef = o.GatewayOrderRef
		return nil
	})
	if err != nil {
		return VerifyResult{}, err
	}

	st, err := u.gw.GetStatus(ctx, gatewayOrderRef)
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			return VerifyResult{}, NewError(KindGatewayUnavailable, "payment gateway unavailable")
		}
		return VerifyResult{}, NewError(KindInternal, "gateway error")
	}

	return u.applyOutcome(ctx, orderID, st)
}

// applyOutcome は観測した結果を注文へ反映する。
// ローカルの支払い状態がすでに同じなら何もしない。
func (u *PaymentUsecase) applyOutcome(ctx context.Context, orderID int64, st gateway.Status) (VerifyResult, error) {
	var (
		result  VerifyResult
		changed bool
		userID  int64
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindNotFound, "not found")
		}
		if err != nil {
			return NewError(KindInternal, "db error")
		}

		changed = false
		userID = o.UserID
		now := time.Now()
		version := o.Version

		//履歴行。Saveが成功したTxでまとめて追記する
		var histories []model.StatusHistory

		switch st.Outcome {
		case gateway.OutcomeSuccess:
			if o.PaymentStatus == model.PaymentStatusCompleted {
				break //取り込み済み
			}
			o.PaymentStatus = model.PaymentStatusCompleted
			o.PaidAt = &now
			o.GatewayTransactionRef = st.TransactionRef
			changed = true

			histories = append(histories, model.StatusHistory{
				OrderID:       o.ID,
				Status:        model.HistoryPaymentCompleted,
				UpdatedByName: "payment-gateway",
				UpdatedByRole: "SYSTEM",
				CreatedAt:     now,
			})

			if o.OrderStatus == model.OrderStatusCanceled {
				//入金とキャンセルが競合した。確定には進めず返金へ回す
				if o.RefundStatus == model.RefundStatusNotApplicable {
					o.RefundStatus = model.RefundStatusPending
					o.RefundAmount = o.TotalPrice
				}
			} else if o.OrderStatus == model.OrderStatusPending {
				o.OrderStatus = model.OrderStatusConfirmed
				histories = append(histories, model.StatusHistory{
					OrderID:       o.ID,
					Status:        string(model.OrderStatusConfirmed),
					UpdatedByName: "payment-gateway",
					UpdatedByRole: "SYSTEM",
					CreatedAt:     now,
				})
			}

		case gateway.OutcomeFailed:
			//未確定（PENDING/PROCESSING）のときだけ失敗へ落とす。
			//回収済みやキャンセル済みは上書きしない
			if o.PaymentStatus != model.PaymentStatusPending &&
				o.PaymentStatus != model.PaymentStatusProcessing {
				break
			}
			o.PaymentStatus = model.PaymentStatusFailed
			o.FailureReason = st.RawReason
			changed = true

		case gateway.OutcomePending:
			//未確定。呼び出し元がリトライする
		}

		if changed {
			if err := r.Orders().Save(ctx, o, version); err != nil {
				if errors.Is(err, repo.ErrConflict) {
					return NewError(KindConflict, "order was updated concurrently")
				}
				return NewError(KindInternal, "db error")
			}
			for _, h := range histories {
				if err := r.StatusHistories().Append(ctx, h); err != nil {
					return NewError(KindInternal, "db error")
				}
			}
		}

		result = VerifyResult{
			Outcome:       st.Outcome,
			OrderStatus:   o.OrderStatus,
			PaymentStatus: o.PaymentStatus,
			RefundStatus:  o.RefundStatus,
		}
		return nil
	})

	if err != nil {
		return VerifyResult{}, err
	}

	if changed {
		u.notifier.NotifyPayment(ctx, userID, notifier.PaymentEvent{
			OrderID:       orderID,
			PaymentStatus: string(result.PaymentStatus),
		})
	}
	return result, nil
}

// VerifyGatewayPaymentWithRetry はPENDINGの間だけ指数バックオフで照会を繰り返す。
// 上限に達したら KindVerificationTimedOut を返す。
func (u *PaymentUsecase) VerifyGatewayPaymentWithRetry(ctx context.Context, orderID int64) (VerifyResult, error) {
	backoff := u.retry.InitialBackoff

	for attempt := 1; ; attempt++ {
		result, err := u.VerifyGatewayPayment(ctx, orderID)
		if err != nil {
			return VerifyResult{}, err
		}
		if result.Outcome != gateway.OutcomePending {
			return result, nil
		}
		if attempt >= u.retry.MaxAttempts {
			return result, NewError(KindVerificationTimedOut, "payment verification timed out")
		}

		if err := u.sleep(ctx, backoff); err != nil {
			return VerifyResult{}, NewError(KindVerificationTimedOut, "payment verification canceled")
		}
		backoff *= 2
		if backoff > u.retry.MaxBackoff {
			backoff = u.retry.MaxBackoff
		}
	}
}
