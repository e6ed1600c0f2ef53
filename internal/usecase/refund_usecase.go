package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type RefundUsecase struct {
	tx repo.TransactionManager
}

func NewRefundUsecase(tx repo.TransactionManager) *RefundUsecase {
	return &RefundUsecase{tx: tx}
}

type UpdateRefundInput struct {
	Status        string
	TransactionID string
	Notes         string
}

// UpdateRefund は返金追跡の更新。管理者のみ。
// 進行は PENDING→PROCESSING→COMPLETED の前進のみで、後退は拒否する。
func (u *RefundUsecase) UpdateRefund(ctx context.Context, actor Actor, orderID int64, in UpdateRefundInput) error {
	if !actor.IsAdmin() {
		return NewError(KindForbidden, "admin only")
	}
	if orderID <= 0 {
		return NewError(KindValidation, "invalid id")
	}

	target := model.RefundStatus(strings.TrimSpace(in.Status))
	targetRank, ok := target.Rank()
	if !ok {
		return NewError(KindValidation, "invalid refund status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindNotFound, "not found")
		}
		if err != nil {
			return NewError(KindInternal, "db error")
		}

		//キャンセル済み+支払い済みの注文でしか有効化されない
		if o.RefundStatus == model.RefundStatusNotApplicable {
			return NewError(KindInvalidState, "refund not applicable")
		}

		currentRank, _ := o.RefundStatus.Rank()
		if targetRank < currentRank {
			return NewError(KindInvalidTransition,
				fmt.Sprintf("cannot move refund from %s back to %s", o.RefundStatus, target))
		}

		//COMPLETEDの再送は何もしない（完了時刻も上書きしない）
		if o.RefundStatus == model.RefundStatusCompleted && target == model.RefundStatusCompleted {
			return nil
		}

		now := time.Now()
		before := o.RefundStatus
		version := o.Version

		o.RefundStatus = target
		if txID := strings.TrimSpace(in.TransactionID); txID != "" {
			o.RefundTransactionID = txID
		}
		if notes := strings.TrimSpace(in.Notes); notes != "" {
			o.RefundNotes = notes
		}
		if target == model.RefundStatusCompleted && o.RefundCompletedAt == nil {
			o.RefundCompletedAt = &now
		}

		if err := r.Orders().Save(ctx, o, version); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return NewError(KindConflict, "order was updated concurrently")
			}
			return NewError(KindInternal, "db error")
		}

		beforeJSON := `{"refund_status":"` + string(before) + `"}`
		afterJSON := `{"refund_status":"` + string(target) + `"}`
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.ID,
			Action:       model.AuditActionUpdateRefund,
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
