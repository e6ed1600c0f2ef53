package usecase

import (
	"context"
	"errors"
	"time"

	repo "app/internal/repository"
)

type AuditLogOutput struct {
	ID           int64     `json:"id"`
	ActorUserID  int64     `json:"actor_user_id"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   int64     `json:"resource_id"`
	BeforeJSON   string    `json:"before_json"`
	AfterJSON    string    `json:"after_json"`
	CreatedAt    time.Time `json:"created_at"`
}

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
}

func NewAdminOrderUsecase(tx repo.TransactionManager, auditRepo repo.AuditLogRepository) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, auditRepo: auditRepo}
}

// 注文一覧（管理者）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewError(KindValidation, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewError(KindValidation, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
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

// Detail は管理者向けの注文詳細（履歴付き、所有チェックなし）。
func (u *AdminOrderUsecase) Detail(ctx context.Context, orderID int64) (OrderOutput, error) {
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

// 監査ログ一覧（管理者）
func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, f repo.AuditLogFilter) ([]AuditLogOutput, error) {
	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return []AuditLogOutput{}, NewError(KindInternal, "db error")
	}

	outs := make([]AuditLogOutput, 0, len(logs))
	for _, l := range logs {
		outs = append(outs, AuditLogOutput{
			ID:           l.ID,
			ActorUserID:  l.ActorUserID,
			Action:       string(l.Action),
			ResourceType: string(l.ResourceType),
			ResourceID:   l.ResourceID,
			BeforeJSON:   l.BeforeJSON,
			AfterJSON:    l.AfterJSON,
			CreatedAt:    l.CreatedAt,
		})
	}
	return outs, nil
}
