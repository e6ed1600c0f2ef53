package repository

import (
	"context"

	"app/internal/domain/model"
)

// 履歴は追記のみ。更新・削除は提供しない。
type StatusHistoryRepository interface {
	Append(ctx context.Context, h model.StatusHistory) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.StatusHistory, error)
}
