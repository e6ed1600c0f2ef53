package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
)

type StatusHistoryGormRepository struct {
	db *gorm.DB
}

func NewStatusHistoryGormRepository(db *gorm.DB) *StatusHistoryGormRepository {
	return &StatusHistoryGormRepository{db: db}
}

func (r *StatusHistoryGormRepository) Append(ctx context.Context, h model.StatusHistory) error {
	return r.db.WithContext(ctx).Create(&h).Error
}

func (r *StatusHistoryGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.StatusHistory, error) {
	var rows []model.StatusHistory
	//古い順（追記順）
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
