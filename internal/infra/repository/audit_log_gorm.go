package repository

import (
	"context"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

const (
	auditDefaultLimit = 50
	auditMaxLimit     = 200
)

// AuditLogGormRepository は管理者操作（ステータス更新・担当割り当て・返金更新）の
// 追記専用ログ。更新や削除のクエリは持たない。
type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

func (r *AuditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	return r.db.WithContext(ctx).Create(&log).Error
}

// List は条件に合う監査ログを新しい順に返す。
func (r *AuditLogGormRepository) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var logs []model.AuditLog
	err := r.scoped(ctx, filter).
		Order("created_at DESC, id DESC").
		Limit(clampAuditLimit(filter.Limit)).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// scoped はfilterの指定済み条件だけをクエリへ反映する。
func (r *AuditLogGormRepository) scoped(ctx context.Context, f repo.AuditLogFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})

	eq := map[string]interface{}{}
	if f.ActorUserID != nil {
		eq["actor_user_id"] = *f.ActorUserID
	}
	if f.Action != nil {
		eq["action"] = *f.Action
	}
	if f.ResourceType != nil {
		eq["resource_type"] = *f.ResourceType
	}
	if f.ResourceID != nil {
		eq["resource_id"] = *f.ResourceID
	}
	if len(eq) > 0 {
		q = q.Where(eq)
	}

	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("created_at <= ?", *f.CreatedTo)
	}
	return q
}

func clampAuditLimit(limit int) int {
	if limit <= 0 || limit > auditMaxLimit {
		return auditDefaultLimit
	}
	return limit
}
