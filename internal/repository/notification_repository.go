package repository

import (
	"context"

	"github.com/shinyyama/bookswap-backend/internal/model"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, userUID string) error
	MarkByRelated(ctx context.Context, userUID, relatedID string) error
	CountUnread(ctx context.Context, userUID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	db, err := conn(ctx, r.db)
	if err != nil {
		return err
	}
	return db.Create(n).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var list []model.Notification
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	q := db.Model(&model.Notification{}).Where("user_uid = ?", userUID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userUID string) error {
	db, err := conn(ctx, r.db)
	if err != nil {
		return err
	}
	return db.Model(&model.Notification{}).
		Where("user_uid = ? AND read_at IS NULL", userUID).
		Update("read_at", db.NowFunc()).Error
}

func (r *notificationRepository) MarkByRelated(ctx context.Context, userUID, relatedID string) error {
	db, err := conn(ctx, r.db)
	if err != nil {
		return err
	}
	return db.Model(&model.Notification{}).
		Where("user_uid = ? AND related_id = ? AND read_at IS NULL", userUID, relatedID).
		Update("read_at", db.NowFunc()).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userUID string) (int64, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return 0, err
	}
	var cnt int64
	if err := db.Model(&model.Notification{}).
		Where("user_uid = ? AND read_at IS NULL", userUID).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}
