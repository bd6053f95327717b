package model

import "time"

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

type Notification struct {
	ID        uint64               `gorm:"primaryKey;autoIncrement"`
	UserUID   string               `gorm:"column:user_uid;size:128;index;not null"`
	Type      string               `gorm:"column:type;size:64;not null"`
	Title     string               `gorm:"column:title;size:255"`
	Body      string               `gorm:"column:body;type:text"`
	RelatedID *string              `gorm:"column:related_id;size:36;index"`
	Priority  NotificationPriority `gorm:"column:priority;size:16;not null;default:'normal'"`
	ReadAt    *time.Time           `gorm:"column:read_at"`
	CreatedAt time.Time            `gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
