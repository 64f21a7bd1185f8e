package models

import (
	"time"

	"gorm.io/gorm"
)

// AlertChannel represents a notification webhook that receives urgent
// feedback escalations, negative-sentiment trend alerts and daily digests.
type AlertChannel struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Type        string         `gorm:"size:50;not null" json:"type"` // slack, webhook
	Webhook     string         `gorm:"size:500;not null" json:"webhook"`
	IsActive    bool           `json:"is_active"`
	TrendAlerts bool           `json:"trend_alerts"` // receive trend cluster alerts
	DailyDigest bool           `json:"daily_digest"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (AlertChannel) TableName() string { return "alert_channels" }
