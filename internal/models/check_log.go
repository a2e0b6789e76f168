package models

import (
	"time"

	"github.com/expirehq/domain-monitor/internal/enum"
)

// CheckLog is the append-only audit record of a single resolver probe.
type CheckLog struct {
	ID               uint64           `gorm:"primary_key;autoIncrement" json:"id"`
	DomainID         uint64           `gorm:"column:domain_id;NOT NULL;index" json:"domainId"`
	StatusFound      enum.CheckStatus `gorm:"column:status_found;type:varchar(20);NOT NULL;index" json:"statusFound"`
	CheckMethod      string           `gorm:"column:check_method;type:varchar(50);NOT NULL" json:"checkMethod"`
	ResponseTimeMs   int64            `gorm:"column:response_time_ms" json:"responseTimeMs"`
	ErrorMessage     string           `gorm:"column:error_message;type:text" json:"errorMessage"`
	NotificationSent bool             `gorm:"column:notification_sent;type:boolean;NOT NULL;DEFAULT:false" json:"notificationSent"`
	CheckedAt        time.Time        `gorm:"column:checked_at;type:timestamp;DEFAULT:current_timestamp;index" json:"checkedAt"`

	Domain Domain `gorm:"foreignKey:DomainID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (CheckLog) TableName() string {
	return "check_logs"
}
