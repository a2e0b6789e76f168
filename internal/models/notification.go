package models

import (
	"time"
)

// Notification records the terminal outcome of one webhook delivery,
// including deliveries that failed after exhausting their retry budget.
type Notification struct {
	ID              uint64    `gorm:"primary_key;autoIncrement" json:"id"`
	DomainID        uint64    `gorm:"column:domain_id;NOT NULL;index" json:"domainId"`
	WebhookResponse string    `gorm:"column:webhook_response;type:text" json:"webhookResponse"`
	HTTPStatus      *int      `gorm:"column:http_status" json:"httpStatus"`
	Success         bool      `gorm:"column:success;type:boolean;NOT NULL;DEFAULT:false;index" json:"success"`
	SentAt          time.Time `gorm:"column:sent_at;type:timestamp;DEFAULT:current_timestamp;index" json:"sentAt"`

	Domain Domain `gorm:"foreignKey:DomainID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
