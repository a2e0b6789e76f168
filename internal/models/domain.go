package models

import (
	"time"

	"github.com/expirehq/domain-monitor/internal/enum"
)

type Domain struct {
	ID               uint64            `gorm:"primary_key;autoIncrement" json:"id"`
	Domain           string            `gorm:"column:domain;type:varchar(255);NOT NULL;uniqueIndex" json:"domain"`
	Tld              string            `gorm:"column:tld;type:varchar(10);NOT NULL;index" json:"tld"`
	Niche            string            `gorm:"column:niche;type:varchar(100)" json:"niche"`
	Traffic          int               `gorm:"column:traffic;NOT NULL;DEFAULT:0" json:"traffic"`
	ReferringDomains int               `gorm:"column:referring_domains;NOT NULL;DEFAULT:0" json:"referringDomains"`
	Status           enum.DomainStatus `gorm:"column:status;type:varchar(20);NOT NULL;DEFAULT:'unknown';index" json:"status"`
	PreviousStatus   enum.DomainStatus `gorm:"column:previous_status;type:varchar(20);NOT NULL;DEFAULT:'unknown'" json:"previousStatus"`
	LastChecked      *time.Time        `gorm:"column:last_checked;type:timestamp;index" json:"lastChecked"`
	LastAvailable    *time.Time        `gorm:"column:last_available;type:timestamp" json:"lastAvailable"`
	IsActive         bool              `gorm:"column:is_active;type:boolean;NOT NULL;DEFAULT:true;index" json:"isActive"`
	CreatedAt        time.Time         `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;type:timestamp;DEFAULT:current_timestamp" json:"updatedAt"`
}

func (Domain) TableName() string {
	return "domains"
}
