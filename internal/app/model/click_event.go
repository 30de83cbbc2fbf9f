package model

import "time"

// ClickEvent is one recorded outbound click, stored in the "clicks" table.
// Rows are immutable after insert; the only mutation the store allows is the
// admin bulk delete.
type ClickEvent struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	PlatformID   string    `json:"platform_id" gorm:"size:64;not null;index"`
	PlatformName string    `json:"platform_name" gorm:"size:255;not null"`
	PlatformURL  string    `json:"platform_url" gorm:"type:text;not null"`
	Timestamp    time.Time `json:"timestamp" gorm:"column:timestamp;autoCreateTime;index"`
	IPAddress    string    `json:"ip_address" gorm:"size:64"`
	UserAgent    string    `json:"user_agent" gorm:"type:text"`
}

// TableName keeps the table name of the original deployment so existing data
// stays readable.
func (ClickEvent) TableName() string { return "clicks" }
