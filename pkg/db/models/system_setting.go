package models

import "time"

// SystemSetting is a generic key/value row backing console-level settings
// such as the display timezone and the admin group activation code.
type SystemSetting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
