package models

import "time"

// AdminGroup is an external chat group authorized to perform review actions.
// Activation is gated by the standing 4-digit admin code, not a per-person
// activation code record.
type AdminGroup struct {
	GroupID     string    `gorm:"column:group_id;primaryKey"`
	ActivatedAt time.Time `gorm:"column:activated_at;not null"`
}
