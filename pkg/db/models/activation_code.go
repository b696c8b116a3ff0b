package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallyops/reportdesk-backend/pkg/enums"
)

// ActivationCode is a short-lived, single-use numeric secret that binds an
// external chat identity to a role. Consumption flips IsUsed exactly once;
// expired unused rows are kept for listing until explicitly purged.
type ActivationCode struct {
	ID        uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string                   `gorm:"column:code;not null;index"`
	Name      string                   `gorm:"column:name;not null"`
	Type      enums.ActivationCodeType `gorm:"column:type;type:text;not null"`
	IsUsed    bool                     `gorm:"column:is_used;not null;default:false"`
	UsedAt    *time.Time               `gorm:"column:used_at"`
	CreatedAt time.Time                `gorm:"column:created_at;autoCreateTime"`
	ExpiresAt time.Time                `gorm:"column:expires_at;not null;index"`
}

// ValidAt reports whether the code may still be consumed at the given instant.
func (c ActivationCode) ValidAt(now time.Time) bool {
	return !c.IsUsed && now.Before(c.ExpiresAt)
}
