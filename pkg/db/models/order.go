package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyops/reportdesk-backend/pkg/enums"
)

// Order is a single transaction report submitted through the chat bot and
// reviewed by an admin. OriginalContent is immutable after creation; admin
// amendments only ever land in ModifiedContent so the pre/post diff survives.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string            `gorm:"column:order_number;not null;uniqueIndex"`
	Type            enums.OrderType   `gorm:"column:type;type:text;not null"`
	Amount          decimal.Decimal   `gorm:"column:amount;type:numeric(18,2);not null"`
	SubmittedByID   string            `gorm:"column:submitted_by_id;not null;index"`
	SubmittedByName string            `gorm:"column:submitted_by_name;not null"`
	OriginalContent string            `gorm:"column:original_content;not null"`
	ModifiedContent *string           `gorm:"column:modified_content"`
	IsModified      bool              `gorm:"column:is_modified;not null;default:false"`
	ModifiedAt      *time.Time        `gorm:"column:modified_at"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	RejectionReason *string           `gorm:"column:rejection_reason"`
	ApprovedAt      *time.Time        `gorm:"column:approved_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
