package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tallyops/reportdesk-backend/pkg/db/models"
)

// Keys for console-level settings.
const (
	KeyTimezone       = "timezone"
	KeyAdminGroupCode = "admin_group_code"
)

// Repository reads and writes system settings.
type Repository interface {
	Value(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Value(ctx context.Context, key string) (string, error) {
	var setting models.SystemSetting
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&setting).Error
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (r *repository) Set(ctx context.Context, key, value string) error {
	setting := models.SystemSetting{Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
}
