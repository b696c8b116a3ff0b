package activation

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tallyops/reportdesk-backend/internal/repo"
	"github.com/tallyops/reportdesk-backend/pkg/db/models"
	"github.com/tallyops/reportdesk-backend/pkg/enums"
)

// Repository persists activation codes and admin group activations.
type Repository interface {
	Create(ctx context.Context, code *models.ActivationCode) error
	FindLatestByCode(ctx context.Context, code string) (*models.ActivationCode, error)
	CodeInUse(ctx context.Context, code string, now time.Time) (bool, error)
	MarkUsed(ctx context.Context, id string, now time.Time) (bool, error)
	List(ctx context.Context, codeType *enums.ActivationCodeType, activeOnly bool, now time.Time) ([]models.ActivationCode, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	UpsertAdminGroup(ctx context.Context, groupID string, now time.Time) error
	ListAdminGroups(ctx context.Context) ([]models.AdminGroup, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds an activation repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Create(ctx context.Context, code *models.ActivationCode) error {
	return r.DB(ctx).Create(code).Error
}

// FindLatestByCode returns the most recently issued row carrying the code.
// Digits can repeat across issuance rounds; the newest row is authoritative.
func (r *repository) FindLatestByCode(ctx context.Context, code string) (*models.ActivationCode, error) {
	var row models.ActivationCode
	err := r.DB(ctx).
		Where("code = ?", code).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CodeInUse reports whether the code currently belongs to a live, unconsumed
// row. Issuance uses it to avoid handing out colliding digits.
func (r *repository) CodeInUse(ctx context.Context, code string, now time.Time) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.ActivationCode{}).
		Where("code = ? AND is_used = ? AND expires_at > ?", code, false, now).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkUsed consumes the code row exactly once. The guard on is_used and
// expires_at makes concurrent consumers race safely; only one caller sees
// true.
func (r *repository) MarkUsed(ctx context.Context, id string, now time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.ActivationCode{}).
		Where("id = ? AND is_used = ? AND expires_at > ?", id, false, now).
		Updates(map[string]any{
			"is_used": true,
			"used_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context, codeType *enums.ActivationCodeType, activeOnly bool, now time.Time) ([]models.ActivationCode, error) {
	query := r.DB(ctx).Model(&models.ActivationCode{})
	if codeType != nil {
		query = query.Where("type = ?", *codeType)
	}
	if activeOnly {
		query = query.Where("is_used = ? AND expires_at > ?", false, now)
	}

	var rows []models.ActivationCode
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// PurgeExpired removes unconsumed rows past their expiry. Consumed rows stay
// for auditability.
func (r *repository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.DB(ctx).
		Where("is_used = ? AND expires_at <= ?", false, now).
		Delete(&models.ActivationCode{})
	return result.RowsAffected, result.Error
}

func (r *repository) UpsertAdminGroup(ctx context.Context, groupID string, now time.Time) error {
	group := models.AdminGroup{GroupID: groupID, ActivatedAt: now}
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}},
			DoNothing: true,
		}).
		Create(&group).Error
}

func (r *repository) ListAdminGroups(ctx context.Context) ([]models.AdminGroup, error) {
	var groups []models.AdminGroup
	err := r.DB(ctx).Order("activated_at DESC").Find(&groups).Error
	return groups, err
}
