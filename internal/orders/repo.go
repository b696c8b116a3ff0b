package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyops/reportdesk-backend/internal/repo"
	"github.com/tallyops/reportdesk-backend/pkg/db/models"
	"github.com/tallyops/reportdesk-backend/pkg/enums"
)

// Repository persists orders and applies guarded status transitions.
type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, from enums.OrderStatus, updates map[string]any) (bool, error)
	List(ctx context.Context, filters Filters) ([]models.Order, int64, error)
	ListPending(ctx context.Context, limit int) ([]models.Order, error)
	CountPending(ctx context.Context) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).Where("order_number = ?", orderNumber).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ApplyTransition updates the row only while its status still matches from.
// Concurrent reviewers race on the guard; exactly one sees true, the rest get
// zero rows and must treat the order as already decided.
func (r *repository) ApplyTransition(ctx context.Context, id uuid.UUID, from enums.OrderStatus, updates map[string]any) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context, filters Filters) ([]models.Order, int64, error) {
	query := r.DB(ctx).Model(&models.Order{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		// LOWER/LIKE keeps the match case-insensitive on both postgres and
		// the sqlite used in tests.
		needle := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(order_number) LIKE ? OR LOWER(submitted_by_name) LIKE ?",
			needle, needle,
		)
	}
	if filters.createdFrom != nil {
		query = query.Where("created_at >= ?", *filters.createdFrom)
	}
	if filters.createdTo != nil {
		query = query.Where("created_at <= ?", *filters.createdTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Order
	err := query.
		Order("created_at DESC").
		Offset(filters.Offset()).
		Limit(filters.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListPending returns the review queue oldest first, capped at limit rows
// when limit is positive.
func (r *repository) ListPending(ctx context.Context, limit int) ([]models.Order, error) {
	query := r.DB(ctx).
		Where("status = ?", enums.OrderStatusPending).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.Order
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Order{}).
		Where("status = ?", enums.OrderStatusPending).
		Count(&count).Error
	return count, err
}
