package orders

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyops/reportdesk-backend/pkg/db/models"
	"github.com/tallyops/reportdesk-backend/pkg/enums"
	pkgerrors "github.com/tallyops/reportdesk-backend/pkg/errors"
	"github.com/tallyops/reportdesk-backend/pkg/logger"
	"github.com/tallyops/reportdesk-backend/pkg/metrics"
	"github.com/tallyops/reportdesk-backend/pkg/pagination"
)

const (
	decisionApprove       = "approve"
	decisionReject        = "reject"
	decisionModifyApprove = "modify_approve"
)

// Service owns order intake and the review decision lifecycle. Decisions are
// one-shot: once an order leaves pending, no further transition is accepted.
type Service struct {
	repo     Repository
	notifier staleNotifier
	bounds   dayBounder
	logg     *logger.Logger
	metrics  *metrics.ReviewMetrics
	now      func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, notifier staleNotifier, bounds dayBounder, logg *logger.Logger, reviewMetrics *metrics.ReviewMetrics) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		bounds:   bounds,
		logg:     logg,
		metrics:  reviewMetrics,
		now:      time.Now,
	}
}

// Create accepts a bot-submitted report into the pending queue.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := s.validateCreate(&input); err != nil {
		return nil, err
	}

	orderNumber := strings.TrimSpace(input.OrderNumber)
	if orderNumber == "" {
		generated, err := s.generateOrderNumber(ctx)
		if err != nil {
			return nil, err
		}
		orderNumber = generated
	} else if _, err := s.repo.FindByOrderNumber(ctx, orderNumber); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order %s already exists", orderNumber))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check order number")
	}

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     orderNumber,
		Type:            input.Type,
		Amount:          input.Amount,
		SubmittedByID:   strings.TrimSpace(input.SubmittedByID),
		SubmittedByName: strings.TrimSpace(input.SubmittedByName),
		OriginalContent: strings.TrimSpace(input.Content),
		Status:          enums.OrderStatusPending,
		CreatedAt:       s.now(),
		UpdatedAt:       s.now(),
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store order")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order submitted for review")
	}
	return order, nil
}

func (s *Service) validateCreate(input *CreateOrderInput) error {
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order type %q", input.Type))
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	if strings.TrimSpace(input.SubmittedByID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "submitter id is required")
	}
	if strings.TrimSpace(input.SubmittedByName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "submitter name is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "report content is required")
	}
	return nil
}

func (s *Service) generateOrderNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		suffix, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate order number")
		}
		candidate := fmt.Sprintf("ORD-%s-%04d", s.now().UTC().Format("20060102150405"), suffix.Int64())
		_, err = s.repo.FindByOrderNumber(ctx, candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check order number")
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not find an unused order number")
}

// Get returns a single order by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	orderID, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, orderID)
}

// Approve moves a pending order to approved.
func (s *Service) Approve(ctx context.Context, id string) (*models.Order, error) {
	now := s.now()
	return s.decide(ctx, decisionApprove, id, enums.OrderStatusApproved, map[string]any{
		"status":      enums.OrderStatusApproved,
		"approved_at": now,
		"updated_at":  now,
	})
}

// Reject moves a pending order to rejected with the given reason.
func (s *Service) Reject(ctx context.Context, id, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	now := s.now()
	return s.decide(ctx, decisionReject, id, enums.OrderStatusRejected, map[string]any{
		"status":           enums.OrderStatusRejected,
		"rejection_reason": reason,
		"approved_at":      now,
		"updated_at":       now,
	})
}

// ModifyAndApprove amends the report content and approves in one decision.
// The original content is never touched; the amendment lands alongside it.
func (s *Service) ModifyAndApprove(ctx context.Context, id, content string) (*models.Order, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "modified content is required")
	}
	now := s.now()
	return s.decide(ctx, decisionModifyApprove, id, enums.OrderStatusApprovedModified, map[string]any{
		"status":           enums.OrderStatusApprovedModified,
		"modified_content": content,
		"is_modified":      true,
		"modified_at":      now,
		"approved_at":      now,
		"updated_at":       now,
	})
}

func (s *Service) decide(ctx context.Context, decision, id string, target enums.OrderStatus, updates map[string]any) (*models.Order, error) {
	started := s.now()
	order, err := s.applyDecision(ctx, id, target, updates)
	s.metrics.ObserveDuration(decision, s.now().Sub(started))
	if err != nil {
		s.metrics.IncFailure(decision, string(pkgerrors.As(err).Code()))
		return nil, err
	}
	s.metrics.IncDecision(decision)

	if s.notifier != nil {
		s.notifier.OrdersChanged(ctx, ChangeEvent{
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			Status:      order.Status,
			ChangedAt:   order.UpdatedAt,
		})
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id": order.ID.String(),
			"decision": decision,
		}), "review decision applied")
	}
	return order, nil
}

func (s *Service) applyDecision(ctx context.Context, id string, target enums.OrderStatus, updates map[string]any) (*models.Order, error) {
	orderID, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, stateConflict(order.Status, target)
	}

	applied, err := s.repo.ApplyTransition(ctx, orderID, enums.OrderStatusPending, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to apply review decision")
	}
	if !applied {
		// Another reviewer decided first. Re-read for the accurate status.
		current, loadErr := s.load(ctx, orderID)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, stateConflict(current.Status, target)
	}

	return s.load(ctx, orderID)
}

func stateConflict(current, target enums.OrderStatus) error {
	return pkgerrors.New(
		pkgerrors.CodeStateConflict,
		fmt.Sprintf("order is %s; cannot move to %s", current, target),
	).WithDetails(map[string]any{
		"current_status": current,
	})
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	return order, nil
}

func parseOrderID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a UUID")
	}
	return parsed, nil
}

// List returns a page of orders matching the filters. Pages past the end
// come back empty with the true total.
func (s *Service) List(ctx context.Context, filters Filters) (*pagination.Page[models.Order], error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", *filters.Status))
	}
	if filters.Type != nil && !filters.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order type %q", *filters.Type))
	}
	filters.Params = filters.Params.Normalize()

	if filters.Date != "" {
		if s.bounds == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "date filtering is not available")
		}
		start, end, err := s.bounds.DayBounds(ctx, filters.Date, filters.Timezone)
		if err != nil {
			return nil, err
		}
		filters.createdFrom = &start
		filters.createdTo = &end
	}

	rows, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	return pagination.NewPage(filters.Params, rows, total), nil
}

// ListPending returns the review queue oldest first, at most limit rows.
// A non-positive limit returns the whole queue.
func (s *Service) ListPending(ctx context.Context, limit int) ([]models.Order, error) {
	rows, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list pending orders")
	}
	return rows, nil
}

// PendingCount returns the size of the review queue.
func (s *Service) PendingCount(ctx context.Context) (int64, error) {
	count, err := s.repo.CountPending(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count pending orders")
	}
	return count, nil
}
