package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tallyops/reportdesk-backend/pkg/db/models"
	"github.com/tallyops/reportdesk-backend/pkg/enums"
	pkgerrors "github.com/tallyops/reportdesk-backend/pkg/errors"
	"github.com/tallyops/reportdesk-backend/pkg/pagination"
)

type stubRepo struct {
	orders       map[uuid.UUID]*models.Order
	applyOK      *bool
	listErr      error
	pendingLimit int
}

func newStubRepo() *stubRepo {
	return &stubRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (r *stubRepo) Create(ctx context.Context, order *models.Order) error {
	r.orders[order.ID] = order
	return nil
}

func (r *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *stubRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) ApplyTransition(ctx context.Context, id uuid.UUID, from enums.OrderStatus, updates map[string]any) (bool, error) {
	if r.applyOK != nil {
		return *r.applyOK, nil
	}
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	if status, ok := updates["status"].(enums.OrderStatus); ok {
		order.Status = status
	}
	if reason, ok := updates["rejection_reason"].(string); ok {
		order.RejectionReason = &reason
	}
	if content, ok := updates["modified_content"].(string); ok {
		order.ModifiedContent = &content
	}
	if modified, ok := updates["is_modified"].(bool); ok {
		order.IsModified = modified
	}
	if at, ok := updates["modified_at"].(time.Time); ok {
		order.ModifiedAt = &at
	}
	if at, ok := updates["approved_at"].(time.Time); ok {
		order.ApprovedAt = &at
	}
	if at, ok := updates["updated_at"].(time.Time); ok {
		order.UpdatedAt = at
	}
	return true, nil
}

func (r *stubRepo) List(ctx context.Context, filters Filters) ([]models.Order, int64, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var out []models.Order
	for _, order := range r.orders {
		if filters.createdFrom != nil && order.CreatedAt.Before(*filters.createdFrom) {
			continue
		}
		if filters.createdTo != nil && order.CreatedAt.After(*filters.createdTo) {
			continue
		}
		out = append(out, *order)
	}
	return out, int64(len(out)), nil
}

func (r *stubRepo) ListPending(ctx context.Context, limit int) ([]models.Order, error) {
	r.pendingLimit = limit
	var out []models.Order
	for _, order := range r.orders {
		if order.Status == enums.OrderStatusPending {
			out = append(out, *order)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubRepo) CountPending(ctx context.Context) (int64, error) {
	var count int64
	for _, order := range r.orders {
		if order.Status == enums.OrderStatusPending {
			count++
		}
	}
	return count, nil
}

type stubNotifier struct {
	events []ChangeEvent
}

func (n *stubNotifier) OrdersChanged(ctx context.Context, event ChangeEvent) {
	n.events = append(n.events, event)
}

type stubBounds struct {
	start time.Time
	end   time.Time
	err   error
	calls int
}

func (b *stubBounds) DayBounds(ctx context.Context, date, tz string) (time.Time, time.Time, error) {
	b.calls++
	return b.start, b.end, b.err
}

var frozenNow = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository, notifier staleNotifier, bounds dayBounder) *Service {
	service := NewService(repo, notifier, bounds, nil, nil)
	service.now = func() time.Time { return frozenNow }
	return service
}

func seedPending(repo *stubRepo, orderNumber string) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     orderNumber,
		Type:            enums.OrderTypeDeposit,
		Amount:          decimal.NewFromFloat(120.50),
		SubmittedByID:   "emp-9",
		SubmittedByName: "Dana",
		OriginalContent: "deposit 120.50 for order " + orderNumber,
		Status:          enums.OrderStatusPending,
		CreatedAt:       frozenNow.Add(-time.Hour),
		UpdatedAt:       frozenNow.Add(-time.Hour),
	}
	repo.orders[order.ID] = order
	return order
}

func TestCreateOrder(t *testing.T) {
	repo := newStubRepo()
	service := newTestService(repo, &stubNotifier{}, nil)

	order, err := service.Create(context.Background(), CreateOrderInput{
		Type:            enums.OrderTypeDeposit,
		Amount:          decimal.NewFromFloat(99.90),
		SubmittedByID:   "emp-9",
		SubmittedByName: "  Dana  ",
		Content:         "deposit 99.90",
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, "Dana", order.SubmittedByName)
	assert.Regexp(t, `^ORD-\d{14}-\d{4}$`, order.OrderNumber)
	assert.False(t, order.IsModified)
}

func TestCreateOrderValidation(t *testing.T) {
	service := newTestService(newStubRepo(), &stubNotifier{}, nil)
	ctx := context.Background()

	cases := []CreateOrderInput{
		{Type: enums.OrderType("wire"), Amount: decimal.NewFromInt(5), SubmittedByID: "e", SubmittedByName: "n", Content: "c"},
		{Type: enums.OrderTypeDeposit, Amount: decimal.Zero, SubmittedByID: "e", SubmittedByName: "n", Content: "c"},
		{Type: enums.OrderTypeDeposit, Amount: decimal.NewFromInt(-5), SubmittedByID: "e", SubmittedByName: "n", Content: "c"},
		{Type: enums.OrderTypeDeposit, Amount: decimal.NewFromInt(5), SubmittedByName: "n", Content: "c"},
		{Type: enums.OrderTypeDeposit, Amount: decimal.NewFromInt(5), SubmittedByID: "e", Content: "c"},
		{Type: enums.OrderTypeDeposit, Amount: decimal.NewFromInt(5), SubmittedByID: "e", SubmittedByName: "n", Content: "   "},
	}
	for i, input := range cases {
		_, err := service.Create(ctx, input)
		require.Error(t, err, "case %d", i)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code(), "case %d", i)
	}
}

func TestCreateOrderDuplicateNumber(t *testing.T) {
	repo := newStubRepo()
	seedPending(repo, "ORD-1001")
	service := newTestService(repo, &stubNotifier{}, nil)

	_, err := service.Create(context.Background(), CreateOrderInput{
		OrderNumber:     "ORD-1001",
		Type:            enums.OrderTypeDeposit,
		Amount:          decimal.NewFromInt(5),
		SubmittedByID:   "e",
		SubmittedByName: "n",
		Content:         "c",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestApprovePendingOrder(t *testing.T) {
	repo := newStubRepo()
	order := seedPending(repo, "ORD-1001")
	notifier := &stubNotifier{}
	service := newTestService(repo, notifier, nil)

	updated, err := service.Approve(context.Background(), order.ID.String())
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusApproved, updated.Status)
	require.NotNil(t, updated.ApprovedAt)
	assert.Equal(t, frozenNow, *updated.ApprovedAt)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, order.ID.String(), notifier.events[0].OrderID)
	assert.Equal(t, enums.OrderStatusApproved, notifier.events[0].Status)
}

func TestApproveIsOneShot(t *testing.T) {
	repo := newStubRepo()
	order := seedPending(repo, "ORD-1001")
	notifier := &stubNotifier{}
	service := newTestService(repo, notifier, nil)
	ctx := context.Background()

	_, err := service.Approve(ctx, order.ID.String())
	require.NoError(t, err)

	_, err = service.Approve(ctx, order.ID.String())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	assert.Equal(t, map[string]any{"current_status": enums.OrderStatusApproved}, appErr.Details())

	// No second change event for the refused decision.
	assert.Len(t, notifier.events, 1)
}

func TestRejectRequiresReason(t *testing.T) {
	repo := newStubRepo()
	order := seedPending(repo, "ORD-1001")
	service := newTestService(repo, &stubNotifier{}, nil)

	_, err := service.Reject(context.Background(), order.ID.String(), "   ")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRejectPendingOrder(t *testing.T) {
	repo := newStubRepo()
	order := seedPending(repo, "ORD-1001")
	service := newTestService(repo, &stubNotifier{}, nil)

	updated, err := service.Reject(context.Background(), order.ID.String(), "amount mismatch")
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusRejected, updated.Status)
	require.NotNil(t, updated.RejectionReason)
	assert.Equal(t, "amount mismatch", *updated.RejectionReason)
	// The decision instant lands in approved_at for every terminal state,
	// rejection included.
	require.NotNil(t, updated.ApprovedAt)
	assert.Equal(t, frozenNow, *updated.ApprovedAt)
}

func TestModifyAndApprovePreservesOriginal(t *testing.T) {
	repo := newStubRepo()
	order := seedPending(repo, "ORD-1001")
	original := order.OriginalContent
	service := newTestService(repo, &stubNotifier{}, nil)

	updated, err := service.ModifyAndApprove(context.Background(), order.ID.String(), "deposit 130.00, corrected amount")
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusApprovedModified, updated.Status)
	assert.Equal(t, original, updated.OriginalContent)
	require.NotNil(t, updated.ModifiedContent)
	assert.Equal(t, "deposit 130.00, corrected amount", *updated.ModifiedContent)
	assert.True(t, updated.IsModified)
	require.NotNil(t, updated.ModifiedAt)
	require.NotNil(t, updated.ApprovedAt)
	assert.Equal(t, *updated.ModifiedAt, *updated.ApprovedAt)
}

func TestDecisionLostRaceReportsCurrentStatus(t *testing.T) {
	repo := newStubRepo()
	order := seedPending(repo, "ORD-1001")
	service := newTestService(repo, &stubNotifier{}, nil)

	// The conditional update claims zero rows even though the read saw
	// pending, as when another reviewer wins between read and write.
	lost := false
	repo.applyOK = &lost
	order.Status = enums.OrderStatusRejected

	_, err := service.Approve(context.Background(), order.ID.String())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	assert.Equal(t, map[string]any{"current_status": enums.OrderStatusRejected}, appErr.Details())
}

func TestDecisionOnUnknownOrder(t *testing.T) {
	service := newTestService(newStubRepo(), &stubNotifier{}, nil)

	_, err := service.Approve(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = service.Approve(context.Background(), "not-a-uuid")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListResolvesDayBounds(t *testing.T) {
	repo := newStubRepo()
	inside := seedPending(repo, "ORD-1001")
	outside := seedPending(repo, "ORD-1002")
	outside.CreatedAt = frozenNow.Add(-48 * time.Hour)

	bounds := &stubBounds{
		start: frozenNow.Add(-2 * time.Hour),
		end:   frozenNow,
	}
	service := newTestService(repo, &stubNotifier{}, bounds)

	page, err := service.List(context.Background(), Filters{
		Date:     "2025-09-01",
		Timezone: "Asia/Shanghai",
		Params:   pagination.Params{Page: 1, PageSize: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, bounds.calls)
	require.Len(t, page.Items, 1)
	assert.Equal(t, inside.OrderNumber, page.Items[0].OrderNumber)
	assert.EqualValues(t, 1, page.Total)
}

func TestListRejectsUnknownFilterValues(t *testing.T) {
	service := newTestService(newStubRepo(), &stubNotifier{}, &stubBounds{})
	ctx := context.Background()

	badStatus := enums.OrderStatus("archived")
	_, err := service.List(ctx, Filters{Status: &badStatus})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	badType := enums.OrderType("wire")
	_, err = service.List(ctx, Filters{Type: &badType})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListPendingForwardsLimit(t *testing.T) {
	repo := newStubRepo()
	seedPending(repo, "ORD-1001")
	seedPending(repo, "ORD-1002")
	seedPending(repo, "ORD-1003")
	service := newTestService(repo, &stubNotifier{}, nil)
	ctx := context.Background()

	rows, err := service.ListPending(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.pendingLimit)
	assert.Len(t, rows, 2)

	// A non-positive limit returns the whole queue.
	rows, err = service.ListPending(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestListEmptyPageKeepsTotal(t *testing.T) {
	repo := newStubRepo()
	seedPending(repo, "ORD-1001")
	service := newTestService(repo, &stubNotifier{}, nil)

	page, err := service.List(context.Background(), Filters{
		Params: pagination.Params{Page: 50, PageSize: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, 50, page.Page)
	assert.EqualValues(t, 1, page.Total)
}
