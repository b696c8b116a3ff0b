package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	internalorders "github.com/tallyops/reportdesk-backend/internal/orders"
	"github.com/tallyops/reportdesk-backend/pkg/config"
	"github.com/tallyops/reportdesk-backend/pkg/db/models"
	"github.com/tallyops/reportdesk-backend/pkg/enums"
	pkgerrors "github.com/tallyops/reportdesk-backend/pkg/errors"
	"github.com/tallyops/reportdesk-backend/pkg/logger"
	"github.com/tallyops/reportdesk-backend/pkg/pagination"

	"github.com/tallyops/reportdesk-backend/api/responses"
	"github.com/tallyops/reportdesk-backend/api/validators"
)

type orderService interface {
	Create(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	Approve(ctx context.Context, id string) (*models.Order, error)
	Reject(ctx context.Context, id, reason string) (*models.Order, error)
	ModifyAndApprove(ctx context.Context, id, content string) (*models.Order, error)
	List(ctx context.Context, filters internalorders.Filters) (*pagination.Page[models.Order], error)
	ListPending(ctx context.Context, limit int) ([]models.Order, error)
	PendingCount(ctx context.Context) (int64, error)
}

const (
	defaultPendingLimit = 50
	maxPendingLimit     = 500
)

type createOrderRequest struct {
	OrderNumber     string `json:"order_number"`
	Type            string `json:"type" validate:"required,oneof=deposit withdrawal refund"`
	Amount          string `json:"amount" validate:"required"`
	SubmittedByID   string `json:"submitted_by_id" validate:"required"`
	SubmittedByName string `json:"submitted_by_name" validate:"required"`
	Content         string `json:"content" validate:"required"`
}

type rejectOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type modifyOrderRequest struct {
	Content string `json:"content" validate:"required"`
}

// CreateOrder ingests a bot-submitted report into the review queue.
func CreateOrder(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderType, err := enums.ParseOrderType(body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type"))
			return
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(body.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "amount must be a decimal number"))
			return
		}

		order, err := svc.Create(r.Context(), internalorders.CreateOrderInput{
			OrderNumber:     body.OrderNumber,
			Type:            orderType,
			Amount:          amount,
			SubmittedByID:   body.SubmittedByID,
			SubmittedByName: body.SubmittedByName,
			Content:         body.Content,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListOrders returns a filtered, paginated order listing. Page-size defaults
// and caps come from the review config when set.
func ListOrders(svc orderService, logg *logger.Logger, review config.ReviewConfig) http.HandlerFunc {
	defaultSize := review.DefaultPageSize
	if defaultSize <= 0 {
		defaultSize = pagination.DefaultPageSize
	}
	maxSize := review.MaxPageSize
	if maxSize <= 0 {
		maxSize = pagination.MaxPageSize
	}

	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "page_size", defaultSize, 1, maxSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := internalorders.Filters{
			Search:   r.URL.Query().Get("search"),
			Date:     strings.TrimSpace(r.URL.Query().Get("date")),
			Timezone: strings.TrimSpace(r.URL.Query().Get("tz")),
			Params:   pagination.Params{Page: page, PageSize: pageSize},
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			orderType, err := enums.ParseOrderType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter"))
				return
			}
			filters.Type = &orderType
		}

		list, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// PendingOrders returns the review queue oldest first, capped by the limit
// query parameter.
func PendingOrders(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultPendingLimit, 1, maxPendingLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListPending(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items": rows,
			"count": len(rows),
		})
	}
}

// OrderDetail returns a single order.
func OrderDetail(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.Get(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ApproveOrder applies an approve decision to a pending order.
func ApproveOrder(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.Approve(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// RejectOrder applies a reject decision with a reason.
func RejectOrder(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body rejectOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Reject(r.Context(), chi.URLParam(r, "orderId"), body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ModifyApproveOrder amends report content and approves in one decision.
func ModifyApproveOrder(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body modifyOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.ModifyAndApprove(r.Context(), chi.URLParam(r, "orderId"), body.Content)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
