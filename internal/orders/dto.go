package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyops/reportdesk-backend/pkg/enums"
	"github.com/tallyops/reportdesk-backend/pkg/pagination"
)

// CreateOrderInput carries a bot-submitted report into the review queue.
type CreateOrderInput struct {
	OrderNumber     string
	Type            enums.OrderType
	Amount          decimal.Decimal
	SubmittedByID   string
	SubmittedByName string
	Content         string
}

// Filters narrows order listings. Date is a YYYY-MM-DD calendar day resolved
// against Timezone (or the console timezone when empty); Search matches order
// number and submitter name case-insensitively.
type Filters struct {
	Status   *enums.OrderStatus
	Type     *enums.OrderType
	Search   string
	Date     string
	Timezone string
	pagination.Params

	createdFrom *time.Time
	createdTo   *time.Time
}
