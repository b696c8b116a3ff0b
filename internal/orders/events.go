package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tallyops/reportdesk-backend/pkg/enums"
	"github.com/tallyops/reportdesk-backend/pkg/logger"
)

// ChannelOrdersChanged is the pub/sub channel name (pre-namespace) carrying
// order review events.
const ChannelOrdersChanged = "orders.changed"

// ChangeEvent describes a review decision applied to an order.
type ChangeEvent struct {
	OrderID     string            `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	ChangedAt   time.Time         `json:"changed_at"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
	Channel(name string) string
}

// Notifier publishes order change events over Redis pub/sub. Bot workers
// subscribe and refresh the chat cards that rendered the affected order.
type Notifier struct {
	pub  publisher
	logg *logger.Logger
}

// NewNotifier builds a Redis-backed change notifier.
func NewNotifier(pub publisher, logg *logger.Logger) *Notifier {
	return &Notifier{pub: pub, logg: logg}
}

// OrdersChanged publishes the event. Failures are logged and swallowed; a
// missed refresh never blocks a review decision.
func (n *Notifier) OrdersChanged(ctx context.Context, event ChangeEvent) {
	if n == nil || n.pub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if n.logg != nil {
			n.logg.Error(ctx, "failed to encode order change event", err)
		}
		return
	}
	if err := n.pub.Publish(ctx, n.pub.Channel(ChannelOrdersChanged), payload); err != nil && n.logg != nil {
		n.logg.Warn(n.logg.WithOrderID(ctx, event.OrderID), "failed to publish order change event")
	}
}
