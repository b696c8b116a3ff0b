package orders

import (
	"context"
	"time"
)

// staleNotifier fans out order change events so bot-rendered review cards can
// refresh themselves. Delivery is best effort.
type staleNotifier interface {
	OrdersChanged(ctx context.Context, event ChangeEvent)
}

// dayBounder resolves a calendar day to its instant range in a timezone.
type dayBounder interface {
	DayBounds(ctx context.Context, date string, tz string) (time.Time, time.Time, error)
}
