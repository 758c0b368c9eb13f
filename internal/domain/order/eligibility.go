package order

import (
	"fmt"
	"time"
)

// DefaultAutoCloseGraceDays is the default grace period after delivery
// before a delivered order auto-closes. The value is carried in
// configuration, not hardcoded at call sites: the business owner has not
// yet confirmed the exact figure, so deployments can override it.
const DefaultAutoCloseGraceDays = 30

// ClosePolicy decides whether orders are closed or skipped for a billing
// run. The zero value is not usable; construct with NewClosePolicy.
type ClosePolicy struct {
	// AutoCloseGrace is how long after delivery a delivered order
	// auto-closes even while the grace question stands
	AutoCloseGrace time.Duration
	// Now supplies the current time; tests substitute a fixed clock
	Now func() time.Time
}

// NewClosePolicy creates a close policy with the given grace period in days.
// Non-positive days fall back to the default.
func NewClosePolicy(graceDays int) ClosePolicy {
	if graceDays <= 0 {
		graceDays = DefaultAutoCloseGraceDays
	}
	return ClosePolicy{
		AutoCloseGrace: time.Duration(graceDays) * 24 * time.Hour,
		Now:            time.Now,
	}
}

// SkippedOrder pairs an order excluded from a billing run with the reason.
type SkippedOrder struct {
	Order  *Order
	Reason string
}

// ShouldClose decides whether an order should be closed. Cancelled orders
// always close. A delivered order closes once the auto-close grace period
// has elapsed since delivery; before that it stays open, and it never closes
// while items are still in flight.
func (p ClosePolicy) ShouldClose(o *Order) (bool, string) {
	if o.Status == StatusClosed {
		return false, "order is already closed"
	}
	if o.Status == StatusCancelled {
		return true, "order is cancelled: closing"
	}
	if o.Status != StatusDelivered {
		return false, fmt.Sprintf("order status %s is not closeable", o.Status)
	}

	if o.DeliveryDate != nil {
		elapsed := p.Now().Sub(*o.DeliveryDate)
		if elapsed >= p.AutoCloseGrace {
			return true, fmt.Sprintf("auto-closing: delivered %d days ago, grace period of %d days elapsed",
				int(elapsed.Hours()/24), int(p.AutoCloseGrace.Hours()/24))
		}
	}
	if o.HasNonTerminalItems() {
		return false, "order has non-closeable items"
	}
	return false, "delivery grace period has not elapsed"
}

// ShouldSkip decides whether an order is excluded from a billing run. The
// returned reason is empty only when the order is processable.
func (p ClosePolicy) ShouldSkip(o *Order) (bool, string) {
	return p.shouldSkip(o, true)
}

func (p ClosePolicy) shouldSkip(o *Order, checkDates bool) (bool, string) {
	if o.Status.IsTerminal() {
		return true, fmt.Sprintf("order status %s is not billable", o.Status)
	}
	if checkDates {
		now := p.Now()
		if o.OrderDate.After(now) {
			return true, "order date is in the future"
		}
		if o.DeliveryDate != nil && o.DeliveryDate.After(now) {
			return true, "delivery date is in the future"
		}
	}
	if !o.HasActiveItems() {
		return true, "order has no active items"
	}
	return false, ""
}

// FilterProcessable partitions orders into those eligible for the billing
// run and those skipped, each with a reason. checkDates=false suppresses the
// date-based skip reasons only; status and item checks always apply.
func (p ClosePolicy) FilterProcessable(orders []*Order, checkDates bool) ([]*Order, []SkippedOrder) {
	processable := make([]*Order, 0, len(orders))
	var skipped []SkippedOrder

	for _, o := range orders {
		if skip, reason := p.shouldSkip(o, checkDates); skip {
			skipped = append(skipped, SkippedOrder{Order: o, Reason: reason})
			continue
		}
		processable = append(processable, o)
	}
	return processable, skipped
}
