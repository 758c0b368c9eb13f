package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DeliverySchedule selects how an ordered quantity is released for delivery.
type DeliverySchedule string

const (
	DeliveryScheduleImmediate DeliverySchedule = "IMMEDIATE"
	DeliveryScheduleScheduled DeliverySchedule = "SCHEDULED"
	DeliveryScheduleRecurring DeliverySchedule = "RECURRING"
	DeliveryScheduleCustom    DeliverySchedule = "CUSTOM"
)

// String returns the string representation of DeliverySchedule
func (s DeliverySchedule) String() string {
	return string(s)
}

// IsValid returns true if the delivery schedule is valid
func (s DeliverySchedule) IsValid() bool {
	switch s {
	case DeliveryScheduleImmediate, DeliveryScheduleScheduled, DeliveryScheduleRecurring, DeliveryScheduleCustom:
		return true
	}
	return false
}

// ScheduleParams carries delivery-schedule parameters. Nil fields are unset.
type ScheduleParams struct {
	// Delivery window, inclusive, for SCHEDULED deliveries
	WindowStart *time.Time
	WindowEnd   *time.Time
	// The date the delivery is evaluated on
	DeliveryDate *time.Time
	// Prorate splits the quantity across the remaining window days
	Prorate bool
	// TotalDeliveries splits a RECURRING quantity evenly
	TotalDeliveries int
	// Extra passes named values through to custom schedule functions
	Extra map[string]decimal.Decimal
}

// DeliveryConstraints bounds the resolved delivery quantity.
type DeliveryConstraints struct {
	MinDelivery *decimal.Decimal
	MaxDelivery *decimal.Decimal
	Increment   *decimal.Decimal
}

// CustomScheduleFunc computes a delivery quantity under a caller-supplied
// policy. Custom policies are typed functions, never evaluated expressions.
type CustomScheduleFunc func(orderedQty decimal.Decimal, params ScheduleParams) decimal.Decimal

// DeliveryQuantity resolves how much of the ordered quantity is delivered
// under the schedule, then applies the delivery constraints in order:
// minimum raise, maximum lower, increment round-up. The message names the
// schedule decision and each constraint that fired.
//
// A SCHEDULED delivery outside its window yields 0; inside the window with
// proration enabled the quantity is scaled by remaining window days
// (inclusive of the delivery date) over total window days, at 2 places.
// Missing schedule data falls back to the ordered quantity with a message.
func DeliveryQuantity(orderedQty decimal.Decimal, schedule DeliverySchedule, params ScheduleParams, constraints *DeliveryConstraints, custom CustomScheduleFunc) (decimal.Decimal, string) {
	qty, message := scheduledQuantity(orderedQty, schedule, params, custom)

	if constraints != nil {
		if constraints.MinDelivery != nil && qty.LessThan(*constraints.MinDelivery) {
			qty = *constraints.MinDelivery
			message += fmt.Sprintf(" (min=%s)", constraints.MinDelivery)
		}
		if constraints.MaxDelivery != nil && qty.GreaterThan(*constraints.MaxDelivery) {
			qty = *constraints.MaxDelivery
			message += fmt.Sprintf(" (max=%s)", constraints.MaxDelivery)
		}
		if constraints.Increment != nil && constraints.Increment.IsPositive() && !qty.Mod(*constraints.Increment).IsZero() {
			qty = qty.Div(*constraints.Increment).Ceil().Mul(*constraints.Increment)
			message += fmt.Sprintf(" (increment=%s)", constraints.Increment)
		}
	}

	return qty, message
}

func scheduledQuantity(orderedQty decimal.Decimal, schedule DeliverySchedule, params ScheduleParams, custom CustomScheduleFunc) (decimal.Decimal, string) {
	switch schedule {
	case DeliveryScheduleImmediate:
		return orderedQty, "Immediate delivery"

	case DeliveryScheduleScheduled:
		if params.WindowStart == nil || params.WindowEnd == nil || params.DeliveryDate == nil {
			return orderedQty, "Incomplete delivery window: ordered quantity used"
		}
		date := *params.DeliveryDate
		if date.Before(*params.WindowStart) || date.After(*params.WindowEnd) {
			return decimal.Zero, "Delivery date outside window"
		}
		if !params.Prorate {
			return orderedQty, "Scheduled delivery within window"
		}
		remaining := calendarDays(date, *params.WindowEnd) + 1
		total := calendarDays(*params.WindowStart, *params.WindowEnd) + 1
		qty := orderedQty.
			Mul(decimal.NewFromInt(int64(remaining))).
			Div(decimal.NewFromInt(int64(total))).
			Round(2)
		return qty, fmt.Sprintf("Prorated delivery: %d of %d window days remaining", remaining, total)

	case DeliveryScheduleRecurring:
		if params.TotalDeliveries <= 0 {
			return orderedQty, "No delivery count for recurring schedule: ordered quantity used"
		}
		qty := orderedQty.Div(decimal.NewFromInt(int64(params.TotalDeliveries))).Round(2)
		return qty, fmt.Sprintf("Recurring delivery: quantity split across %d deliveries", params.TotalDeliveries)

	case DeliveryScheduleCustom:
		if custom == nil {
			return orderedQty, "No custom schedule provided: ordered quantity used"
		}
		return custom(orderedQty, params), "Custom schedule applied"
	}

	return orderedQty, fmt.Sprintf("Unknown delivery schedule %q: ordered quantity used", schedule)
}

// calendarDays returns whole calendar days from a to b, ignoring time of day.
func calendarDays(a, b time.Time) int {
	start := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
