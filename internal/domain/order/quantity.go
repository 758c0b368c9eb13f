package order

import (
	"fmt"

	"github.com/dmebilling/engine/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// Quantity-conversion rules for billing runs. Every function is total for
// well-formed input: missing configuration degrades to a documented fallback
// plus an explanatory message, never an error, so one misconfigured product
// cannot halt a run. Callers must surface the messages for operator review.

// QuantityConstraints bounds a billed quantity. Nil fields are unset.
type QuantityConstraints struct {
	MinQuantity *decimal.Decimal
	MaxQuantity *decimal.Decimal
	Increment   *decimal.Decimal
}

// BilledQuantity converts an ordered quantity into the quantity actually
// billed. Adjustments apply in order: raise to the minimum, else lower to
// the maximum, then round to the nearest increment multiple per the rounding
// method (applied even after a clamp). The message reflects the last
// adjustment applied.
func BilledQuantity(orderedQty decimal.Decimal, constraints QuantityConstraints, method billing.RoundingMethod) (decimal.Decimal, string) {
	qty := orderedQty
	message := "No adjustments needed"

	if constraints.MinQuantity != nil && qty.LessThan(*constraints.MinQuantity) {
		qty = *constraints.MinQuantity
		message = fmt.Sprintf("Quantity %s increased to minimum %s", orderedQty, qty)
	} else if constraints.MaxQuantity != nil && qty.GreaterThan(*constraints.MaxQuantity) {
		qty = *constraints.MaxQuantity
		message = fmt.Sprintf("Quantity %s reduced to maximum %s", orderedQty, qty)
	}

	if constraints.Increment != nil && constraints.Increment.IsPositive() && !qty.Mod(*constraints.Increment).IsZero() {
		qty = method.Apply(qty.Div(*constraints.Increment)).Mul(*constraints.Increment)
		message = fmt.Sprintf("Quantity rounded to nearest increment of %s: %s", constraints.Increment, qty)
	}

	return qty, message
}

// BillingType selects how the ordered quantity is derived for billing.
type BillingType string

const (
	BillingTypeFlatRate BillingType = "FLAT_RATE"
	BillingTypePerUse   BillingType = "PER_USE"
	BillingTypeTiered   BillingType = "TIERED"
	BillingTypeCustom   BillingType = "CUSTOM"
)

// String returns the string representation of BillingType
func (t BillingType) String() string {
	return string(t)
}

// IsValid returns true if the billing type is valid
func (t BillingType) IsValid() bool {
	switch t {
	case BillingTypeFlatRate, BillingTypePerUse, BillingTypeTiered, BillingTypeCustom:
		return true
	}
	return false
}

// BillingParams carries strategy-specific numeric parameters, keyed by name
// ("min_usage", "multiplier", ...).
type BillingParams map[string]decimal.Decimal

// TierRate maps a quantity threshold to the rate billed once the ordered
// quantity reaches it.
type TierRate struct {
	Threshold decimal.Decimal
	Rate      decimal.Decimal
}

// CustomQuantityFunc computes an ordered quantity under a caller-supplied
// policy. Custom policies are typed functions, never evaluated expressions.
type CustomQuantityFunc func(baseQty decimal.Decimal, params BillingParams) decimal.Decimal

// OrderedQuantity derives the quantity to bill from the base ordered
// quantity under the given billing type.
//
// PER_USE requires usageQty: the effective usage is raised to the
// "min_usage" parameter when configured and scaled by "multiplier"
// (default 1). TIERED picks the highest tier threshold not exceeding the
// base quantity. CUSTOM delegates to the supplied function. Missing strategy
// data falls back to the base quantity with a message saying so.
func OrderedQuantity(baseQty decimal.Decimal, billingType BillingType, params BillingParams, usageQty *decimal.Decimal, tierRates []TierRate, custom CustomQuantityFunc) (decimal.Decimal, string) {
	switch billingType {
	case BillingTypeFlatRate:
		return baseQty, "Flat rate billing: base quantity used"

	case BillingTypePerUse:
		if usageQty == nil {
			return baseQty, "No usage data for per-use billing: base quantity used"
		}
		effective := *usageQty
		if minUsage, ok := params["min_usage"]; ok && effective.LessThan(minUsage) {
			effective = minUsage
		}
		multiplier := decimal.NewFromInt(1)
		if m, ok := params["multiplier"]; ok {
			multiplier = m
		}
		qty := effective.Mul(multiplier)
		return qty, fmt.Sprintf("Per-use billing: usage %s billed as %s", usageQty, qty)

	case BillingTypeTiered:
		if len(tierRates) == 0 {
			return baseQty, "No tier rates configured: base quantity used"
		}
		var matched *TierRate
		for i := range tierRates {
			tier := tierRates[i]
			if tier.Threshold.GreaterThan(baseQty) {
				continue
			}
			if matched == nil || tier.Threshold.GreaterThan(matched.Threshold) {
				matched = &tier
			}
		}
		if matched == nil {
			return baseQty, "No tier threshold reached: base quantity used"
		}
		qty := baseQty.Mul(matched.Rate)
		return qty, fmt.Sprintf("Tiered billing: rate %s applied at threshold %s", matched.Rate, matched.Threshold)

	case BillingTypeCustom:
		if custom == nil {
			return baseQty, "No custom calculation provided: base quantity used"
		}
		return custom(baseQty, params), "Custom calculation applied"
	}

	return baseQty, fmt.Sprintf("Unknown billing type %q: base quantity used", billingType)
}
