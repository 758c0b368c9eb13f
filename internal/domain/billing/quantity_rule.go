package billing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// QuantityRule defines one quantity band of the pricing configuration. A
// band matches quantities in [MinQuantity, MaxQuantity] (open-ended when
// MaxQuantity is nil). FlatRate, when set, charges a fixed amount regardless
// of quantity.
type QuantityRule struct {
	MinQuantity decimal.Decimal
	MaxQuantity *decimal.Decimal
	Multiplier  decimal.Decimal
	FlatRate    *decimal.Decimal
}

// Matches reports whether qty falls inside the rule's band.
func (r QuantityRule) Matches(qty decimal.Decimal) bool {
	if qty.LessThan(r.MinQuantity) {
		return false
	}
	if r.MaxQuantity != nil && qty.GreaterThan(*r.MaxQuantity) {
		return false
	}
	return true
}

// QuantityMultiplier resolves the quantity-based multiplier for a line item.
// Rules are evaluated most-restrictive band first (highest MinQuantity); the
// first matching band applies. A matching flat-rate band yields
// flatRate/baseAmount when flat rates are allowed and the base amount is
// positive, and 0 when the base amount is missing or non-positive (a flat
// rate cannot be expressed as a multiplier of nothing). Otherwise the band's
// multiplier applies. Non-positive quantities yield 0.
//
// NOTE: when no band matches, the quantity itself is returned as the
// multiplier. This conflates a count with a ratio, but downstream amount
// calculations have always relied on it (quantity 3 of a priced unit bills
// 3x), so the behavior is preserved deliberately.
func QuantityMultiplier(quantity decimal.Decimal, rules []QuantityRule, baseAmount *decimal.Decimal, allowFlatRate bool) decimal.Decimal {
	if !quantity.IsPositive() {
		return decimal.Zero
	}

	sorted := make([]QuantityRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity.GreaterThan(sorted[j].MinQuantity)
	})

	for _, rule := range sorted {
		if !rule.Matches(quantity) {
			continue
		}
		if rule.FlatRate != nil && allowFlatRate {
			if baseAmount == nil || !baseAmount.IsPositive() {
				return decimal.Zero
			}
			return rule.FlatRate.Div(*baseAmount).Round(4)
		}
		return rule.Multiplier.Round(4)
	}
	return quantity.Round(4)
}
