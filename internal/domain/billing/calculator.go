package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount-calculation policy for DME rental/sale invoicing. All arithmetic is
// exact decimal; monetary results are rounded to 2 places and multipliers to
// 4 places. Identical inputs always produce identical outputs, which the
// billing audit trail depends on.

var (
	one     = decimal.NewFromInt(1)
	seven   = decimal.NewFromInt(7)
	hundred = decimal.NewFromInt(100)

	// cappedRentalRate is the reimbursement rate for capped-rental months
	// 4 through 15 under the Medicare decay schedule
	cappedRentalRate = decimal.New(75, -2)

	// rentToPurchaseCredit is the number of rental months credited against
	// the sale price when a rent-to-purchase converts at month 10
	rentToPurchaseCredit = decimal.NewFromInt(9)
)

// Capped-rental schedule boundaries (billing months).
const (
	cappedFullRateThrough     = 3
	cappedDecayThrough        = 15
	cappedMaintenanceStart    = 22
	cappedMaintenanceInterval = 6
	rentToPurchaseMonth       = 10
)

// AllowableAmount computes the payer-allowable amount for one billing month.
// billingMonth is normalized to at least 1. A flat-rate item is calculated
// with an effective quantity of 1; the caller's quantity is never modified.
func AllowableAmount(saleRentType SaleRentType, billingMonth int, price, quantity decimal.Decimal, salePrice *decimal.Decimal, flatRate bool) decimal.Decimal {
	if billingMonth < 1 {
		billingMonth = 1
	}
	qty := quantity
	if flatRate {
		qty = one
	}
	full := price.Mul(qty)

	switch saleRentType {
	case SaleRentTypeOneTimeSale, SaleRentTypeReoccurringSale, SaleRentTypeOneTimeRental:
		if billingMonth == 1 {
			return full.Round(2)
		}
		return decimal.Zero

	case SaleRentTypeMedicareOxygenRental, SaleRentTypeMonthlyRental:
		return full.Round(2)

	case SaleRentTypeRentToPurchase:
		switch {
		case billingMonth < rentToPurchaseMonth:
			return full.Round(2)
		case billingMonth == rentToPurchaseMonth:
			if salePrice == nil {
				return decimal.Zero
			}
			// Purchase conversion: sale price less the nine rental months
			// already billed
			return salePrice.Sub(price.Mul(rentToPurchaseCredit)).Mul(qty).Round(2)
		default:
			return decimal.Zero
		}

	case SaleRentTypeCappedRental:
		switch {
		case billingMonth <= cappedFullRateThrough:
			return full.Round(2)
		case billingMonth <= cappedDecayThrough:
			return cappedRentalRate.Mul(full).Round(2)
		case isMaintenanceMonth(billingMonth):
			return full.Round(2)
		default:
			return decimal.Zero
		}

	case SaleRentTypeParentalCappedRental:
		switch {
		case billingMonth <= cappedDecayThrough:
			return full.Round(2)
		case isMaintenanceMonth(billingMonth):
			return full.Round(2)
		default:
			return decimal.Zero
		}
	}
	return decimal.Zero
}

// isMaintenanceMonth reports whether a post-cap billing month is a
// maintenance month: month 22 and every 6th month after.
func isMaintenanceMonth(billingMonth int) bool {
	return billingMonth >= cappedMaintenanceStart &&
		(billingMonth-cappedMaintenanceStart)%cappedMaintenanceInterval == 0
}

// AmountMultiplier converts an amount computed under the ordered frequency
// into the billed frequency for the inclusive service period [dosFrom,
// dosTo]. dosTo is truncated at end when provided. One-time types and
// matching frequencies yield 1; unhandled frequency pairs also yield 1.
func AmountMultiplier(dosFrom, dosTo time.Time, end *time.Time, saleRentType SaleRentType, orderedWhen, billedWhen BillingFrequency) decimal.Decimal {
	if saleRentType.IsOneTime() {
		return one
	}
	dosTo = clampDate(dosTo, end)
	if orderedWhen == billedWhen {
		return one
	}

	days := daysBetween(dosFrom, dosTo) + 1
	if days < 1 {
		return one
	}
	span := decimal.NewFromInt(int64(days))

	switch {
	case orderedWhen == FrequencyDaily && billedWhen == FrequencyMonthly:
		return span
	case orderedWhen == FrequencyWeekly && billedWhen == FrequencyMonthly:
		return span.Div(seven).Round(4)
	case orderedWhen == FrequencyDaily && billedWhen == FrequencyWeekly:
		return span
	case (orderedWhen == FrequencyWeekly || orderedWhen == FrequencyMonthly) && billedWhen == FrequencyDaily:
		return one.Div(span).Round(4)
	}
	return one
}

// BillableAmountInput carries the inputs for one billable-amount
// calculation. TaxRate is fractional (0.0825 for 8.25%); DiscountPercent is
// in percentage points (15 for 15%).
type BillableAmountInput struct {
	SaleRentType    SaleRentType
	BillingMonth    int
	Price           decimal.Decimal
	Quantity        decimal.Decimal
	SalePrice       *decimal.Decimal
	FlatRate        bool
	TaxRate         *decimal.Decimal
	DiscountPercent *decimal.Decimal
}

// BillableAmount computes the allowable amount and applies the discount
// before tax; the ordering is fixed. The returned message records the
// adjustments applied, for the caller's audit log.
func BillableAmount(in BillableAmountInput) (decimal.Decimal, string) {
	amount := AllowableAmount(in.SaleRentType, in.BillingMonth, in.Price, in.Quantity, in.SalePrice, in.FlatRate)

	var applied []string
	if in.DiscountPercent != nil && in.DiscountPercent.IsPositive() {
		amount = amount.Mul(hundred.Sub(*in.DiscountPercent)).Div(hundred)
		applied = append(applied, fmt.Sprintf("discount %s%% applied", in.DiscountPercent))
	}
	if in.TaxRate != nil && amount.IsPositive() {
		amount = amount.Mul(one.Add(*in.TaxRate))
		applied = append(applied, fmt.Sprintf("tax rate %s applied", in.TaxRate))
	}

	message := "No adjustments applied"
	if len(applied) > 0 {
		message = strings.Join(applied, "; ")
	}
	return amount.Round(2), message
}

// Multiplier computes the billing multiplier for the inclusive span [from,
// to] under the given frequency. to is truncated at end when provided; a
// reversed span yields 0 rather than an error. Prorated weekly spans are
// days/7 at 4 places; prorated monthly spans divide the span days by the
// days covered by the elapsed whole months (1 when no whole month has
// elapsed). Un-prorated counts are resolved with the rounding method: for
// months, ceil adds one more period and nearest adds one when the span ends
// on or after the 15th.
func Multiplier(frequency BillingFrequency, from, to time.Time, end *time.Time, prorate bool, method RoundingMethod) decimal.Decimal {
	if frequency == FrequencyOneTime {
		return one
	}
	to = clampDate(to, end)
	if from.After(to) {
		return decimal.Zero
	}

	days := daysBetween(from, to) + 1
	span := decimal.NewFromInt(int64(days))

	switch frequency {
	case FrequencyDaily:
		return span

	case FrequencyWeekly:
		if prorate {
			return span.Div(seven).Round(4)
		}
		return method.Apply(span.Div(seven))

	case FrequencyMonthly:
		if prorate {
			elapsed := elapsedWholeMonths(from, to)
			denom := daysBetween(from, addMonthsClamped(from, elapsed))
			if denom == 0 {
				return one
			}
			return span.Div(decimal.NewFromInt(int64(denom))).Round(4)
		}
		months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
		if to.Day() >= from.Day() {
			months++
		}
		switch method {
		case RoundCeil:
			months++
		case RoundNearest:
			if to.Day() >= 15 {
				months++
			}
		}
		if months < 0 {
			months = 0
		}
		return decimal.NewFromInt(int64(months))
	}
	return one
}

// elapsedWholeMonths counts the whole calendar months fully elapsed between
// from and to, by day-of-month comparison.
func elapsedWholeMonths(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		months = 0
	}
	return months
}
