package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbilling "github.com/dmebilling/engine/internal/domain/billing"
	"github.com/dmebilling/engine/internal/domain/order"
)

var runNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func fixedPolicy(graceDays int) order.ClosePolicy {
	p := order.NewClosePolicy(graceDays)
	p.Now = func() time.Time { return runNow }
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func rentalOrder(t *testing.T, qty, price string) *order.Order {
	t.Helper()
	o, err := order.NewOrder(uuid.New(), runNow.AddDate(0, -2, 0), order.StatusConfirmed)
	require.NoError(t, err)
	item, err := order.NewItem(o.ID, uuid.New(), dec(qty), dec(price), order.ItemStatusShipped)
	require.NoError(t, err)
	o.Items = append(o.Items, *item)
	return o
}

func monthlyRequest(orders ...*order.Order) RunRequest {
	return RunRequest{
		Orders: orders,
		Period: RunPeriod{
			Frequency:    domainbilling.FrequencyMonthly,
			DOSFrom:      time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			BillingMonth: 1,
		},
		Terms: ItemTerms{
			SaleRentType: domainbilling.SaleRentTypeMonthlyRental,
			OrderedWhen:  domainbilling.FrequencyMonthly,
			BilledWhen:   domainbilling.FrequencyMonthly,
		},
		CheckDates: true,
	}
}

func TestProcessRun(t *testing.T) {
	ctx := context.Background()

	t.Run("monthly rental produces one line per item", func(t *testing.T) {
		svc := NewRunService(nil, WithClosePolicy(fixedPolicy(30)))
		o := rentalOrder(t, "1", "100")

		result, err := svc.ProcessRun(ctx, monthlyRequest(o))
		require.NoError(t, err)

		require.Len(t, result.Lines, 1)
		line := result.Lines[0]
		assert.Equal(t, o.ID, line.OrderID)
		assert.Equal(t, o.Items[0].ID, line.ItemID)
		assert.True(t, line.Allowable.Equal(dec("100")), "allowable %s", line.Allowable)
		assert.True(t, line.Billable.Equal(dec("100")), "billable %s", line.Billable)
		assert.True(t, line.AmountMultiplier.Equal(dec("1")))
		assert.True(t, line.BilledQuantity.Equal(dec("1")))
		assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), line.DOSFrom)
		assert.Equal(t, 2025, line.DOSTo.Year())
		assert.Equal(t, time.March, line.DOSTo.Month())
		assert.Equal(t, 31, line.DOSTo.Day())
		assert.True(t, result.Total.Equal(dec("100")))
		assert.Empty(t, result.Skipped)
	})

	t.Run("total sums all lines across orders", func(t *testing.T) {
		svc := NewRunService(nil, WithClosePolicy(fixedPolicy(30)))
		a := rentalOrder(t, "2", "50")
		b := rentalOrder(t, "1", "19.99")

		result, err := svc.ProcessRun(ctx, monthlyRequest(a, b))
		require.NoError(t, err)

		require.Len(t, result.Lines, 2)
		assert.True(t, result.Total.Equal(dec("119.99")), "total %s", result.Total)
	})

	t.Run("discount is applied before tax", func(t *testing.T) {
		svc := NewRunService(nil,
			WithClosePolicy(fixedPolicy(30)),
			WithPricingConfig(PricingConfig{
				TaxRate:         decPtr("0.10"),
				DiscountPercent: decPtr("10"),
			}))
		o := rentalOrder(t, "1", "100")

		result, err := svc.ProcessRun(ctx, monthlyRequest(o))
		require.NoError(t, err)

		require.Len(t, result.Lines, 1)
		// 100 less 10% discount is 90, plus 10% tax is 99
		assert.True(t, result.Lines[0].Billable.Equal(dec("99")), "billable %s", result.Lines[0].Billable)
	})

	t.Run("qualifying modifier scales the billable amount", func(t *testing.T) {
		svc := NewRunService(nil,
			WithClosePolicy(fixedPolicy(30)),
			WithPricingConfig(PricingConfig{
				Modifiers: []domainbilling.InvoiceModifier{
					{
						ID:         uuid.New(),
						Type:       domainbilling.ModifierTypeSurcharge,
						Multiplier: dec("1.5"),
					},
				},
			}))
		o := rentalOrder(t, "1", "100")
		req := monthlyRequest(o)
		req.ModifierType = domainbilling.ModifierTypeSurcharge

		result, err := svc.ProcessRun(ctx, req)
		require.NoError(t, err)

		require.Len(t, result.Lines, 1)
		assert.True(t, result.Lines[0].Billable.Equal(dec("150")), "billable %s", result.Lines[0].Billable)
	})

	t.Run("per-product terms override the run terms", func(t *testing.T) {
		svc := NewRunService(nil, WithClosePolicy(fixedPolicy(30)))
		o := rentalOrder(t, "1", "100")
		req := monthlyRequest(o)
		req.Period.BillingMonth = 2
		req.TermsByProduct = map[uuid.UUID]ItemTerms{
			o.Items[0].ProductID: {
				SaleRentType: domainbilling.SaleRentTypeOneTimeSale,
				OrderedWhen:  domainbilling.FrequencyMonthly,
				BilledWhen:   domainbilling.FrequencyMonthly,
			},
		}

		result, err := svc.ProcessRun(ctx, req)
		require.NoError(t, err)

		// one-time sale bills only in month 1; without the override the
		// monthly rental would bill 100 again
		require.Len(t, result.Lines, 1)
		assert.True(t, result.Lines[0].Billable.IsZero(), "billable %s", result.Lines[0].Billable)
	})

	t.Run("flat-rate bands apply to items not billed flat-rate", func(t *testing.T) {
		svc := NewRunService(nil,
			WithClosePolicy(fixedPolicy(30)),
			WithPricingConfig(PricingConfig{
				QuantityRules: []domainbilling.QuantityRule{
					{MinQuantity: dec("1"), FlatRate: decPtr("75")},
				},
			}))
		o := rentalOrder(t, "1", "100")
		req := monthlyRequest(o)
		require.False(t, req.Terms.FlatRate)

		result, err := svc.ProcessRun(ctx, req)
		require.NoError(t, err)

		require.Len(t, result.Lines, 1)
		// flat rate 75 over the 100 allowable
		assert.True(t, result.Lines[0].QuantityMultiplier.Equal(dec("0.75")),
			"quantity multiplier %s", result.Lines[0].QuantityMultiplier)
	})

	t.Run("quantity constraints adjust the billed quantity", func(t *testing.T) {
		svc := NewRunService(nil, WithClosePolicy(fixedPolicy(30)))
		o := rentalOrder(t, "3", "10")
		req := monthlyRequest(o)
		req.Terms.Constraints = order.QuantityConstraints{Increment: decPtr("5")}

		result, err := svc.ProcessRun(ctx, req)
		require.NoError(t, err)

		require.Len(t, result.Lines, 1)
		assert.True(t, result.Lines[0].BilledQuantity.Equal(dec("5")), "billed qty %s", result.Lines[0].BilledQuantity)
		assert.True(t, result.Lines[0].Billable.Equal(dec("50")), "billable %s", result.Lines[0].Billable)
	})

	t.Run("terminal orders are skipped but still judged for close", func(t *testing.T) {
		svc := NewRunService(nil, WithClosePolicy(fixedPolicy(30)))
		cancelled, err := order.NewOrder(uuid.New(), runNow.AddDate(0, -1, 0), order.StatusCancelled)
		require.NoError(t, err)

		result, err := svc.ProcessRun(ctx, monthlyRequest(cancelled))
		require.NoError(t, err)

		assert.Empty(t, result.Lines)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, cancelled.ID, result.Skipped[0].Order.ID)

		require.Len(t, result.Closes, 1)
		assert.True(t, result.Closes[0].Close)
		assert.Contains(t, result.Closes[0].Reason, "cancelled")
	})

	t.Run("future-dated orders are skipped only when dates are checked", func(t *testing.T) {
		svc := NewRunService(nil, WithClosePolicy(fixedPolicy(30)))
		o := rentalOrder(t, "1", "100")
		o.OrderDate = runNow.AddDate(0, 0, 7)

		checked, err := svc.ProcessRun(ctx, monthlyRequest(o))
		require.NoError(t, err)
		assert.Empty(t, checked.Lines)
		require.Len(t, checked.Skipped, 1)

		req := monthlyRequest(o)
		req.CheckDates = false
		unchecked, err := svc.ProcessRun(ctx, req)
		require.NoError(t, err)
		assert.Len(t, unchecked.Lines, 1)
		assert.Empty(t, unchecked.Skipped)
	})

	t.Run("a run id is assigned when none is supplied", func(t *testing.T) {
		svc := NewRunService(nil, WithClosePolicy(fixedPolicy(30)))

		result, err := svc.ProcessRun(ctx, monthlyRequest(rentalOrder(t, "1", "100")))
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, result.RunID)

		fixed := uuid.New()
		req := monthlyRequest(rentalOrder(t, "1", "100"))
		req.RunID = fixed
		result, err = svc.ProcessRun(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, fixed, result.RunID)
	})
}

func TestProcessRunValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a request without orders", func(t *testing.T) {
		svc := NewRunService(nil)
		req := monthlyRequest()
		req.Orders = nil

		_, err := svc.ProcessRun(ctx, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid run request")
	})

	t.Run("rejects a period without a frequency", func(t *testing.T) {
		svc := NewRunService(nil)
		req := monthlyRequest(rentalOrder(t, "1", "100"))
		req.Period.Frequency = ""

		_, err := svc.ProcessRun(ctx, req)
		require.Error(t, err)
	})

	t.Run("rejects a negative billing month", func(t *testing.T) {
		svc := NewRunService(nil)
		req := monthlyRequest(rentalOrder(t, "1", "100"))
		req.Period.BillingMonth = -1

		_, err := svc.ProcessRun(ctx, req)
		require.Error(t, err)
	})

	t.Run("rejects invalid pricing configuration", func(t *testing.T) {
		svc := NewRunService(nil, WithPricingConfig(PricingConfig{
			Modifiers: []domainbilling.InvoiceModifier{
				{ID: uuid.New(), Type: domainbilling.ModifierTypeDiscount, Multiplier: decimal.Zero},
			},
		}))

		_, err := svc.ProcessRun(ctx, monthlyRequest(rentalOrder(t, "1", "100")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid pricing configuration")
	})
}

func TestPricingConfigValidate(t *testing.T) {
	t.Run("accepts an empty configuration", func(t *testing.T) {
		assert.NoError(t, PricingConfig{}.Validate())
	})

	t.Run("rejects a modifier min above max", func(t *testing.T) {
		cfg := PricingConfig{Modifiers: []domainbilling.InvoiceModifier{{
			Type:       domainbilling.ModifierTypeDiscount,
			Multiplier: dec("0.9"),
			MinAmount:  decPtr("100"),
			MaxAmount:  decPtr("50"),
		}}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects a quantity rule max below min", func(t *testing.T) {
		cfg := PricingConfig{QuantityRules: []domainbilling.QuantityRule{{
			MinQuantity: dec("10"),
			MaxQuantity: decPtr("5"),
			Multiplier:  dec("1"),
		}}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects a discount above one hundred percent", func(t *testing.T) {
		cfg := PricingConfig{DiscountPercent: decPtr("110")}
		assert.Error(t, cfg.Validate())
	})

	t.Run("tax rate must be fractional", func(t *testing.T) {
		assert.NoError(t, PricingConfig{TaxRate: decPtr("0.0825")}.Validate())
		// 10 would mean 1000%; percentage points are not accepted here
		assert.Error(t, PricingConfig{TaxRate: decPtr("10")}.Validate())
		assert.Error(t, PricingConfig{TaxRate: decPtr("-0.05")}.Validate())
	})
}
