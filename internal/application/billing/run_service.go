package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domainbilling "github.com/dmebilling/engine/internal/domain/billing"
	"github.com/dmebilling/engine/internal/domain/order"
	"github.com/dmebilling/engine/internal/domain/shared"
	"github.com/dmebilling/engine/internal/infrastructure/logger"
)

// PricingConfig carries the modifier and quantity-rule sets supplied by the
// external pricing-configuration store, plus the run-wide tax and discount
// parameters.
type PricingConfig struct {
	Modifiers     []domainbilling.InvoiceModifier
	QuantityRules []domainbilling.QuantityRule
	// TaxRate is fractional: 0.0825 for 8.25%
	TaxRate *decimal.Decimal
	// DiscountPercent is in percentage points: 15 for 15%
	DiscountPercent *decimal.Decimal
}

// Validate checks the pricing configuration before a run. Calculation
// fallbacks never error, so this is the only place misconfiguration is
// reported as a hard failure.
func (c PricingConfig) Validate() error {
	for i, m := range c.Modifiers {
		if !m.Type.IsValid() {
			return shared.NewDomainError("INVALID_CONFIG", fmt.Sprintf("modifier %d: unknown type %q", i, m.Type))
		}
		if !m.Multiplier.IsPositive() {
			return shared.NewDomainError("INVALID_CONFIG", fmt.Sprintf("modifier %d: multiplier must be positive", i))
		}
		if m.MinAmount != nil && m.MaxAmount != nil && m.MinAmount.GreaterThan(*m.MaxAmount) {
			return shared.NewDomainError("INVALID_CONFIG", fmt.Sprintf("modifier %d: min amount exceeds max amount", i))
		}
		if m.StartDate != nil && m.EndDate != nil && m.StartDate.After(*m.EndDate) {
			return shared.NewDomainError("INVALID_CONFIG", fmt.Sprintf("modifier %d: start date after end date", i))
		}
	}
	for i, r := range c.QuantityRules {
		if r.MinQuantity.IsNegative() {
			return shared.NewDomainError("INVALID_CONFIG", fmt.Sprintf("quantity rule %d: min quantity cannot be negative", i))
		}
		if r.MaxQuantity != nil && r.MaxQuantity.LessThan(r.MinQuantity) {
			return shared.NewDomainError("INVALID_CONFIG", fmt.Sprintf("quantity rule %d: max quantity below min quantity", i))
		}
		if r.FlatRate == nil && r.Multiplier.IsNegative() {
			return shared.NewDomainError("INVALID_CONFIG", fmt.Sprintf("quantity rule %d: multiplier cannot be negative", i))
		}
	}
	if c.TaxRate != nil && (c.TaxRate.IsNegative() || c.TaxRate.GreaterThan(decimal.NewFromInt(1))) {
		return shared.NewDomainError("INVALID_CONFIG", "tax rate must be fractional, between 0 and 1")
	}
	if c.DiscountPercent != nil && c.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_CONFIG", "discount percent cannot exceed 100")
	}
	return nil
}

// ItemTerms describes how a line item bills: its sale/rent category, the
// ordering and billing frequencies, and the billed-quantity constraints.
type ItemTerms struct {
	SaleRentType domainbilling.SaleRentType `validate:"required"`
	OrderedWhen  domainbilling.BillingFrequency
	BilledWhen   domainbilling.BillingFrequency
	FlatRate     bool
	SalePrice    *decimal.Decimal
	Constraints  order.QuantityConstraints
}

// RunPeriod positions the run on the billing calendar.
type RunPeriod struct {
	Frequency    domainbilling.BillingFrequency `validate:"required"`
	DOSFrom      time.Time                      `validate:"required"`
	BillingMonth int                            `validate:"gte=0"`
	EndDate      *time.Time
}

// RunRequest is one billing-run invocation. Orders are read-only input; the
// caller persists the results.
type RunRequest struct {
	RunID      uuid.UUID
	Orders     []*order.Order `validate:"required"`
	Period     RunPeriod
	Terms      ItemTerms
	// TermsByProduct overrides Terms for specific products
	TermsByProduct map[uuid.UUID]ItemTerms
	ModifierType   domainbilling.InvoiceModifierType
	Qualifiers     domainbilling.ModifierQualifiers
	// CheckDates gates orders on order/delivery dates being in the past
	CheckDates bool
}

// LineResult is the computed billing outcome for one line item. Messages
// collect every adjustment explanation for the caller's audit log.
type LineResult struct {
	OrderID  uuid.UUID
	ItemID   uuid.UUID
	DOSFrom  time.Time
	DOSTo    time.Time
	Allowable          decimal.Decimal
	Billable           decimal.Decimal
	AmountMultiplier   decimal.Decimal
	QuantityMultiplier decimal.Decimal
	BilledQuantity     decimal.Decimal
	Messages           []string
}

// CloseDecision reports whether an order should be closed after the run.
type CloseDecision struct {
	OrderID uuid.UUID
	Close   bool
	Reason  string
}

// RunResult aggregates one billing run.
type RunResult struct {
	RunID   uuid.UUID
	Lines   []LineResult
	Skipped []order.SkippedOrder
	Closes  []CloseDecision
	Total   decimal.Decimal
}

// RunService composes the billing domain for one run: it gates orders,
// computes periods and amounts, applies modifiers and quantity rules, and
// hands the results back for external persistence. It holds only
// configuration and a logger; runs are independent and safe to execute
// concurrently.
type RunService struct {
	logger      *zap.Logger
	validate    *validator.Validate
	closePolicy order.ClosePolicy
	pricing     PricingConfig
	rounding    domainbilling.RoundingMethod
	prorate     bool
}

// RunServiceOption is a functional option for configuring RunService
type RunServiceOption func(*RunService)

// WithClosePolicy sets the order close/skip policy
func WithClosePolicy(p order.ClosePolicy) RunServiceOption {
	return func(s *RunService) {
		s.closePolicy = p
	}
}

// WithPricingConfig sets the pricing configuration used for every line
func WithPricingConfig(cfg PricingConfig) RunServiceOption {
	return func(s *RunService) {
		s.pricing = cfg
	}
}

// WithRounding sets the rounding method for un-prorated period counts
func WithRounding(m domainbilling.RoundingMethod) RunServiceOption {
	return func(s *RunService) {
		if m.IsValid() {
			s.rounding = m
		}
	}
}

// WithProration enables or disables cross-frequency proration
func WithProration(prorate bool) RunServiceOption {
	return func(s *RunService) {
		s.prorate = prorate
	}
}

// NewRunService creates a billing-run service with optional configuration
func NewRunService(log *zap.Logger, opts ...RunServiceOption) *RunService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &RunService{
		logger:      log,
		validate:    validator.New(),
		closePolicy: order.NewClosePolicy(order.DefaultAutoCloseGraceDays),
		rounding:    domainbilling.RoundNearest,
		prorate:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessRun executes one billing run. It returns an error only for invalid
// requests or pricing configuration; per-line fallbacks are reported through
// audit messages, never as failures.
func (s *RunService) ProcessRun(ctx context.Context, req RunRequest) (*RunResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid run request: %w", err)
	}
	if err := s.validate.Struct(req.Period); err != nil {
		return nil, fmt.Errorf("invalid run period: %w", err)
	}
	if err := s.pricing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing configuration: %w", err)
	}

	runID := req.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	_, log := logger.WithRunID(ctx, s.logger, runID.String())

	processable, skipped := s.closePolicy.FilterProcessable(req.Orders, req.CheckDates)
	for _, sk := range skipped {
		log.Info("order skipped",
			zap.String("order_id", sk.Order.ID.String()),
			zap.String("reason", sk.Reason))
	}

	result := &RunResult{
		RunID:   runID,
		Skipped: skipped,
		Total:   decimal.Zero,
	}

	for _, o := range processable {
		for i := range o.Items {
			line := s.processItem(log, &o.Items[i], req)
			result.Lines = append(result.Lines, line)
			result.Total = result.Total.Add(line.Billable)
		}
	}
	result.Total = result.Total.Round(2)

	for _, o := range req.Orders {
		shouldClose, reason := s.closePolicy.ShouldClose(o)
		result.Closes = append(result.Closes, CloseDecision{OrderID: o.ID, Close: shouldClose, Reason: reason})
		if shouldClose {
			log.Info("order marked for close",
				zap.String("order_id", o.ID.String()),
				zap.String("reason", reason))
		}
	}

	log.Info("billing run completed",
		zap.Int("lines", len(result.Lines)),
		zap.Int("skipped", len(result.Skipped)),
		zap.String("total", result.Total.String()))
	return result, nil
}

func (s *RunService) processItem(log *zap.Logger, item *order.Item, req RunRequest) LineResult {
	terms := req.Terms
	if override, ok := req.TermsByProduct[item.ProductID]; ok {
		terms = override
	}

	dosFrom := req.Period.DOSFrom
	dosTo := domainbilling.NewDOSTo(dosFrom, req.Period.Frequency, 1, req.Period.EndDate)

	line := LineResult{
		OrderID: item.OrderID,
		ItemID:  item.ID,
		DOSFrom: dosFrom,
		DOSTo:   dosTo,
	}

	billedQty, qtyMsg := order.BilledQuantity(item.Quantity, terms.Constraints, s.rounding)
	line.BilledQuantity = billedQty
	line.Messages = append(line.Messages, qtyMsg)

	line.Allowable = domainbilling.AllowableAmount(
		terms.SaleRentType, req.Period.BillingMonth, item.UnitPrice, billedQty, terms.SalePrice, terms.FlatRate)

	billable, amountMsg := domainbilling.BillableAmount(domainbilling.BillableAmountInput{
		SaleRentType:    terms.SaleRentType,
		BillingMonth:    req.Period.BillingMonth,
		Price:           item.UnitPrice,
		Quantity:        billedQty,
		SalePrice:       terms.SalePrice,
		FlatRate:        terms.FlatRate,
		TaxRate:         s.pricing.TaxRate,
		DiscountPercent: s.pricing.DiscountPercent,
	})
	line.Messages = append(line.Messages, amountMsg)

	line.AmountMultiplier = domainbilling.AmountMultiplier(
		dosFrom, dosTo, req.Period.EndDate, terms.SaleRentType, terms.OrderedWhen, terms.BilledWhen)
	billable = billable.Mul(line.AmountMultiplier)

	if len(s.pricing.Modifiers) > 0 && req.ModifierType != "" {
		billable = domainbilling.ApplyInvoiceModifier(
			billable, req.ModifierType, dosFrom, s.pricing.Modifiers, req.Qualifiers)
	}

	baseAmount := line.Allowable
	// Flat-rate quantity bands come from the pricing configuration and apply
	// to every item; terms.FlatRate only controls how the item's own amount
	// is computed.
	line.QuantityMultiplier = domainbilling.QuantityMultiplier(
		billedQty, s.pricing.QuantityRules, &baseAmount, true)

	line.Billable = billable.Round(2)

	log.Debug("line computed",
		zap.String("item_id", item.ID.String()),
		zap.String("allowable", line.Allowable.String()),
		zap.String("billable", line.Billable.String()),
		zap.Strings("messages", line.Messages))
	return line
}
