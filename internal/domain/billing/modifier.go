package billing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModifierType classifies invoice modifiers supplied by the external
// pricing-configuration store.
type InvoiceModifierType string

const (
	ModifierTypeDiscount            InvoiceModifierType = "DISCOUNT"
	ModifierTypeSurcharge           InvoiceModifierType = "SURCHARGE"
	ModifierTypeInsuranceAdjustment InvoiceModifierType = "INSURANCE_ADJUSTMENT"
	ModifierTypeStateTax            InvoiceModifierType = "STATE_TAX"
	ModifierTypeCustom              InvoiceModifierType = "CUSTOM"
)

// String returns the string representation of InvoiceModifierType
func (t InvoiceModifierType) String() string {
	return string(t)
}

// IsValid returns true if the modifier type is valid
func (t InvoiceModifierType) IsValid() bool {
	switch t {
	case ModifierTypeDiscount, ModifierTypeSurcharge, ModifierTypeInsuranceAdjustment,
		ModifierTypeStateTax, ModifierTypeCustom:
		return true
	}
	return false
}

// InvoiceModifier is a qualifying, date-bounded multiplier applied to a
// computed base amount. Qualifying rules (customer type, insurance type,
// state) restrict which invoices the modifier matches; unset fields match
// everything. Min/MaxAmount clamp the modified result.
type InvoiceModifier struct {
	ID         uuid.UUID
	Type       InvoiceModifierType
	Multiplier decimal.Decimal

	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal

	// Validity window, inclusive; nil bounds are open
	StartDate *time.Time
	EndDate   *time.Time

	// Qualifying rules; empty string means the rule is unspecified
	CustomerType  string
	InsuranceType string
	State         string
}

// AppliesOn reports whether the service date falls inside the modifier's
// validity window.
func (m InvoiceModifier) AppliesOn(serviceDate time.Time) bool {
	if m.StartDate != nil && serviceDate.Before(*m.StartDate) {
		return false
	}
	if m.EndDate != nil && serviceDate.After(*m.EndDate) {
		return false
	}
	return true
}

// RuleCount returns the number of qualifying rules the modifier specifies.
// More rules means more specific; specific modifiers win over general ones.
func (m InvoiceModifier) RuleCount() int {
	count := 0
	if m.CustomerType != "" {
		count++
	}
	if m.InsuranceType != "" {
		count++
	}
	if m.State != "" {
		count++
	}
	return count
}

// ModifierQualifiers carries the invoice attributes matched against a
// modifier's qualifying rules. Empty fields are treated as unspecified.
type ModifierQualifiers struct {
	CustomerType  string
	InsuranceType string
	State         string
}

// Qualifies reports whether every qualifying rule matches. A rule is checked
// only when both the modifier and the input specify the attribute.
func (m InvoiceModifier) Qualifies(q ModifierQualifiers) bool {
	if m.CustomerType != "" && q.CustomerType != "" && m.CustomerType != q.CustomerType {
		return false
	}
	if m.InsuranceType != "" && q.InsuranceType != "" && m.InsuranceType != q.InsuranceType {
		return false
	}
	if m.State != "" && q.State != "" && m.State != q.State {
		return false
	}
	return true
}

// ApplyInvoiceModifier selects and applies at most one modifier to the base
// amount. Candidates are filtered by type and validity window, ordered most
// specific first, and the first fully-qualifying one is applied: base times
// multiplier, clamped to [MinAmount, MaxAmount], rounded to 2 places. When
// nothing qualifies the base amount is returned unchanged.
func ApplyInvoiceModifier(baseAmount decimal.Decimal, modifierType InvoiceModifierType, serviceDate time.Time, modifiers []InvoiceModifier, qualifiers ModifierQualifiers) decimal.Decimal {
	candidates := make([]InvoiceModifier, 0, len(modifiers))
	for _, m := range modifiers {
		if m.Type == modifierType && m.AppliesOn(serviceDate) {
			candidates = append(candidates, m)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RuleCount() > candidates[j].RuleCount()
	})

	for _, m := range candidates {
		if !m.Qualifies(qualifiers) {
			continue
		}
		amount := baseAmount.Mul(m.Multiplier)
		if m.MinAmount != nil && amount.LessThan(*m.MinAmount) {
			amount = *m.MinAmount
		}
		if m.MaxAmount != nil && amount.GreaterThan(*m.MaxAmount) {
			amount = *m.MaxAmount
		}
		return amount.Round(2)
	}
	return baseAmount
}
