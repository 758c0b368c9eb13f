package billing

import (
	"strings"

	"github.com/dmebilling/engine/internal/domain/shared"
)

// BillingFrequency governs billing-period length and cross-frequency
// multipliers. There is exactly one frequency enum; historical wire formats
// used diverging literals ("One Time" vs "one_time", "per_month" vs
// "MONTHLY"), which ParseBillingFrequency accepts as aliases.
type BillingFrequency string

const (
	FrequencyOneTime BillingFrequency = "ONE_TIME"
	FrequencyDaily   BillingFrequency = "DAILY"
	FrequencyWeekly  BillingFrequency = "WEEKLY"
	FrequencyMonthly BillingFrequency = "MONTHLY"
)

// String returns the canonical string representation of BillingFrequency
func (f BillingFrequency) String() string {
	return string(f)
}

// IsValid returns true if the frequency is valid
func (f BillingFrequency) IsValid() bool {
	switch f {
	case FrequencyOneTime, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// frequencyAliases maps legacy serialization literals to the canonical enum.
var frequencyAliases = map[string]BillingFrequency{
	"one time":  FrequencyOneTime,
	"one_time":  FrequencyOneTime,
	"onetime":   FrequencyOneTime,
	"daily":     FrequencyDaily,
	"per_day":   FrequencyDaily,
	"weekly":    FrequencyWeekly,
	"per_week":  FrequencyWeekly,
	"monthly":   FrequencyMonthly,
	"per_month": FrequencyMonthly,
}

// ParseBillingFrequency resolves a wire-format string, canonical or alias,
// into a BillingFrequency.
func ParseBillingFrequency(s string) (BillingFrequency, error) {
	if f := BillingFrequency(strings.ToUpper(s)); f.IsValid() {
		return f, nil
	}
	if f, ok := frequencyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return "", shared.NewDomainError("INVALID_FREQUENCY", "Unknown billing frequency: "+s)
}
