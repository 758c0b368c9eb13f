package billing

import (
	"strings"

	"github.com/dmebilling/engine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RoundingMethod selects how fractional period counts and increment-aligned
// quantities are resolved to whole units.
type RoundingMethod string

const (
	// RoundNearest rounds half away from zero
	RoundNearest RoundingMethod = "ROUND"
	// RoundCeil always rounds up
	RoundCeil RoundingMethod = "CEIL"
	// RoundFloor always rounds down
	RoundFloor RoundingMethod = "FLOOR"
)

// String returns the string representation of RoundingMethod
func (m RoundingMethod) String() string {
	return string(m)
}

// IsValid returns true if the rounding method is valid
func (m RoundingMethod) IsValid() bool {
	switch m {
	case RoundNearest, RoundCeil, RoundFloor:
		return true
	}
	return false
}

// roundingAliases maps quantity-rounding literals to the canonical methods.
var roundingAliases = map[string]RoundingMethod{
	"round_up":   RoundCeil,
	"round_down": RoundFloor,
	"round_half": RoundNearest,
	"nearest":    RoundNearest,
}

// ParseRoundingMethod resolves a rounding-method string, canonical or alias.
func ParseRoundingMethod(s string) (RoundingMethod, error) {
	if m := RoundingMethod(strings.ToUpper(s)); m.IsValid() {
		return m, nil
	}
	if m, ok := roundingAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", shared.NewDomainError("INVALID_ROUNDING", "Unknown rounding method: "+s)
}

// Apply rounds d to an integer according to the method. RoundNearest rounds
// half away from zero.
func (m RoundingMethod) Apply(d decimal.Decimal) decimal.Decimal {
	switch m {
	case RoundCeil:
		return d.Ceil()
	case RoundFloor:
		return d.Floor()
	default:
		return d.Round(0)
	}
}
