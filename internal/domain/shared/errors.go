package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidConfig = NewDomainError("INVALID_CONFIG", "Invalid pricing configuration")

	// ErrCalculation is reserved for failures of any future sandboxed formula
	// evaluator. The fixed billing policies never raise it: misconfiguration
	// degrades to a documented fallback plus an audit message instead.
	ErrCalculation = NewDomainError("CALCULATION_FAILED", "Calculation failed")
)
