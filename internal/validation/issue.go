package validation

import (
	"fmt"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity classifies an Issue.
type Severity string

const (
	SeverityError Severity = "ERROR"
	SeverityWarn  Severity = "WARN"
	SeverityInfo  Severity = "INFO"

	// SeverityClean marks a loan without issues. Only the report layer
	// produces it.
	SeverityClean Severity = "CLEAN"
)

// =============================================================================
// ISSUE CODES
// =============================================================================

const (
	CodeNegativeValue         = "NEGATIVE_VALUE"
	CodeDTINegative           = "DTI_NEGATIVE"
	CodeAmountNonPositive     = "AMOUNT_NONPOSITIVE"
	CodeInvalidDate           = "INVALID_DATE"
	CodeInvalidNumber         = "INVALID_NUMBER"
	CodeNegativeDaysLate      = "NEGATIVE_DAYS_LATE"
	CodeNonCompletePayments   = "NON_COMPLETE_PAYMENTS"
	CodeDefault               = "DEFAULT"
	CodeParseError            = "ParseError"
	CodeXIRRDeviation         = "XIRRDeviation"
	CodeNegativeEmployees     = "NEGATIVE_EMPLOYEES"
	CodeNegativeRevenue       = "NEGATIVE_REVENUE"
	CodeCollateralNonPositive = "COLLATERAL_NONPOSITIVE"
)

// =============================================================================
// ISSUE
// =============================================================================

// Issue is one detected anomaly.
type Issue struct {
	Code     string
	Severity Severity

	// Field is the record field the issue refers to. Empty means none.
	Field string

	Message string

	// Value is the offending value. Nil means none.
	Value any

	// Suggestion is an optional remediation hint.
	Suggestion string
}

// String renders the issue for log output.
func (i Issue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Code, i.Message)
	}
	return fmt.Sprintf("[%s] %s on '%s': %s", i.Severity, i.Code, i.Field, i.Message)
}

// LoanIssues is the validation result of one loan: its id and the ordered
// issues found. An empty Issues list means the loan is clean.
type LoanIssues struct {
	LoanID int64
	Issues []Issue
}

// Clean reports whether no issue was found.
func (l LoanIssues) Clean() bool {
	return len(l.Issues) == 0
}
