// =============================================================================
// Loan Anomaly Detector - Validation Engine
// =============================================================================
//
// This module applies the business rules to one loan record and returns the
// issues found. Validation is a pure function: it never mutates the record,
// never returns an error and is safe to call from many goroutines.
//
// ISSUE ORDER:
//   Issues are concatenated in entity order
//     Borrower -> Loan -> Repayment -> Company -> Collateral
//   and, inside each entity, in field declaration order. The payment history
//   findings and the cash-flow deviation check come at the payments field.
//
// ABSENT VS INVALID:
//   - Absent values (column missing or cell empty) never produce an issue.
//   - Invalid values (cell present but malformed) produce INVALID_DATE,
//     INVALID_NUMBER or NON_COMPLETE_PAYMENTS.
//
// =============================================================================

package validation

import (
	"fmt"
	"time"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/coerce"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/loan"
)

// DefaultXIRRSensitivity is the tolerated gap between the stated interest
// rate and the computed XIRR.
const DefaultXIRRSensitivity = 0.07

// DefaultGraceDays is the number of days a payment may be late before the
// loan is reported as defaulted.
const DefaultGraceDays = 90

const (
	msgNegativeValue       = "Value must not be negative"
	msgInvalidDate         = "Date is not valid formatted"
	msgInvalidNumber       = "Value is not a valid number"
	msgNonCompletePayments = "Payments column is not consistent"
	msgParseError          = "Payment dates could not be parsed"
)

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks one record and returns its issues.
func Validate(rec loan.Record, xirrSensitivity float64) LoanIssues {
	issues := make([]Issue, 0)
	issues = append(issues, validateBorrower(rec.Borrower)...)
	issues = append(issues, validateLoan(rec.Loan)...)
	issues = append(issues, validateRepayment(rec, xirrSensitivity)...)
	if rec.Company != nil {
		issues = append(issues, validateCompany(*rec.Company)...)
	}
	if rec.Collateral != nil {
		issues = append(issues, validateCollateral(*rec.Collateral)...)
	}

	return LoanIssues{LoanID: rec.ID(), Issues: issues}
}

// =============================================================================
// ENTITY RULES
// =============================================================================

func validateBorrower(b loan.Borrower) []Issue {
	var issues []Issue
	issues = checkInt(issues, "children", b.Children, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkInt(issues, "months_at_current_employer", b.MonthsAtCurrentEmployer, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkInt(issues, "years_working_total", b.YearsWorkingTotal, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkFloat(issues, "borrower_income", b.BorrowerIncome, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkFloat(issues, "borrower_liabilities", b.BorrowerLiabilities, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkFloat(issues, "spouse_income", b.SpouseIncome, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkFloat(issues, "spouse_liabilities", b.SpouseLiabilities, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkFloat(issues, "family_income", b.FamilyIncome, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkFloat(issues, "family_liabilities", b.FamilyLiabilities, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkFloat(issues, "dti", b.DTI, negative, CodeDTINegative, "Debt-to-income ratio must not be negative")
	return issues
}

func validateLoan(l loan.Loan) []Issue {
	var issues []Issue
	issues = checkFloat(issues, "loan_amount", l.LoanAmount, nonPositive, CodeAmountNonPositive, "Loan amount must be positive")
	issues = checkDates(issues, l.DateFields())
	return issues
}

func validateRepayment(rec loan.Record, xirrSensitivity float64) []Issue {
	r := rec.Repayment

	var issues []Issue
	issues = checkFloat(issues, "monthly_payment", r.MonthlyPayment, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkFloat(issues, "outstanding_principal", r.OutstandingPrincipal, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkFloat(issues, "repaid_principal", r.RepaidPrincipal, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkFloat(issues, "outstanding_interest", r.OutstandingInterest, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkFloat(issues, "repaid_interest", r.RepaidInterest, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkDates(issues, r.DateFields())
	issues = checkFloat(issues, "arrears", r.Arrears, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkFloat(issues, "delay_interest", r.DelayInterest, negative, CodeNegativeValue, msgNegativeValue)
	issues = checkInt(issues, "days_late", r.DaysLate, negative, CodeNegativeDaysLate, "Days late must not be negative")

	issues = append(issues, validatePayments(r.Payments)...)

	if issue, ok := cashFlowDeviation(rec, xirrSensitivity); ok {
		issues = append(issues, issue)
	}
	return issues
}

func validateCompany(c loan.Company) []Issue {
	var issues []Issue
	issues = checkInt(issues, "number_of_employees", c.NumberOfEmployees, negative, CodeNegativeEmployees, "Number of employees must not be negative")
	issues = checkFloat(issues, "annual_revenue", c.AnnualRevenue, negative, CodeNegativeRevenue, "Annual revenue must not be negative")
	return issues
}

func validateCollateral(c loan.Collateral) []Issue {
	var issues []Issue
	issues = checkDates(issues, c.DateFields())
	issues = checkFloat(issues, "collateral_market_value", c.CollateralMarketValue, nonPositive, CodeCollateralNonPositive, "Collateral market value must be positive")
	return issues
}

// =============================================================================
// PAYMENT HISTORY
// =============================================================================

// validatePayments reports a malformed payments cell, or walks the entries
// and reports every payment made more than DefaultGraceDays after it was due.
func validatePayments(p coerce.Payments) []Issue {
	if p.IsInvalid() {
		return []Issue{{
			Code:     CodeNonCompletePayments,
			Severity: SeverityError,
			Field:    "payments",
			Message:  msgNonCompletePayments,
		}}
	}

	entries, ok := p.Get()
	if !ok {
		return nil
	}

	var issues []Issue
	for _, entry := range entries {
		if !entry.HasDates() {
			continue
		}

		paid, errPaid := coerce.ParsePaymentDate(entry.PaymentDate)
		due, errDue := coerce.ParsePaymentDate(entry.RepaymentDate)
		if errPaid != nil || errDue != nil {
			issues = append(issues, Issue{
				Code:     CodeParseError,
				Severity: SeverityWarn,
				Field:    "payments",
				Message:  msgParseError,
				Value:    entry.String(),
			})
			continue
		}

		diff := int(paid.Sub(due).Hours() / 24)
		if diff > DefaultGraceDays {
			issues = append(issues, Issue{
				Code:     CodeDefault,
				Severity: SeverityError,
				Field:    "payments",
				Message:  fmt.Sprintf("Payment expired %d days", diff),
				Value:    fmt.Sprintf("payment date: %s -- repayment date:%s", longDate(paid), longDate(due)),
			})
		}
	}
	return issues
}

// longDate renders a date with a zero time of day, e.g. "2023-09-20 00:00:00".
func longDate(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// =============================================================================
// FIELD CHECKS
// =============================================================================

func negative(f float64) bool    { return f < 0 }
func nonPositive(f float64) bool { return f <= 0 }

// checkFloat appends an issue when v is Valid and violates the rule, or an
// INVALID_NUMBER warning when v is Invalid.
func checkFloat(issues []Issue, field string, v coerce.Float, violates func(float64) bool, code, message string) []Issue {
	if v.IsInvalid() {
		return append(issues, invalidNumber(field, v))
	}
	if f, ok := v.Get(); ok && violates(f) {
		issues = append(issues, Issue{Code: code, Severity: SeverityError, Field: field, Message: message, Value: f})
	}
	return issues
}

// checkInt is checkFloat for integer fields; the reported value stays an
// integer.
func checkInt(issues []Issue, field string, v coerce.Int, violates func(float64) bool, code, message string) []Issue {
	if v.IsInvalid() {
		return append(issues, invalidNumber(field, v))
	}
	if f, ok := coerce.Widen(v).Get(); ok && violates(f) {
		n, _ := v.Get()
		issues = append(issues, Issue{Code: code, Severity: SeverityError, Field: field, Message: message, Value: n})
	}
	return issues
}

func checkDates(issues []Issue, fields []loan.DateField) []Issue {
	for _, f := range fields {
		if f.Value.IsInvalid() {
			issues = append(issues, Issue{
				Code:     CodeInvalidDate,
				Severity: SeverityError,
				Field:    f.Name,
				Message:  msgInvalidDate,
				Value:    f.Value,
			})
		}
	}
	return issues
}

// invalidNumber reports the cell text that failed to parse.
func invalidNumber(field string, v interface{ Raw() string }) Issue {
	return Issue{
		Code:     CodeInvalidNumber,
		Severity: SeverityWarn,
		Field:    field,
		Message:  msgInvalidNumber,
		Value:    v.Raw(),
	}
}
