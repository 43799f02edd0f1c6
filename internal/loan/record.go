// =============================================================================
// Loan Anomaly Detector - Record Model
// =============================================================================
//
// This package contains the typed loan record built from one spreadsheet row.
// A Record is produced once by ingestion and is read-only afterwards; the
// validation engine returns issues instead of storing them on the record.
//
// RECORD STRUCTURE:
//   Record
//   ├── Borrower    (always present)
//   ├── Loan        (always present, identifies the record)
//   ├── Repayment   (always present)
//   ├── Company     (nil when the row has no company data)
//   └── Collateral  (nil when the row has no collateral data)
//
// Field order inside each struct matches the column order of the source
// sheet. Validation reports issues in this order.
//
// =============================================================================

package loan

import (
	"github.com/ginjaninja78/loan-anomaly-detector/internal/coerce"
)

// =============================================================================
// AGGREGATE ROOT
// =============================================================================

// Record is one loan with its borrower, repayment state and optional company
// and collateral data.
type Record struct {
	Borrower   Borrower
	Loan       Loan
	Repayment  Repayment
	Company    *Company
	Collateral *Collateral

	// SourceRow is the 1-based row number in the source sheet.
	SourceRow int
}

// ID returns the loan id. Records are only built with a valid loan id.
func (r Record) ID() int64 {
	id, _ := r.Loan.LoanID.Get()
	return id
}

// =============================================================================
// ENTITIES
// =============================================================================

// Borrower describes the person taking the loan.
type Borrower struct {
	BorrowerID              coerce.Int
	BirthYear               coerce.Int
	Gender                  coerce.Text
	MaritalStatus           coerce.Text
	Children                coerce.Int
	ResidentialStatus       coerce.Text
	Education               coerce.Text
	Occupation              coerce.Text
	MonthsAtCurrentEmployer coerce.Int
	EmploymentStatus        coerce.Text
	YearsWorkingTotal       coerce.Int
	BorrowerIncome          coerce.Float
	BorrowerLiabilities     coerce.Float
	SpouseIncome            coerce.Float
	SpouseLiabilities       coerce.Float
	FamilyIncome            coerce.Float
	FamilyLiabilities       coerce.Float
	DTI                     coerce.Float
}

// Loan holds the contractual terms.
type Loan struct {
	LoanID                coerce.Int
	CreditScore           coerce.Text
	LoanAmount            coerce.Float
	DisbursalDate         coerce.Date
	InterestRate          coerce.Float
	LoanTerm              coerce.Int
	BorrowerType          coerce.Text
	LoanType              coerce.Text
	ExpectedRepaymentDate coerce.Date
	LoanStatus            coerce.Text
	Purpose               coerce.Text
}

// Repayment holds the repayment state and the payment history.
type Repayment struct {
	MonthlyPayment       coerce.Float
	OutstandingPrincipal coerce.Float
	RepaidPrincipal      coerce.Float
	OutstandingInterest  coerce.Float
	RepaidInterest       coerce.Float
	RepaymentDate        coerce.Date
	LastDebtPaymentDate  coerce.Date
	Arrears              coerce.Float
	DelayInterest        coerce.Float
	DaysLate             coerce.Int
	Payments             coerce.Payments
}

// Company describes a business borrower.
type Company struct {
	City               coerce.Text
	Activity           coerce.Text
	Sector             coerce.Text
	Product            coerce.Text
	NumberOfEmployees  coerce.Int
	AnnualRevenue      coerce.Float
	AnnualProfit       coerce.Float
	CompanyType        coerce.Text
	CompanyAgeYears    coerce.Int
	CompanyDescription coerce.Text
	ShareholdersEquity coerce.Float
}

// Collateral describes the asset securing the loan.
type Collateral struct {
	AppraisalDate         coerce.Date
	AppraisalProvider     coerce.Text
	CollateralDescription coerce.Text
	CollateralMarketValue coerce.Float
	CollateralName        coerce.Text
	CollateralOwner       coerce.Text
	GuarantorTitle        coerce.Text
}

// =============================================================================
// DATE FIELD ENUMERATION
// =============================================================================

// DateField pairs a field name with its value.
type DateField struct {
	Name  string
	Value coerce.Date
}

// DateFields returns the loan's date fields in declaration order.
func (l Loan) DateFields() []DateField {
	return []DateField{
		{Name: "disbursal_date", Value: l.DisbursalDate},
		{Name: "expected_repayment_date", Value: l.ExpectedRepaymentDate},
	}
}

// DateFields returns the repayment's date fields in declaration order.
func (r Repayment) DateFields() []DateField {
	return []DateField{
		{Name: "repayment_date", Value: r.RepaymentDate},
		{Name: "last_debt_payment_date", Value: r.LastDebtPaymentDate},
	}
}

// DateFields returns the collateral's date fields in declaration order.
func (c Collateral) DateFields() []DateField {
	return []DateField{
		{Name: "appraisal_date", Value: c.AppraisalDate},
	}
}
