package loan

import (
	"strings"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/coerce"
)

// Kind is the coercion applied to a column.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindDate
	KindPayments
)

// entities collects the fields of one row before the Record is assembled.
type entities struct {
	Borrower   Borrower
	Loan       Loan
	Repayment  Repayment
	Company    Company
	Collateral Collateral
}

// Column maps a normalized sheet label to a record field.
type Column struct {
	Label string
	Kind  Kind

	// set coerces a raw cell into the field and returns the stored value.
	set func(e *entities, raw any) presence
}

func column[T any](label string, kind Kind, convert func(any) coerce.Value[T], field func(*entities) *coerce.Value[T]) Column {
	return Column{
		Label: label,
		Kind:  kind,
		set: func(e *entities, raw any) presence {
			dst := field(e)
			*dst = convert(raw)
			return *dst
		},
	}
}

func textColumn(label string, field func(*entities) *coerce.Text) Column {
	return column(label, KindText, coerce.ToText, field)
}

func intColumn(label string, field func(*entities) *coerce.Int) Column {
	return column(label, KindInt, coerce.ToInt, field)
}

func floatColumn(label string, field func(*entities) *coerce.Float) Column {
	return column(label, KindFloat, coerce.ToFloat, field)
}

func dateColumn(label string, field func(*entities) *coerce.Date) Column {
	return column(label, KindDate, coerce.ToDate, field)
}

// =============================================================================
// COLUMN TABLES
// =============================================================================

// BorrowerColumns lists the borrower columns in field order.
var BorrowerColumns = []Column{
	intColumn("borrower id", func(e *entities) *coerce.Int { return &e.Borrower.BorrowerID }),
	intColumn("birth year", func(e *entities) *coerce.Int { return &e.Borrower.BirthYear }),
	textColumn("gender", func(e *entities) *coerce.Text { return &e.Borrower.Gender }),
	textColumn("marital status", func(e *entities) *coerce.Text { return &e.Borrower.MaritalStatus }),
	intColumn("children", func(e *entities) *coerce.Int { return &e.Borrower.Children }),
	textColumn("residential status", func(e *entities) *coerce.Text { return &e.Borrower.ResidentialStatus }),
	textColumn("education", func(e *entities) *coerce.Text { return &e.Borrower.Education }),
	textColumn("occupation", func(e *entities) *coerce.Text { return &e.Borrower.Occupation }),
	intColumn("months at current employer", func(e *entities) *coerce.Int { return &e.Borrower.MonthsAtCurrentEmployer }),
	textColumn("employment status", func(e *entities) *coerce.Text { return &e.Borrower.EmploymentStatus }),
	intColumn("years working total", func(e *entities) *coerce.Int { return &e.Borrower.YearsWorkingTotal }),
	floatColumn("borrower income", func(e *entities) *coerce.Float { return &e.Borrower.BorrowerIncome }),
	floatColumn("borrower liabilities", func(e *entities) *coerce.Float { return &e.Borrower.BorrowerLiabilities }),
	floatColumn("spouse income", func(e *entities) *coerce.Float { return &e.Borrower.SpouseIncome }),
	floatColumn("spouse liabilities", func(e *entities) *coerce.Float { return &e.Borrower.SpouseLiabilities }),
	floatColumn("family income", func(e *entities) *coerce.Float { return &e.Borrower.FamilyIncome }),
	floatColumn("family liabilities", func(e *entities) *coerce.Float { return &e.Borrower.FamilyLiabilities }),
	floatColumn("dti", func(e *entities) *coerce.Float { return &e.Borrower.DTI }),
}

// LoanColumns lists the loan columns in field order.
var LoanColumns = []Column{
	intColumn("loan id", func(e *entities) *coerce.Int { return &e.Loan.LoanID }),
	textColumn("credit score", func(e *entities) *coerce.Text { return &e.Loan.CreditScore }),
	floatColumn("loan amount", func(e *entities) *coerce.Float { return &e.Loan.LoanAmount }),
	dateColumn("disbursal date", func(e *entities) *coerce.Date { return &e.Loan.DisbursalDate }),
	floatColumn("interest rate", func(e *entities) *coerce.Float { return &e.Loan.InterestRate }),
	intColumn("loan term", func(e *entities) *coerce.Int { return &e.Loan.LoanTerm }),
	textColumn("borrower type", func(e *entities) *coerce.Text { return &e.Loan.BorrowerType }),
	textColumn("loan type", func(e *entities) *coerce.Text { return &e.Loan.LoanType }),
	dateColumn("expected repayment date", func(e *entities) *coerce.Date { return &e.Loan.ExpectedRepaymentDate }),
	textColumn("loan status", func(e *entities) *coerce.Text { return &e.Loan.LoanStatus }),
	textColumn("purpose", func(e *entities) *coerce.Text { return &e.Loan.Purpose }),
}

// RepaymentColumns lists the repayment columns in field order.
var RepaymentColumns = []Column{
	floatColumn("monthly payment", func(e *entities) *coerce.Float { return &e.Repayment.MonthlyPayment }),
	floatColumn("outstanding principal", func(e *entities) *coerce.Float { return &e.Repayment.OutstandingPrincipal }),
	floatColumn("repaid principal", func(e *entities) *coerce.Float { return &e.Repayment.RepaidPrincipal }),
	floatColumn("outstanding interest", func(e *entities) *coerce.Float { return &e.Repayment.OutstandingInterest }),
	floatColumn("repaid interest", func(e *entities) *coerce.Float { return &e.Repayment.RepaidInterest }),
	dateColumn("repayment date", func(e *entities) *coerce.Date { return &e.Repayment.RepaymentDate }),
	dateColumn("last debt payment date", func(e *entities) *coerce.Date { return &e.Repayment.LastDebtPaymentDate }),
	floatColumn("arrears", func(e *entities) *coerce.Float { return &e.Repayment.Arrears }),
	floatColumn("delay interest", func(e *entities) *coerce.Float { return &e.Repayment.DelayInterest }),
	intColumn("days late", func(e *entities) *coerce.Int { return &e.Repayment.DaysLate }),
	column("payments", KindPayments, coerce.ToPayments, func(e *entities) *coerce.Payments { return &e.Repayment.Payments }),
}

// CompanyColumns lists the company columns in field order.
var CompanyColumns = []Column{
	textColumn("city", func(e *entities) *coerce.Text { return &e.Company.City }),
	textColumn("activity", func(e *entities) *coerce.Text { return &e.Company.Activity }),
	textColumn("sector", func(e *entities) *coerce.Text { return &e.Company.Sector }),
	textColumn("product", func(e *entities) *coerce.Text { return &e.Company.Product }),
	intColumn("number of employees", func(e *entities) *coerce.Int { return &e.Company.NumberOfEmployees }),
	floatColumn("annual revenue", func(e *entities) *coerce.Float { return &e.Company.AnnualRevenue }),
	floatColumn("annual profit", func(e *entities) *coerce.Float { return &e.Company.AnnualProfit }),
	textColumn("company type", func(e *entities) *coerce.Text { return &e.Company.CompanyType }),
	intColumn("company age (years)", func(e *entities) *coerce.Int { return &e.Company.CompanyAgeYears }),
	textColumn("company description", func(e *entities) *coerce.Text { return &e.Company.CompanyDescription }),
	floatColumn("shareholders equity", func(e *entities) *coerce.Float { return &e.Company.ShareholdersEquity }),
}

// CollateralColumns lists the collateral columns in field order.
var CollateralColumns = []Column{
	dateColumn("appraisal date", func(e *entities) *coerce.Date { return &e.Collateral.AppraisalDate }),
	textColumn("appraisal provider", func(e *entities) *coerce.Text { return &e.Collateral.AppraisalProvider }),
	textColumn("collateral description", func(e *entities) *coerce.Text { return &e.Collateral.CollateralDescription }),
	floatColumn("collateral market value", func(e *entities) *coerce.Float { return &e.Collateral.CollateralMarketValue }),
	textColumn("collateral name", func(e *entities) *coerce.Text { return &e.Collateral.CollateralName }),
	textColumn("collateral owner", func(e *entities) *coerce.Text { return &e.Collateral.CollateralOwner }),
	textColumn("guarantor title", func(e *entities) *coerce.Text { return &e.Collateral.GuarantorTitle }),
}

// DefaultAliases maps known misspelled labels to their canonical label.
var DefaultAliases = map[string]string{
	"colateral description": "collateral description",
}

var dateLabels = func() map[string]bool {
	m := make(map[string]bool)
	for _, table := range [][]Column{BorrowerColumns, LoanColumns, RepaymentColumns, CompanyColumns, CollateralColumns} {
		for _, c := range table {
			if c.Kind == KindDate {
				m[c.Label] = true
			}
		}
	}
	return m
}()

// =============================================================================
// HEADER HANDLING
// =============================================================================

// NormalizeHeader lower-cases and trims a header cell.
func NormalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsDateLabel reports whether a normalized label is a date column.
func IsDateLabel(label string) bool {
	return dateLabels[label]
}

// ResolveHeaders normalizes raw header cells and applies aliases. An alias is
// only applied when its canonical label is not already in the header, so a
// sheet carrying both spellings keeps the canonical column.
//
// extra aliases are merged over DefaultAliases; their keys and values are
// normalized too.
func ResolveHeaders(raw []string, extra map[string]string) []string {
	aliases := make(map[string]string, len(DefaultAliases)+len(extra))
	for k, v := range DefaultAliases {
		aliases[k] = v
	}
	for k, v := range extra {
		aliases[NormalizeHeader(k)] = NormalizeHeader(v)
	}

	headers := make([]string, len(raw))
	present := make(map[string]bool, len(raw))
	for i, h := range raw {
		headers[i] = NormalizeHeader(h)
		present[headers[i]] = true
	}

	for i, h := range headers {
		canonical, ok := aliases[h]
		if !ok || present[canonical] {
			continue
		}
		headers[i] = canonical
		present[canonical] = true
	}
	return headers
}

// RowMap pairs resolved headers with the cells of one sheet row. Columns with
// an empty header are skipped and missing trailing cells become empty text,
// so a column present in the header is always present in the map.
func RowMap(headers []string, cells []string) map[string]any {
	row := make(map[string]any, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(cells) {
			row[h] = cells[i]
		} else {
			row[h] = ""
		}
	}
	return row
}

// IsBlankRow reports whether every cell is empty.
func IsBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
