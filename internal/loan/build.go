package loan

// presence is satisfied by every coerce.Value.
type presence interface {
	IsAbsent() bool
}

// FromRow builds a Record from a map of normalized label to raw cell value.
//
// Rows without a valid, non-zero borrower id and loan id are rejected. Labels
// that are not known columns are ignored. Only labels present in the row are
// coerced, so a missing column leaves its field Absent; for payments this is
// different from an empty cell, which is Invalid.
func FromRow(row map[string]any, sourceRow int) (Record, bool) {
	var e entities
	fill(&e, row, BorrowerColumns)
	fill(&e, row, LoanColumns)
	fill(&e, row, RepaymentColumns)
	hasCompany := fill(&e, row, CompanyColumns)
	hasCollateral := fill(&e, row, CollateralColumns)

	borrowerID, ok := e.Borrower.BorrowerID.Get()
	if !ok || borrowerID == 0 {
		return Record{}, false
	}
	loanID, ok := e.Loan.LoanID.Get()
	if !ok || loanID == 0 {
		return Record{}, false
	}

	rec := Record{
		Borrower:  e.Borrower,
		Loan:      e.Loan,
		Repayment: e.Repayment,
		SourceRow: sourceRow,
	}
	if hasCompany {
		rec.Company = &e.Company
	}
	if hasCollateral {
		rec.Collateral = &e.Collateral
	}
	return rec, true
}

// fill coerces the row cells of every column in table and reports whether
// any of them produced a non-Absent value.
func fill(e *entities, row map[string]any, table []Column) bool {
	present := false
	for _, c := range table {
		raw, ok := row[c.Label]
		if !ok {
			continue
		}
		if v := c.set(e, raw); !v.IsAbsent() {
			present = true
		}
	}
	return present
}
