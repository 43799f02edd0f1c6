package csvwriter

import (
	"github.com/ginjaninja78/loan-anomaly-detector/internal/validation"
)

// Summary counts what a report contains.
type Summary struct {
	Loans      int
	CleanLoans int
	Issues     int
	BySeverity map[validation.Severity]int
	ByCode     map[string]int
}

// Summarize counts loans and issues.
func Summarize(results []validation.LoanIssues) Summary {
	s := Summary{
		Loans:      len(results),
		BySeverity: make(map[validation.Severity]int),
		ByCode:     make(map[string]int),
	}
	for _, r := range results {
		if r.Clean() {
			s.CleanLoans++
			continue
		}
		for _, issue := range r.Issues {
			s.Issues++
			s.BySeverity[issue.Severity]++
			s.ByCode[issue.Code]++
		}
	}
	return s
}

// Rows returns the number of report rows, excluding the header.
func (s Summary) Rows() int {
	return s.Issues + s.CleanLoans
}
