package validation

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/coerce"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/loan"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/xirr"
)

// =============================================================================
// CASH-FLOW DEVIATION CHECK
// =============================================================================
//
// The disbursal is the outflow and every payment entry with a parseable
// repayment date and an amount is an inflow. When the history yields no
// inflow, the repaid principal and interest totals are used as one inflow on
// the last debt payment date (or the repayment date).
//
// A loan that is still running carries its outstanding principal and
// interest at face value as a final inflow on the date of the last inflow.
//
// The check is skipped when the loan amount, disbursal date or interest rate
// is missing, when nothing was repaid yet, or when the solver cannot produce
// a rate.

func cashFlowDeviation(rec loan.Record, sensitivity float64) (Issue, bool) {
	stated, ok := rec.Loan.InterestRate.Get()
	if !ok {
		return Issue{}, false
	}

	flows, ok := cashFlows(rec)
	if !ok {
		return Issue{}, false
	}

	rate, err := xirr.Solve(flows)
	if err != nil {
		return Issue{}, false
	}

	diff := math.Abs(stated - rate)
	if diff <= sensitivity {
		return Issue{}, false
	}

	return Issue{
		Code:       CodeXIRRDeviation,
		Severity:   SeverityError,
		Field:      "interest_rate",
		Message:    fmt.Sprintf("Interest rate %s deviates from XIRR %s by %s", formatRate(stated), formatRate(rate), formatRate(diff)),
		Value:      stated,
		Suggestion: "Check the stated interest rate against the repayment schedule",
	}, true
}

// cashFlows builds the solver input. It returns false when the record has no
// usable disbursal or fewer than two flows.
func cashFlows(rec loan.Record) ([]xirr.CashFlow, bool) {
	amount, ok := rec.Loan.LoanAmount.Get()
	if !ok || amount <= 0 {
		return nil, false
	}
	disbursed, ok := rec.Loan.DisbursalDate.Get()
	if !ok {
		return nil, false
	}

	flows := []xirr.CashFlow{{Date: disbursed, Amount: -amount}}

	entries, _ := rec.Repayment.Payments.Get()
	for _, entry := range entries {
		due, err := coerce.ParsePaymentDate(entry.RepaymentDate)
		if err != nil {
			continue
		}
		inflow, ok := entry.Inflow()
		if !ok || !inflow.IsPositive() {
			continue
		}
		flows = append(flows, xirr.CashFlow{Date: due, Amount: inflow.InexactFloat64()})
	}

	if len(flows) == 1 {
		if flow, ok := aggregateInflow(rec.Repayment); ok {
			flows = append(flows, flow)
		}
	}

	if len(flows) < 2 {
		return nil, false
	}

	if balance := outstanding(rec.Repayment); balance.IsPositive() {
		flows = append(flows, xirr.CashFlow{Date: lastDate(flows), Amount: balance.InexactFloat64()})
	}
	return flows, true
}

// outstanding returns the unpaid principal and interest.
func outstanding(r loan.Repayment) decimal.Decimal {
	total := decimal.Zero
	if p, ok := r.OutstandingPrincipal.Get(); ok && p > 0 {
		total = total.Add(decimal.NewFromFloat(p))
	}
	if i, ok := r.OutstandingInterest.Get(); ok && i > 0 {
		total = total.Add(decimal.NewFromFloat(i))
	}
	return total
}

func lastDate(flows []xirr.CashFlow) time.Time {
	last := flows[0].Date
	for _, f := range flows[1:] {
		if f.Date.After(last) {
			last = f.Date
		}
	}
	return last
}

func aggregateInflow(r loan.Repayment) (xirr.CashFlow, bool) {
	total := decimal.Zero
	if p, ok := r.RepaidPrincipal.Get(); ok {
		total = total.Add(decimal.NewFromFloat(p))
	}
	if i, ok := r.RepaidInterest.Get(); ok {
		total = total.Add(decimal.NewFromFloat(i))
	}
	if !total.IsPositive() {
		return xirr.CashFlow{}, false
	}

	date, ok := r.LastDebtPaymentDate.Get()
	if !ok {
		date, ok = r.RepaymentDate.Get()
	}
	if !ok {
		return xirr.CashFlow{}, false
	}
	return xirr.CashFlow{Date: date, Amount: total.InexactFloat64()}, true
}

// formatRate renders a rate with four decimals, e.g. "0.0700".
func formatRate(r float64) string {
	return decimal.NewFromFloat(r).StringFixed(4)
}
