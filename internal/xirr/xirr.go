// =============================================================================
// Loan Anomaly Detector - XIRR Solver
// =============================================================================
//
// This package computes the annualized internal rate of return of an
// irregular cash-flow series (XIRR). Negative amounts are outflows, positive
// amounts are inflows.
//
// ALGORITHM:
//   1. Newton's method from the initial guess
//   2. If Newton fails to converge or leaves the domain, bisection over a
//      bracket that is widened until the NPV changes sign
//
// NPV(r) = Σ aᵢ / (1+r)^(dᵢ/365), dᵢ = days since the earliest flow.
//
// =============================================================================

package xirr

import (
	"errors"
	"math"
	"sort"
	"time"
)

var (
	// ErrInsufficientFlows is returned for fewer than two cash flows.
	ErrInsufficientFlows = errors.New("xirr: at least two cash flows are required")
	// ErrNoSignChange is returned when all flows have the same sign.
	ErrNoSignChange = errors.New("xirr: cash flows must contain both inflows and outflows")
	// ErrNoConvergence is returned when neither method finds a root.
	ErrNoConvergence = errors.New("xirr: solver did not converge")
)

// CashFlow is a dated amount.
type CashFlow struct {
	Date   time.Time
	Amount float64
}

// Options control the solver.
type Options struct {
	Guess            float64
	Tolerance        float64
	MaxIterations    int
	MaxBisectionIter int
	UpperBound       float64
}

// DefaultOptions returns the solver defaults.
func DefaultOptions() Options {
	return Options{
		Guess:            0.1,
		Tolerance:        1e-9,
		MaxIterations:    100,
		MaxBisectionIter: 300,
		UpperBound:       1e6,
	}
}

const (
	daysPerYear = 365.0
	lowerBound  = -0.999999
)

// Solve returns the XIRR of flows with the default options.
func Solve(flows []CashFlow) (float64, error) {
	return SolveWithOptions(flows, DefaultOptions())
}

// SolveWithOptions returns the XIRR of flows.
func SolveWithOptions(flows []CashFlow, opts Options) (float64, error) {
	if len(flows) < 2 {
		return 0, ErrInsufficientFlows
	}

	var hasIn, hasOut bool
	for _, f := range flows {
		switch {
		case f.Amount > 0:
			hasIn = true
		case f.Amount < 0:
			hasOut = true
		}
	}
	if !hasIn || !hasOut {
		return 0, ErrNoSignChange
	}

	s := newSeries(flows)

	if rate, ok := s.newton(opts); ok {
		return rate, nil
	}
	return s.bisect(opts)
}

// =============================================================================
// NPV SERIES
// =============================================================================

type series struct {
	years   []float64
	amounts []float64
}

func newSeries(flows []CashFlow) series {
	sorted := make([]CashFlow, len(flows))
	copy(sorted, flows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	start := sorted[0].Date
	s := series{
		years:   make([]float64, len(sorted)),
		amounts: make([]float64, len(sorted)),
	}
	for i, f := range sorted {
		s.years[i] = f.Date.Sub(start).Hours() / 24 / daysPerYear
		s.amounts[i] = f.Amount
	}
	return s
}

func (s series) npv(rate float64) float64 {
	var total float64
	for i, a := range s.amounts {
		total += a / math.Pow(1+rate, s.years[i])
	}
	return total
}

func (s series) derivative(rate float64) float64 {
	var total float64
	for i, a := range s.amounts {
		if s.years[i] == 0 {
			continue
		}
		total -= s.years[i] * a / math.Pow(1+rate, s.years[i]+1)
	}
	return total
}

// =============================================================================
// ROOT FINDING
// =============================================================================

func (s series) newton(opts Options) (float64, bool) {
	rate := opts.Guess
	for i := 0; i < opts.MaxIterations; i++ {
		d := s.derivative(rate)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return 0, false
		}
		next := rate - s.npv(rate)/d
		if math.IsNaN(next) || math.IsInf(next, 0) || next <= -1 {
			return 0, false
		}
		if math.Abs(next-rate) < opts.Tolerance {
			return next, true
		}
		rate = next
	}
	return 0, false
}

func (s series) bisect(opts Options) (float64, error) {
	lo, hi := lowerBound, 1.0
	fLo := s.npv(lo)
	fHi := s.npv(hi)
	for sameSign(fLo, fHi) {
		if hi >= opts.UpperBound {
			return 0, ErrNoConvergence
		}
		hi *= 2
		fHi = s.npv(hi)
	}

	for i := 0; i < opts.MaxBisectionIter; i++ {
		mid := (lo + hi) / 2
		fMid := s.npv(mid)
		if math.Abs(fMid) < opts.Tolerance || (hi-lo)/2 < opts.Tolerance {
			return mid, nil
		}
		if sameSign(fLo, fMid) {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return 0, ErrNoConvergence
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
