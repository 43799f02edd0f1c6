// =============================================================================
// Loan Anomaly Detector - Field Coercion
// =============================================================================
//
// This module converts raw cell values into typed Values. The functions are
// total: they never panic and never return an error. A value that cannot be
// converted becomes an Invalid Value carrying a type-specific marker.
//
// ACCEPTED INPUTS:
//   The ingestion layer hands over whatever it read from the sheet:
//   - string        : raw cell text (the common case)
//   - float64/int   : native numbers
//   - time.Time     : cells already decoded as dates (Excel serial dates)
//   - nil           : missing cell
//
// =============================================================================

package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE FORMATS
// =============================================================================

// DateLayouts are tried in order; the first layout that parses wins.
// Day-first layouts come before the US layout, so "03/04/2024" is 3 April.
var DateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
	"2006-01-02T15:04:05.999999999",
}

// PaymentDateLayout is the layout of the dates inside a payment history.
const PaymentDateLayout = "02/01/2006"

// =============================================================================
// NUMERIC COERCION
// =============================================================================

// ToFloat converts a raw value to a float.
//
// Strings have every space removed and a comma decimal separator turned into
// a dot before parsing, so "1 250,50" becomes 1250.5.
func ToFloat(raw any) Float {
	switch x := raw.(type) {
	case nil:
		return Missing[float64]()
	case float64:
		return finiteOrBad(x, fmt.Sprint(x))
	case float32:
		return finiteOrBad(float64(x), fmt.Sprint(x))
	case int:
		return Of(float64(x))
	case int64:
		return Of(float64(x))
	case int32:
		return Of(float64(x))
	case string:
		if isBlank(x) {
			return Missing[float64]()
		}
		f, err := strconv.ParseFloat(normalizeNumber(x), 64)
		if err != nil {
			return Bad[float64](MarkerFloat, x)
		}
		return finiteOrBad(f, x)
	default:
		return Bad[float64](MarkerFloat, fmt.Sprint(x))
	}
}

// ToInt converts a raw value to an integer.
//
// A float with no fractional part is truncated; any other float is invalid.
// Strings are trimmed and parsed as base-10 integers.
func ToInt(raw any) Int {
	switch x := raw.(type) {
	case nil:
		return Missing[int64]()
	case int:
		return Of(int64(x))
	case int64:
		return Of(x)
	case int32:
		return Of(int64(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) {
			return Bad[int64](MarkerInt, fmt.Sprint(x))
		}
		return Of(int64(x))
	case float32:
		return ToInt(float64(x))
	case string:
		if isBlank(x) {
			return Missing[int64]()
		}
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return Bad[int64](MarkerInt, x)
		}
		return Of(n)
	default:
		return Bad[int64](MarkerInt, fmt.Sprint(x))
	}
}

// ToAmount converts a raw value to a decimal amount using the same
// normalization as ToFloat.
func ToAmount(raw any) Amount {
	switch x := raw.(type) {
	case nil:
		return Missing[decimal.Decimal]()
	case decimal.Decimal:
		return Of(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Bad[decimal.Decimal](MarkerAmount, fmt.Sprint(x))
		}
		return Of(decimal.NewFromFloat(x))
	case int:
		return Of(decimal.NewFromInt(int64(x)))
	case int64:
		return Of(decimal.NewFromInt(x))
	case string:
		if isBlank(x) {
			return Missing[decimal.Decimal]()
		}
		d, err := decimal.NewFromString(normalizeNumber(x))
		if err != nil {
			return Bad[decimal.Decimal](MarkerAmount, x)
		}
		return Of(d)
	default:
		return Bad[decimal.Decimal](MarkerAmount, fmt.Sprint(x))
	}
}

// =============================================================================
// DATE COERCION
// =============================================================================

// ToDate converts a raw value to a calendar date (UTC midnight).
// time.Time values pass through with the time of day dropped.
func ToDate(raw any) Date {
	switch x := raw.(type) {
	case nil:
		return Missing[time.Time]()
	case time.Time:
		if x.IsZero() {
			return Missing[time.Time]()
		}
		return Of(truncateDay(x))
	case string:
		if isBlank(x) {
			return Missing[time.Time]()
		}
		s := strings.TrimSpace(x)
		for _, layout := range DateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Of(truncateDay(t))
			}
		}
		return Bad[time.Time](MarkerDate, x)
	default:
		return Bad[time.Time](MarkerDate, fmt.Sprint(x))
	}
}

// ParsePaymentDate parses a DD/MM/YYYY payment-history date.
func ParsePaymentDate(s string) (time.Time, error) {
	return time.Parse(PaymentDateLayout, strings.TrimSpace(s))
}

// =============================================================================
// TEXT COERCION
// =============================================================================

// ToText trims a raw value. Blank text is Absent.
func ToText(raw any) Text {
	switch x := raw.(type) {
	case nil:
		return Missing[string]()
	case string:
		if isBlank(x) {
			return Missing[string]()
		}
		return Of(strings.TrimSpace(x))
	case float64:
		return Of(strconv.FormatFloat(x, 'f', -1, 64))
	case time.Time:
		return Of(x.Format("2006-01-02"))
	default:
		return Of(fmt.Sprint(x))
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// normalizeNumber removes spaces (including non-breaking spaces used as
// thousands separators) and converts a decimal comma to a dot.
func normalizeNumber(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, "\t", "")
	return strings.ReplaceAll(s, ",", ".")
}

func finiteOrBad(f float64, raw string) Float {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Bad[float64](MarkerFloat, raw)
	}
	return Of(f)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
