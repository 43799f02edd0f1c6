// =============================================================================
// Loan Anomaly Detector - Coerced Values
// =============================================================================
//
// Every spreadsheet cell that feeds a typed field is converted into a Value.
// A Value is in exactly one of three states:
//
//   Absent  : the cell was empty or the column was not supplied
//   Valid   : the cell was converted to the target type
//   Invalid : the cell was supplied but could not be converted
//
// Validation rules branch on the state explicitly, so an empty cell and a
// malformed cell can produce different issue codes.
//
// =============================================================================

package coerce

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// State describes how a raw cell value was resolved.
type State uint8

const (
	// Absent is the zero state: nothing was supplied.
	Absent State = iota
	// Valid means the raw value was converted successfully.
	Valid
	// Invalid means a value was supplied but was malformed.
	Invalid
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "absent"
	}
}

// Markers rendered for Invalid values. They never parse as the target type.
const (
	MarkerFloat    = "invalid-float"
	MarkerInt      = "invalid-int"
	MarkerDate     = "invalid-date"
	MarkerAmount   = "invalid-amount"
	MarkerPayments = "invalid-payments"
)

// Value is the tagged result of a coercion.
// The zero Value is Absent.
type Value[T any] struct {
	state  State
	val    T
	marker string
	raw    string
}

// Of returns a Valid value.
func Of[T any](v T) Value[T] {
	return Value[T]{state: Valid, val: v}
}

// Missing returns an Absent value.
func Missing[T any]() Value[T] {
	return Value[T]{}
}

// Bad returns an Invalid value carrying the marker and the raw source text.
func Bad[T any](marker, raw string) Value[T] {
	return Value[T]{state: Invalid, marker: marker, raw: raw}
}

// Get returns the converted value and true only when the value is Valid.
func (v Value[T]) Get() (T, bool) {
	return v.val, v.state == Valid
}

// State reports the resolution state.
func (v Value[T]) State() State { return v.state }

// IsAbsent reports whether nothing was supplied.
func (v Value[T]) IsAbsent() bool { return v.state == Absent }

// IsValid reports whether the value converted successfully.
func (v Value[T]) IsValid() bool { return v.state == Valid }

// IsInvalid reports whether a malformed value was supplied.
func (v Value[T]) IsInvalid() bool { return v.state == Invalid }

// Raw returns the source text of an Invalid value.
func (v Value[T]) Raw() string { return v.raw }

// String renders the value for reports. Absent renders empty and Invalid
// renders its marker.
func (v Value[T]) String() string {
	switch v.state {
	case Absent:
		return ""
	case Invalid:
		return v.marker
	}

	switch x := any(v.val).(type) {
	case time.Time:
		return x.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case decimal.Decimal:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Widen converts an integer value to a float value, keeping its state.
func Widen(v Value[int64]) Value[float64] {
	switch v.state {
	case Valid:
		return Of(float64(v.val))
	case Invalid:
		return Bad[float64](v.marker, v.raw)
	default:
		return Missing[float64]()
	}
}

// Type aliases used by the record model.
type (
	Float    = Value[float64]
	Int      = Value[int64]
	Date     = Value[time.Time]
	Text     = Value[string]
	Amount   = Value[decimal.Decimal]
	Payments = Value[[]PaymentEntry]
)
