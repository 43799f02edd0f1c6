package coerce

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Payment history keys, matched case-insensitively.
const (
	KeyPaymentDate     = "payment date"
	KeyRepaymentDate   = "repayment date"
	KeyAmount          = "amount"
	KeyRepaidPrincipal = "repaid principal"
	KeyRepaidInterest  = "repaid interest"
)

// PaymentEntry is one element of a loan's payment history.
//
// PaymentDate is when the money arrived and RepaymentDate is when it was due.
// Both are kept as text; they are parsed during validation so that a bad
// entry can be reported on its own.
type PaymentEntry struct {
	PaymentDate     string
	RepaymentDate   string
	Amount          Amount
	RepaidPrincipal Amount
	RepaidInterest  Amount

	// Raw is the decoded mapping as it appeared in the cell.
	Raw map[string]any
}

// HasDates reports whether both date strings are present.
func (p PaymentEntry) HasDates() bool {
	return p.PaymentDate != "" && p.RepaymentDate != ""
}

// Inflow returns the money received for this entry: Amount when given,
// otherwise repaid principal plus repaid interest.
func (p PaymentEntry) Inflow() (decimal.Decimal, bool) {
	if amount, ok := p.Amount.Get(); ok {
		return amount, true
	}

	principal, hasPrincipal := p.RepaidPrincipal.Get()
	interest, hasInterest := p.RepaidInterest.Get()
	if !hasPrincipal && !hasInterest {
		return decimal.Zero, false
	}
	return principal.Add(interest), true
}

// String renders the raw mapping with sorted keys, e.g.
// "{Payment date: 20/09/2023, Repayment date: 31/05/2023}".
func (p PaymentEntry) String() string {
	keys := make([]string, 0, len(p.Raw))
	for k := range p.Raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, scalarText(p.Raw[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ToPayments decodes a textual list of mappings.
//
// The text is decoded as YAML flow syntax, which accepts JSON
// ([{"Payment date": "20/09/2023"}]) as well as single-quoted literal lists
// ([{'Payment date': '20/09/2023'}]). Empty input is Invalid: a payments
// column that was supplied must hold a list, even an empty one ("[]").
func ToPayments(raw any) Payments {
	text, ok := raw.(string)
	if !ok {
		if raw == nil {
			return Bad[[]PaymentEntry](MarkerPayments, "")
		}
		return Bad[[]PaymentEntry](MarkerPayments, fmt.Sprint(raw))
	}
	if isBlank(text) {
		return Bad[[]PaymentEntry](MarkerPayments, text)
	}

	var decoded []map[string]any
	if err := yaml.Unmarshal([]byte(text), &decoded); err != nil {
		return Bad[[]PaymentEntry](MarkerPayments, text)
	}
	if decoded == nil {
		// A YAML null or an empty document is not a list.
		if strings.TrimSpace(text) != "[]" {
			return Bad[[]PaymentEntry](MarkerPayments, text)
		}
		decoded = []map[string]any{}
	}

	entries := make([]PaymentEntry, 0, len(decoded))
	for _, m := range decoded {
		if m == nil {
			return Bad[[]PaymentEntry](MarkerPayments, text)
		}
		entries = append(entries, newPaymentEntry(m))
	}
	return Of(entries)
}

func newPaymentEntry(m map[string]any) PaymentEntry {
	entry := PaymentEntry{Raw: m}
	for k, v := range m {
		switch strings.ToLower(strings.TrimSpace(k)) {
		case KeyPaymentDate:
			entry.PaymentDate = strings.TrimSpace(scalarText(v))
		case KeyRepaymentDate:
			entry.RepaymentDate = strings.TrimSpace(scalarText(v))
		case KeyAmount:
			entry.Amount = ToAmount(v)
		case KeyRepaidPrincipal:
			entry.RepaidPrincipal = ToAmount(v)
		case KeyRepaidInterest:
			entry.RepaidInterest = ToAmount(v)
		}
	}
	return entry
}

// scalarText renders a decoded YAML scalar. Python's None decodes as the
// string "None" and is treated as empty.
func scalarText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		if x == "None" {
			return ""
		}
		return x
	case time.Time:
		return x.Format(PaymentDateLayout)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
