package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPaymentsJSON(t *testing.T) {
	got := ToPayments(`[{"Payment date": "20/09/2023", "Repayment date": "31/05/2023"}]`)

	entries, ok := got.Get()
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "20/09/2023", entries[0].PaymentDate)
	assert.Equal(t, "31/05/2023", entries[0].RepaymentDate)
	assert.True(t, entries[0].HasDates())
}

func TestToPaymentsSingleQuotedLiteral(t *testing.T) {
	got := ToPayments(`[{'Payment date': '01/02/2024', 'Repayment date': '01/02/2024', 'Repaid principal': 900, 'Repaid interest': '100,50'}]`)

	entries, ok := got.Get()
	require.True(t, ok)
	require.Len(t, entries, 1)

	inflow, ok := entries[0].Inflow()
	require.True(t, ok)
	assert.Equal(t, "1000.5", inflow.String())
}

func TestToPaymentsAmountWins(t *testing.T) {
	entries, ok := ToPayments(`[{"Repayment date": "01/02/2024", "Amount": 250, "Repaid principal": 1}]`).Get()
	require.True(t, ok)

	inflow, ok := entries[0].Inflow()
	require.True(t, ok)
	assert.Equal(t, "250", inflow.String())
	assert.False(t, entries[0].HasDates())
}

func TestToPaymentsEmptyList(t *testing.T) {
	entries, ok := ToPayments("[]").Get()
	require.True(t, ok)
	assert.Empty(t, entries)
}

func TestToPaymentsMalformed(t *testing.T) {
	for _, in := range []any{
		nil,
		"",
		"   ",
		"not a list",
		"[1, 2, 3]",
		`{"Payment date": "20/09/2023"}`,
		"[{'Payment date': '20/09/2023'",
		"null",
		42.0,
	} {
		got := ToPayments(in)
		assert.True(t, got.IsInvalid(), "input %v", in)
		assert.Equal(t, MarkerPayments, got.String())
	}
}

func TestPaymentEntryString(t *testing.T) {
	entries, ok := ToPayments(`[{"Repayment date": "31/05/2023", "Payment date": "xx/09/2023"}]`).Get()
	require.True(t, ok)
	assert.Equal(t, "{Payment date: xx/09/2023, Repayment date: 31/05/2023}", entries[0].String())
}

func TestPaymentEntryNoneIsEmpty(t *testing.T) {
	entries, ok := ToPayments(`[{'Payment date': None, 'Repayment date': '31/05/2023'}]`).Get()
	require.True(t, ok)
	assert.False(t, entries[0].HasDates())
}
