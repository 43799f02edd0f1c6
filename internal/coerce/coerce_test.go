package coerce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloat(t *testing.T) {
	cases := []struct {
		name  string
		in    any
		state State
		want  float64
	}{
		{"nil", nil, Absent, 0},
		{"empty", "", Absent, 0},
		{"blank", "   ", Absent, 0},
		{"plain", "1250.5", Valid, 1250.5},
		{"comma decimal", "1250,5", Valid, 1250.5},
		{"spaced thousands", "1 250,50", Valid, 1250.5},
		{"negative", "-100", Valid, -100},
		{"native float", 0.07, Valid, 0.07},
		{"native int", 42, Valid, 42},
		{"scientific", "7.0000000000000007E-2", Valid, 0.07},
		{"garbage", "abc", Invalid, 0},
		{"two separators", "1,250.50", Invalid, 0},
		{"nan", "NaN", Invalid, 0},
		{"date value", time.Now(), Invalid, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToFloat(tc.in)
			require.Equal(t, tc.state, got.State())
			if tc.state == Valid {
				v, ok := got.Get()
				require.True(t, ok)
				assert.InDelta(t, tc.want, v, 1e-12)
			}
			if tc.state == Invalid {
				assert.Equal(t, MarkerFloat, got.String())
			}
		})
	}
}

func TestToInt(t *testing.T) {
	cases := []struct {
		name  string
		in    any
		state State
		want  int64
	}{
		{"nil", nil, Absent, 0},
		{"empty", "", Absent, 0},
		{"string", " 37216892 ", Valid, 37216892},
		{"integral float", 12.0, Valid, 12},
		{"fractional float", 12.5, Invalid, 0},
		{"fractional string", "12.5", Invalid, 0},
		{"native int", 3, Valid, 3},
		{"negative", "-2", Valid, -2},
		{"garbage", "three", Invalid, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToInt(tc.in)
			require.Equal(t, tc.state, got.State())
			v, ok := got.Get()
			assert.Equal(t, tc.state == Valid, ok)
			assert.Equal(t, tc.want, v)
		})
	}
}

func TestToDate(t *testing.T) {
	may31 := time.Date(2023, time.May, 31, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		in    any
		state State
		want  time.Time
	}{
		{"nil", nil, Absent, time.Time{}},
		{"empty", "", Absent, time.Time{}},
		{"iso", "2023-05-31", Valid, may31},
		{"dotted", "31.05.2023", Valid, may31},
		{"day first slash", "31/05/2023", Valid, may31},
		{"month first slash", "05/31/2023", Valid, may31},
		{"ambiguous prefers day first", "03/04/2024", Valid, time.Date(2024, time.April, 3, 0, 0, 0, 0, time.UTC)},
		{"iso datetime fraction", "2023-05-31T14:22:01.123456", Valid, may31},
		{"typed datetime", time.Date(2023, time.May, 31, 17, 45, 0, 0, time.UTC), Valid, may31},
		{"garbage", "31st of May", Invalid, time.Time{}},
		{"number", 45077.0, Invalid, time.Time{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDate(tc.in)
			require.Equal(t, tc.state, got.State())
			v, _ := got.Get()
			assert.True(t, tc.want.Equal(v), "want %s, got %s", tc.want, v)
		})
	}
}

func TestInvalidDateNeverRendersAsDate(t *testing.T) {
	got := ToDate("2023-13-45")
	require.True(t, got.IsInvalid())

	rendered := got.String()
	assert.Equal(t, MarkerDate, rendered)
	assert.True(t, ToDate(rendered).IsInvalid())
	assert.Equal(t, "2023-13-45", got.Raw())
}

func TestToText(t *testing.T) {
	assert.True(t, ToText(nil).IsAbsent())
	assert.True(t, ToText("  ").IsAbsent())

	v, ok := ToText("  Riga ").Get()
	require.True(t, ok)
	assert.Equal(t, "Riga", v)
}

func TestWiden(t *testing.T) {
	f, ok := Widen(Of[int64](-3)).Get()
	require.True(t, ok)
	assert.Equal(t, -3.0, f)

	assert.True(t, Widen(Missing[int64]()).IsAbsent())
	assert.True(t, Widen(Bad[int64](MarkerInt, "x")).IsInvalid())
}

func TestToAmount(t *testing.T) {
	d, ok := ToAmount("1 250,50").Get()
	require.True(t, ok)
	assert.Equal(t, "1250.5", d.String())

	assert.True(t, ToAmount("").IsAbsent())
	assert.True(t, ToAmount("ten").IsInvalid())
}
