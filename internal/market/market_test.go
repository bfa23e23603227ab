package market

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	quote, err := Lookup("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", quote.Name)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("173.50")))

	_, err = Lookup("NOPE")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestList(t *testing.T) {
	all := List("")
	assert.Greater(t, len(all), 90)

	// Search matches symbol and name, case-insensitively.
	hits := List("apple")
	require.NotEmpty(t, hits)
	assert.Equal(t, "AAPL", hits[0].Symbol)

	hits = List("msft")
	require.Len(t, hits, 1)
	assert.Equal(t, "Microsoft Corporation", hits[0].Name)

	assert.Empty(t, List("zzzzzz"))
}

func TestList_ReturnsCopy(t *testing.T) {
	a := List("")
	a[0].Symbol = "MUTATED"
	b := List("")
	assert.NotEqual(t, "MUTATED", b[0].Symbol)
}

func TestParseRange(t *testing.T) {
	rng, err := ParseRange("")
	require.NoError(t, err)
	assert.Equal(t, Range1M, rng)

	for _, s := range []string{"1D", "1W", "1M", "3M", "1Y", "ALL"} {
		rng, err := ParseRange(s)
		require.NoError(t, err)
		assert.Equal(t, Range(s), rng)
	}

	_, err = ParseRange("2Y")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSeries_Shape(t *testing.T) {
	anchor := decimal.RequireFromString("150")

	cases := map[Range]int{
		Range1D:  25,
		Range1W:  8,
		Range1M:  31,
		Range3M:  91,
		Range1Y:  13,
		RangeAll: 61,
	}
	for rng, want := range cases {
		pts := Series(rng, anchor)
		assert.Len(t, pts, want, "range %s", rng)
		for _, p := range pts {
			assert.NotEmpty(t, p.Label)
			// A bounded walk from 150 cannot stray anywhere near zero.
			assert.True(t, p.Price.IsPositive(), "range %s price %s", rng, p.Price)
		}
	}
}

func TestSeries_StartsAtAnchor(t *testing.T) {
	anchor := decimal.RequireFromString("875.30")
	pts := Series(Range1M, anchor)
	require.NotEmpty(t, pts)
	assert.True(t, pts[0].Price.Equal(anchor.Round(2)), "first point %s", pts[0].Price)
}
