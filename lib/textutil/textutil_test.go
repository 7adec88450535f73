package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		in    string
		value float64
		ok    bool
	}{
		{"$1,234.56", 1234.56, true},
		{"19.99", 19.99, true},
		{" $5 ", 5, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"-3.50", 0, false},
	}
	for _, test := range testCases {
		v, ok := ParsePrice(test.in)
		require.Equal(t, test.ok, ok, "input %q", test.in)
		if ok {
			require.Equal(t, test.value, v, "input %q", test.in)
		}
	}
}

func TestParseLoosePrice(t *testing.T) {
	v, ok := ParseLoosePrice("from $12.34 shipped")
	require.True(t, ok)
	require.Equal(t, 12.34, v)

	_, ok = ParseLoosePrice("no numbers here")
	require.False(t, ok)
}

func TestParseCount(t *testing.T) {
	v, ok := ParseCount("1,234")
	require.True(t, ok)
	require.Equal(t, int64(1234), v)

	_, ok = ParseCount("abc")
	require.False(t, ok)

	_, ok = ParseCount("-4")
	require.False(t, ok)
}

func TestFindListingCount(t *testing.T) {
	v, ok := FindListingCount("Crown Zenith ETB. 142 Listings starting from $38.99.")
	require.True(t, ok)
	require.Equal(t, int64(142), v)

	_, ok = FindListingCount("no inventory data")
	require.False(t, ok)
}
