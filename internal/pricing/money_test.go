package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := map[string]Money{
		"6":      600,
		"6.5":    650,
		"6.50":   650,
		" 15 ":   1500,
		"0.01":   1,
		"1000.0": 100_000,
	}
	for in, want := range cases {
		got, err := ParseMoney(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestParseMoneyRejects(t *testing.T) {
	for _, in := range []string{
		"", "abc", "1.005",
		"100000000000000000000",
		"92233720368547758.08",
		"-92233720368547758.09",
		"1e30",
	} {
		_, err := ParseMoney(in)
		require.Error(t, err, in)
	}
}

func TestParseMoneyAcceptsInt64Edge(t *testing.T) {
	m, err := ParseMoney("92233720368547758.07")
	require.NoError(t, err)
	require.Equal(t, Money(9_223_372_036_854_775_807), m)
}

func TestMoneyString(t *testing.T) {
	require.Equal(t, "975.00", Money(97_500).String())
	require.Equal(t, "0.05", Money(5).String())
	require.Equal(t, "-1.20", Money(-120).String())
}

func TestRatio(t *testing.T) {
	require.InDelta(t, 0.975, Ratio(97_500, 100_000), 1e-9)
	require.Equal(t, 1.0, Ratio(200, 100))
	require.Equal(t, 1.0, Ratio(50, 0))
	require.Equal(t, 1.0, Ratio(50, -10))
	require.Equal(t, 0.0, Ratio(0, 100))
}
