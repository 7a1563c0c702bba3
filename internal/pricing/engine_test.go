package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func coffretTiers() []Tier {
	return []Tier{
		{Min: 300, Platform: 400, Group: 900},
		{Min: 0, Platform: 600, Group: 700},
		{Min: 100, Platform: 500, Group: 800},
	}
}

func TestResolvePicksGreatestThreshold(t *testing.T) {
	tiers := coffretTiers()
	cases := []struct {
		volume   int64
		platform Money
		group    Money
	}{
		{0, 600, 700},
		{99, 600, 700},
		{100, 500, 800},
		{299, 500, 800},
		{300, 400, 900},
		{10_000, 400, 900},
		{-5, 600, 700},
	}
	for _, tc := range cases {
		tier, err := Resolve(tiers, tc.volume)
		require.NoError(t, err)
		require.Equal(t, tc.platform, tier.Platform, "volume %d", tc.volume)
		require.Equal(t, tc.group, tier.Group, "volume %d", tc.volume)
	}
}

func TestResolveWithoutFloor(t *testing.T) {
	_, err := Resolve([]Tier{{Min: 10}}, 5)
	require.ErrorIs(t, err, ErrNoTier)

	_, err = Resolve(nil, 0)
	require.ErrorIs(t, err, ErrNoTier)
}

func TestSplitSingleTierForWholeBatch(t *testing.T) {
	tier, err := Resolve(coffretTiers(), 120)
	require.NoError(t, err)

	b := Split(2000, 3500, tier, 40)
	require.Equal(t, int64(40), b.Units)
	require.Equal(t, int64(100), b.Tier)
	require.Equal(t, Money(80_000), b.Cost)
	require.Equal(t, Money(140_000), b.Revenue)
	require.Equal(t, Money(20_000), b.Platform)
	require.Equal(t, Money(32_000), b.Group)
	require.Equal(t, b.Revenue-b.Cost, b.Margin)
}

func TestSplitMarginIdentity(t *testing.T) {
	tiers := coffretTiers()
	for _, volume := range []int64{0, 1, 99, 100, 250, 300, 5000} {
		for _, qty := range []int64{0, 1, 7, 150} {
			tier, err := Resolve(tiers, volume)
			require.NoError(t, err)
			b := Split(600, 1500, tier, qty)
			require.Equal(t, b.Revenue-b.Cost, b.Margin)
		}
	}
}

func TestSplitNegativeQuantity(t *testing.T) {
	b := Split(600, 1500, Tier{Platform: 100, Group: 200}, -3)
	require.Equal(t, Breakdown{}, b)
}

func TestSplitClampsQuantity(t *testing.T) {
	b := Split(MaxUnitAmount, MaxUnitAmount, Tier{Platform: MaxUnitAmount}, MaxQuantity+1)
	require.Equal(t, MaxQuantity, b.Units)
	require.Equal(t, MaxUnitAmount*Money(MaxQuantity), b.Revenue)
	require.Positive(t, int64(b.Platform))
}

func TestResolveAndSplitArePure(t *testing.T) {
	tiers := coffretTiers()
	a, errA := Resolve(tiers, 150)
	b, errB := Resolve(tiers, 150)
	require.NoError(t, errA)
	require.NoError(t, errB)
	require.Equal(t, a, b)
	require.Equal(t, Split(2000, 3500, a, 12), Split(2000, 3500, b, 12))
}

func TestBreakdownAdd(t *testing.T) {
	x := Breakdown{Units: 2, Tier: 100, Cost: 10, Revenue: 30, Platform: 5, Group: 7, Margin: 20}
	y := Breakdown{Units: 1, Tier: 0, Cost: 4, Revenue: 9, Platform: 2, Group: 1, Margin: 5}
	sum := x.Add(y)
	require.Equal(t, Breakdown{Units: 3, Cost: 14, Revenue: 39, Platform: 7, Group: 8, Margin: 25}, sum)
}

func TestTierTotal(t *testing.T) {
	require.Equal(t, Money(1300), Tier{Platform: 600, Group: 700}.Total())
}
