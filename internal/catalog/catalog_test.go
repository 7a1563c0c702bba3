package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-fundraise/internal/catalog"
	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

func gourde() catalog.Product {
	return catalog.Product{
		ID: "gourde", Name: "Gourde", UnitCost: 600, UnitPrice: 1500,
		Tiers: []pricing.Tier{
			{Min: 150, Platform: 250, Group: 650},
			{Min: 0, Platform: 350, Group: 550},
			{Min: 50, Platform: 300, Group: 600},
		},
	}
}

func TestNewSortsTiersAndKeepsOrder(t *testing.T) {
	other := gourde()
	other.ID = "coffret"
	c, err := catalog.New([]catalog.Product{gourde(), other})
	require.NoError(t, err)
	require.Equal(t, []string{"gourde", "coffret"}, c.IDs())

	p, ok := c.Product("gourde")
	require.True(t, ok)
	require.Equal(t, []int64{0, 50, 150}, []int64{p.Tiers[0].Min, p.Tiers[1].Min, p.Tiers[2].Min})

	_, ok = c.Product("missing")
	require.False(t, ok)
}

func TestNewRejectsBadTierSets(t *testing.T) {
	noFloor := gourde()
	noFloor.Tiers = []pricing.Tier{{Min: 10, Platform: 1, Group: 1}}

	dupMin := gourde()
	dupMin.Tiers = append(dupMin.Tiers, pricing.Tier{Min: 50, Platform: 1, Group: 1})

	empty := gourde()
	empty.Tiers = nil

	negative := gourde()
	negative.Tiers = append(negative.Tiers, pricing.Tier{Min: -1})

	pricey := gourde()
	pricey.UnitPrice = pricing.MaxUnitAmount + 1

	steepRate := gourde()
	steepRate.Tiers = append(steepRate.Tiers, pricing.Tier{Min: 500, Platform: pricing.MaxUnitAmount + 1})

	cases := map[string][]catalog.Product{
		"price too large": {pricey},
		"rate too large":  {steepRate},
		"no floor":        {noFloor},
		"duplicate min":   {dupMin},
		"empty tiers":     {empty},
		"negative min":    {negative},
		"duplicate id":    {gourde(), gourde()},
		"no products":     nil,
		"blank id":        {{ID: "  ", Tiers: []pricing.Tier{{Min: 0}}}},
	}
	for name, products := range cases {
		_, err := catalog.New(products)
		require.Error(t, err, name)
		require.True(t, errors.Is(err, catalog.ErrConfiguration), name)
		var cfgErr *catalog.ConfigurationError
		require.ErrorAs(t, err, &cfgErr, name)
	}
}

func TestProductSplitUsesResolvedTier(t *testing.T) {
	c := catalog.MustNew([]catalog.Product{gourde()})
	p, _ := c.Product("gourde")

	b := p.Split(150, 150)
	require.Equal(t, pricing.Money(97_500), b.Group)
	require.Equal(t, pricing.Money(37_500), b.Platform)
	require.Equal(t, int64(150), b.Tier)
	require.Equal(t, b.Revenue-b.Cost, b.Margin)

	require.Equal(t, pricing.Tier{Min: 50, Platform: 300, Group: 600}, p.Resolve(149))
}

func TestWarnings(t *testing.T) {
	greedy := gourde()
	greedy.Tiers = append(greedy.Tiers, pricing.Tier{Min: 500, Platform: 500, Group: 500})
	c := catalog.MustNew([]catalog.Product{greedy})
	warnings := c.Warnings()
	require.Len(t, warnings, 1)
	require.Equal(t, "gourde", warnings[0].ProductID)

	require.Empty(t, catalog.Default().Warnings())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	body := `products:
  - id: gourde
    name: Gourde
    cost: "6.00"
    price: 15
    tiers:
      - {min: 0, platform: "3.50", group: "5.50"}
      - {min: 150, platform: 2.5, group: "6.50"}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := catalog.LoadFile(path)
	require.NoError(t, err)
	p, ok := c.Product("gourde")
	require.True(t, ok)
	require.Equal(t, pricing.Money(600), p.UnitCost)
	require.Equal(t, pricing.Money(1500), p.UnitPrice)
	require.Equal(t, pricing.Tier{Min: 150, Platform: 250, Group: 650}, p.Resolve(200))
}

func TestLoadFileConfigurationErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	body := `products:
  - id: gourde
    cost: "6.00"
    price: "15.00"
    tiers:
      - {min: 10, platform: "3.50", group: "5.50"}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	_, err := catalog.LoadFile(path)
	require.ErrorIs(t, err, catalog.ErrConfiguration)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`products:
  - id: gourde
    cost: "6.001"
    price: "15.00"
    tiers: [{min: 0, platform: "1", group: "1"}]
`), 0o600))
	_, err = catalog.LoadFile(bad)
	require.ErrorIs(t, err, catalog.ErrConfiguration)
}

func TestLoadFileDefaultsWhenPathEmpty(t *testing.T) {
	c, err := catalog.LoadFile("")
	require.NoError(t, err)
	require.Equal(t, catalog.Default().IDs(), c.IDs())
}
