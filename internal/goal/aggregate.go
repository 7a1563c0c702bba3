// Package goal reports how much group margin has been raised against the
// funding goal.
package goal

import (
	"github.com/noah-isme/backend-fundraise/internal/catalog"
	"github.com/noah-isme/backend-fundraise/internal/ledger"
	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

// ProductTotals is one dashboard row.
type ProductTotals struct {
	ProductID string            `json:"productId"`
	Name      string            `json:"name"`
	Volume    int64             `json:"volume"`
	Split     pricing.Breakdown `json:"split"`
}

// Totals is the fundraising summary derived from a ledger snapshot.
type Totals struct {
	Revenue        pricing.Money   `json:"revenue"`
	Cost           pricing.Money   `json:"cost"`
	PlatformMargin pricing.Money   `json:"platformMargin"`
	GroupMargin    pricing.Money   `json:"groupMargin"`
	Units          int64           `json:"units"`
	Goal           pricing.Money   `json:"goal"`
	Progress       float64         `json:"progress"`
	LedgerVersion  uint64          `json:"ledgerVersion"`
	Products       []ProductTotals `json:"products"`
}

// Aggregate prices every product's whole volume at the tier that volume
// reaches and sums the result. Progress is GroupMargin/goal capped at 1; a
// goal of zero or less counts as reached.
func Aggregate(cat *catalog.Catalog, snap ledger.Snapshot, goal pricing.Money) Totals {
	t := Totals{Goal: goal, LedgerVersion: snap.Version, Products: []ProductTotals{}}
	for _, p := range cat.Products() {
		v := snap.Volume(p.ID)
		if v <= 0 {
			continue
		}
		split := p.Split(v, v)
		t.Revenue += split.Revenue
		t.Cost += split.Cost
		t.PlatformMargin += split.Platform
		t.GroupMargin += split.Group
		t.Units += v
		t.Products = append(t.Products, ProductTotals{ProductID: p.ID, Name: p.Name, Volume: v, Split: split})
	}
	t.Progress = pricing.Ratio(t.GroupMargin, goal)
	return t
}
