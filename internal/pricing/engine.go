package pricing

import (
	"errors"
	"sort"
)

// ErrNoTier is returned when a tier set has no tier covering the requested volume.
var ErrNoTier = errors.New("pricing: no tier covers volume")

// Bounds on the values the engine multiplies. MaxQuantity units at
// MaxUnitAmount each stay well inside int64.
const (
	MaxQuantity   int64 = 1_000_000_000
	MaxUnitAmount Money = 100_000_000
)

// Tier pairs a cumulative volume threshold with per-unit margin rates.
type Tier struct {
	Min      int64 `json:"min"`
	Platform Money `json:"platform"`
	Group    Money `json:"group"`
}

// Total returns the combined per-unit margin claimed by the tier. Callers can
// compare it against price minus cost; the engine does not.
func (t Tier) Total() Money {
	return t.Platform + t.Group
}

// Breakdown aggregates the computed components for a priced batch.
type Breakdown struct {
	Units    int64 `json:"units"`
	Tier     int64 `json:"tier"`
	Cost     Money `json:"cost"`
	Revenue  Money `json:"revenue"`
	Platform Money `json:"platformMargin"`
	Group    Money `json:"groupMargin"`
	Margin   Money `json:"totalMargin"`
}

// Add sums two breakdowns. The tier of the result is meaningless across
// products and is left at zero.
func (b Breakdown) Add(other Breakdown) Breakdown {
	return Breakdown{
		Units:    b.Units + other.Units,
		Cost:     b.Cost + other.Cost,
		Revenue:  b.Revenue + other.Revenue,
		Platform: b.Platform + other.Platform,
		Group:    b.Group + other.Group,
		Margin:   b.Margin + other.Margin,
	}
}

// SortTiers orders tiers by ascending threshold in place.
func SortTiers(tiers []Tier) {
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Min < tiers[j].Min })
}

// Resolve returns the tier with the greatest threshold not above volume.
// Tiers do not need to be sorted. Negative volumes resolve like zero.
func Resolve(tiers []Tier, volume int64) (Tier, error) {
	if volume < 0 {
		volume = 0
	}
	var (
		best  Tier
		found bool
	)
	for _, t := range tiers {
		if t.Min > volume {
			continue
		}
		if !found || t.Min > best.Min {
			best = t
			found = true
		}
	}
	if !found {
		return Tier{}, ErrNoTier
	}
	return best, nil
}

// Split prices qty units with the single tier provided. The whole quantity is
// billed at that tier even when the batch crosses a threshold. qty is clamped
// to [0, MaxQuantity].
func Split(unitCost, unitPrice Money, tier Tier, qty int64) Breakdown {
	if qty < 0 {
		qty = 0
	}
	if qty > MaxQuantity {
		qty = MaxQuantity
	}
	q := Money(qty)
	cost := unitCost * q
	revenue := unitPrice * q
	return Breakdown{
		Units:    qty,
		Tier:     tier.Min,
		Cost:     cost,
		Revenue:  revenue,
		Platform: tier.Platform * q,
		Group:    tier.Group * q,
		Margin:   revenue - cost,
	}
}
