package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

// ErrConfiguration marks catalogs that cannot be served.
var ErrConfiguration = errors.New("catalog configuration error")

// ConfigurationError reports an invalid catalog detected at load time.
type ConfigurationError struct {
	ProductID string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("catalog: %s", e.Reason)
	}
	return fmt.Sprintf("catalog: product %q: %s", e.ProductID, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

func configErr(id, format string, args ...any) error {
	return &ConfigurationError{ProductID: id, Reason: fmt.Sprintf(format, args...)}
}

// Product is a sellable catalog item.
type Product struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	UnitCost  pricing.Money  `json:"unitCost"`
	UnitPrice pricing.Money  `json:"unitPrice"`
	Tiers     []pricing.Tier `json:"tiers"`
}

// Resolve returns the tier active at the given cumulative volume. Products
// inside a validated Catalog always have a zero-floor tier so this cannot fail.
func (p Product) Resolve(volume int64) pricing.Tier {
	tier, err := pricing.Resolve(p.Tiers, volume)
	if err != nil {
		return pricing.Tier{}
	}
	return tier
}

// Split prices qty units at the tier active for volume.
func (p Product) Split(volume, qty int64) pricing.Breakdown {
	return pricing.Split(p.UnitCost, p.UnitPrice, p.Resolve(volume), qty)
}

// MarginPool is the per-unit amount available to share between platform and group.
func (p Product) MarginPool() pricing.Money {
	return p.UnitPrice - p.UnitCost
}

// Catalog is an immutable, validated product set.
type Catalog struct {
	products []Product
	byID     map[string]int
}

// New validates products and builds a Catalog. Tiers are copied and sorted
// by threshold; the input slice is not retained.
func New(products []Product) (*Catalog, error) {
	if len(products) == 0 {
		return nil, configErr("", "no products configured")
	}
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for _, p := range products {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, configErr("", "product id is required")
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, configErr(p.ID, "duplicate product id")
		}
		if p.UnitCost < 0 || p.UnitPrice < 0 {
			return nil, configErr(p.ID, "cost and price must not be negative")
		}
		if p.UnitCost > pricing.MaxUnitAmount || p.UnitPrice > pricing.MaxUnitAmount {
			return nil, configErr(p.ID, "cost and price must not exceed %s", pricing.MaxUnitAmount)
		}
		tiers, err := validateTiers(p.ID, p.Tiers)
		if err != nil {
			return nil, err
		}
		p.Tiers = tiers
		if strings.TrimSpace(p.Name) == "" {
			p.Name = p.ID
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// MustNew is New that panics on error. Intended for tests and built-in data.
func MustNew(products []Product) *Catalog {
	c, err := New(products)
	if err != nil {
		panic(err)
	}
	return c
}

func validateTiers(id string, in []pricing.Tier) ([]pricing.Tier, error) {
	if len(in) == 0 {
		return nil, configErr(id, "tier set is empty")
	}
	tiers := make([]pricing.Tier, len(in))
	copy(tiers, in)
	pricing.SortTiers(tiers)
	seen := make(map[int64]struct{}, len(tiers))
	for _, t := range tiers {
		if t.Min < 0 {
			return nil, configErr(id, "tier threshold %d is negative", t.Min)
		}
		if t.Platform < 0 || t.Group < 0 {
			return nil, configErr(id, "tier %d has a negative rate", t.Min)
		}
		if t.Platform > pricing.MaxUnitAmount || t.Group > pricing.MaxUnitAmount {
			return nil, configErr(id, "tier %d rate exceeds %s", t.Min, pricing.MaxUnitAmount)
		}
		if _, dup := seen[t.Min]; dup {
			return nil, configErr(id, "duplicate tier threshold %d", t.Min)
		}
		seen[t.Min] = struct{}{}
	}
	if tiers[0].Min != 0 {
		return nil, configErr(id, "missing zero-floor tier")
	}
	return tiers, nil
}

// Product looks up a product by id.
func (c *Catalog) Product(id string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	idx, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[idx], true
}

// Products returns the products in declaration order.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// IDs returns the product identifiers in declaration order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.products))
	for i, p := range c.products {
		ids[i] = p.ID
	}
	return ids
}

// Warning describes a soft inconsistency the engine tolerates.
type Warning struct {
	ProductID string
	Message   string
}

// Warnings lists products whose numbers look inconsistent: non-positive
// margin pools or tiers promising more than the pool.
func (c *Catalog) Warnings() []Warning {
	var out []Warning
	for _, p := range c.Products() {
		pool := p.MarginPool()
		if pool <= 0 {
			out = append(out, Warning{ProductID: p.ID, Message: fmt.Sprintf("price %s does not exceed cost %s", p.UnitPrice, p.UnitCost)})
		}
		for _, t := range p.Tiers {
			if t.Total() > pool {
				out = append(out, Warning{ProductID: p.ID, Message: fmt.Sprintf("tier %d shares %s but margin pool is %s", t.Min, t.Total(), pool)})
			}
		}
	}
	return out
}
