package catalog

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

type fileTier struct {
	Min      int64  `koanf:"min"`
	Platform string `koanf:"platform"`
	Group    string `koanf:"group"`
}

type fileProduct struct {
	ID    string     `koanf:"id"`
	Name  string     `koanf:"name"`
	Cost  string     `koanf:"cost"`
	Price string     `koanf:"price"`
	Tiers []fileTier `koanf:"tiers"`
}

// LoadFile reads a YAML catalog. Amounts are decimal strings or numbers in
// major units:
//
//	products:
//	  - id: gourde
//	    name: Gourde
//	    cost: "6.00"
//	    price: "15.00"
//	    tiers:
//	      - {min: 0, platform: "3.50", group: "5.50"}
func LoadFile(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var raw []fileProduct
	if err := k.Unmarshal("products", &raw); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	products := make([]Product, 0, len(raw))
	for _, fp := range raw {
		p, err := fp.toProduct()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return New(products)
}

func (fp fileProduct) toProduct() (Product, error) {
	id := strings.TrimSpace(fp.ID)
	cost, err := pricing.ParseMoney(fp.Cost)
	if err != nil {
		return Product{}, configErr(id, "cost: %v", err)
	}
	price, err := pricing.ParseMoney(fp.Price)
	if err != nil {
		return Product{}, configErr(id, "price: %v", err)
	}
	tiers := make([]pricing.Tier, 0, len(fp.Tiers))
	for _, ft := range fp.Tiers {
		platform, err := pricing.ParseMoney(ft.Platform)
		if err != nil {
			return Product{}, configErr(id, "tier %d platform: %v", ft.Min, err)
		}
		group, err := pricing.ParseMoney(ft.Group)
		if err != nil {
			return Product{}, configErr(id, "tier %d group: %v", ft.Min, err)
		}
		tiers = append(tiers, pricing.Tier{Min: ft.Min, Platform: platform, Group: group})
	}
	return Product{ID: id, Name: fp.Name, UnitCost: cost, UnitPrice: price, Tiers: tiers}, nil
}

// Default returns the built-in catalog used when no file is configured.
func Default() *Catalog {
	return MustNew([]Product{
		{
			ID: "gourde", Name: "Gourde isotherme", UnitCost: 600, UnitPrice: 1500,
			Tiers: []pricing.Tier{
				{Min: 0, Platform: 350, Group: 550},
				{Min: 50, Platform: 300, Group: 600},
				{Min: 150, Platform: 250, Group: 650},
			},
		},
		{
			ID: "coffret", Name: "Coffret gourmand", UnitCost: 2000, UnitPrice: 3500,
			Tiers: []pricing.Tier{
				{Min: 0, Platform: 600, Group: 700},
				{Min: 100, Platform: 500, Group: 800},
				{Min: 300, Platform: 400, Group: 900},
			},
		},
		{
			ID: "tote", Name: "Sac en coton", UnitCost: 300, UnitPrice: 1000,
			Tiers: []pricing.Tier{
				{Min: 0, Platform: 300, Group: 350},
				{Min: 200, Platform: 200, Group: 450},
			},
		},
	})
}
