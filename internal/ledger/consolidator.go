package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/backend-fundraise/internal/catalog"
	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

// PricedLine is one consolidated product with the split for its batch.
type PricedLine struct {
	ProductID string            `json:"productId"`
	Quantity  int64             `json:"quantity"`
	Volume    int64             `json:"volume"`
	Split     pricing.Breakdown `json:"split"`
}

// Consolidation is the outcome of merging one order into the ledger.
type Consolidation struct {
	Lines    []PricedLine      `json:"lines"`
	Total    pricing.Breakdown `json:"total"`
	Snapshot Snapshot          `json:"ledger"`
}

// Applied reports whether the order changed the ledger.
func (c Consolidation) Applied() bool {
	return len(c.Lines) > 0
}

// Consolidator merges orders into a Store, one atomic Apply per order.
type Consolidator struct {
	Catalog *catalog.Catalog
	Store   Store
}

// Normalize drops non-positive lines, merges duplicates and rejects unknown
// products or merged quantities above MaxVolume. The returned items keep
// first-seen order.
func (c *Consolidator) Normalize(items []LineItem) ([]LineItem, error) {
	var (
		out     []LineItem
		index   = make(map[string]int, len(items))
		unknown []string
	)
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if it.Quantity <= 0 {
			continue
		}
		if _, ok := c.Catalog.Product(id); !ok {
			unknown = append(unknown, id)
			continue
		}
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, LineItem{ProductID: id})
		}
		if it.Quantity > MaxVolume-out[i].Quantity {
			return nil, Invalid("quantity too large", id)
		}
		out[i].Quantity += it.Quantity
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, Invalid("unknown product", unknown...)
	}
	return out, nil
}

// Consolidate validates items and adds them to the ledger in one step. An
// empty order is a no-op. Each batch is priced at the tier its product
// reaches once the batch is included.
func (c *Consolidator) Consolidate(ctx context.Context, items []LineItem) (Consolidation, error) {
	if c == nil || c.Catalog == nil || c.Store == nil {
		return Consolidation{}, errors.New("ledger: consolidator not configured")
	}
	ctx, span := otel.Tracer("ledger").Start(ctx, "ledger.consolidate")
	defer span.End()

	lines, err := c.Normalize(items)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Consolidation{}, err
	}
	span.SetAttributes(attribute.Int("ledger.lines", len(lines)))
	if len(lines) == 0 {
		snap, err := c.Store.Snapshot(ctx)
		if err != nil {
			return Consolidation{}, fmt.Errorf("ledger: snapshot: %w", err)
		}
		return Consolidation{Snapshot: snap}, nil
	}

	deltas := make(map[string]int64, len(lines))
	for _, it := range lines {
		deltas[it.ProductID] = it.Quantity
	}
	snap, err := c.Store.Apply(ctx, deltas)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply failed")
		return Consolidation{}, fmt.Errorf("ledger: apply: %w", err)
	}
	span.SetAttributes(attribute.Int64("ledger.version", int64(snap.Version)))

	result := Consolidation{Lines: make([]PricedLine, 0, len(lines)), Snapshot: snap}
	for _, it := range lines {
		p, _ := c.Catalog.Product(it.ProductID)
		volume := snap.Volume(it.ProductID)
		split := p.Split(volume, it.Quantity)
		result.Lines = append(result.Lines, PricedLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Volume:    volume,
			Split:     split,
		})
		result.Total = result.Total.Add(split)
	}
	return result, nil
}

// Quote prices items as if they were consolidated now without touching the
// ledger. Concurrent consolidations may move the tier before a real order lands.
func (c *Consolidator) Quote(ctx context.Context, items []LineItem) (Consolidation, error) {
	if c == nil || c.Catalog == nil || c.Store == nil {
		return Consolidation{}, errors.New("ledger: consolidator not configured")
	}
	lines, err := c.Normalize(items)
	if err != nil {
		return Consolidation{}, err
	}
	snap, err := c.Store.Snapshot(ctx)
	if err != nil {
		return Consolidation{}, fmt.Errorf("ledger: snapshot: %w", err)
	}
	result := Consolidation{Lines: make([]PricedLine, 0, len(lines)), Snapshot: snap}
	for _, it := range lines {
		p, _ := c.Catalog.Product(it.ProductID)
		if it.Quantity > MaxVolume-snap.Volume(it.ProductID) {
			return Consolidation{}, Invalid("volume limit reached", it.ProductID)
		}
		volume := snap.Volume(it.ProductID) + it.Quantity
		split := p.Split(volume, it.Quantity)
		result.Lines = append(result.Lines, PricedLine{ProductID: it.ProductID, Quantity: it.Quantity, Volume: volume, Split: split})
		result.Total = result.Total.Add(split)
	}
	return result, nil
}
