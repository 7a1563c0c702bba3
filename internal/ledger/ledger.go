// Package ledger keeps the per-product running total of units sold and merges
// new orders into it one order at a time.
package ledger

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

// MaxVolume caps both a single order line and a product's running total.
const MaxVolume = pricing.MaxQuantity

// LineItem is one product/quantity pair of an order.
type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// Snapshot is a point-in-time copy of the ledger. Version increments once per
// applied consolidation.
type Snapshot struct {
	Version uint64           `json:"version"`
	Volumes map[string]int64 `json:"volumes"`
}

// Volume returns the cumulative units recorded for productID.
func (s Snapshot) Volume(productID string) int64 {
	return s.Volumes[productID]
}

// Units sums the volume of every product.
func (s Snapshot) Units() int64 {
	var total int64
	for _, v := range s.Volumes {
		total += v
	}
	return total
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{Version: s.Version, Volumes: maps.Clone(s.Volumes)}
}

// Store persists ledger volumes. Apply must add every delta or none of them
// and must serialize writers.
type Store interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	Apply(ctx context.Context, deltas map[string]int64) (Snapshot, error)
}

// MemoryStore is a process-local Store guarded by a mutex.
type MemoryStore struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewMemoryStore creates a ledger with a zero entry for every product id.
func NewMemoryStore(productIDs []string) *MemoryStore {
	volumes := make(map[string]int64, len(productIDs))
	for _, id := range productIDs {
		volumes[id] = 0
	}
	return &MemoryStore{snap: Snapshot{Volumes: volumes}}
}

// Snapshot returns a copy of the current ledger.
func (m *MemoryStore) Snapshot(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.clone(), nil
}

// Apply adds deltas under the write lock. Unknown products, negative deltas
// and totals above MaxVolume fail the whole call without touching the ledger.
func (m *MemoryStore) Apply(ctx context.Context, deltas map[string]int64) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range deltas {
		if _, ok := m.snap.Volumes[id]; !ok {
			return Snapshot{}, fmt.Errorf("ledger: unknown product %q", id)
		}
		if d < 0 {
			return Snapshot{}, fmt.Errorf("ledger: negative delta %d for %q", d, id)
		}
		if d > MaxVolume-m.snap.Volumes[id] {
			return Snapshot{}, Invalid("volume limit reached", id)
		}
	}
	if len(deltas) == 0 {
		return m.snap.clone(), nil
	}
	for id, d := range deltas {
		m.snap.Volumes[id] += d
	}
	m.snap.Version++
	return m.snap.clone(), nil
}
