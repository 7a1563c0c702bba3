package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-fundraise/internal/ledger"
)

func TestMemoryStoreApply(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore([]string{"gourde", "tote"})

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), snap.Version)
	require.Equal(t, map[string]int64{"gourde": 0, "tote": 0}, snap.Volumes)

	snap, err = store.Apply(ctx, map[string]int64{"gourde": 3, "tote": 1})
	require.NoError(t, err)
	require.Equal(t, uint64(1), snap.Version)
	require.Equal(t, int64(3), snap.Volume("gourde"))
	require.Equal(t, int64(4), snap.Units())

	// returned snapshots are copies
	snap.Volumes["gourde"] = 999
	again, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), again.Volume("gourde"))
}

func TestMemoryStoreRejectsWithoutMutation(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore([]string{"gourde"})
	_, err := store.Apply(ctx, map[string]int64{"gourde": 2})
	require.NoError(t, err)

	_, err = store.Apply(ctx, map[string]int64{"gourde": 5, "ghost": 1})
	require.Error(t, err)
	_, err = store.Apply(ctx, map[string]int64{"gourde": -1})
	require.Error(t, err)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), snap.Version)
	require.Equal(t, int64(2), snap.Volume("gourde"))
}

func TestMemoryStoreRejectsVolumeOverflow(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore([]string{"gourde", "tote"})
	_, err := store.Apply(ctx, map[string]int64{"gourde": ledger.MaxVolume - 1})
	require.NoError(t, err)

	_, err = store.Apply(ctx, map[string]int64{"tote": 1, "gourde": 2})
	require.ErrorIs(t, err, ledger.ErrInvalidOrder)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), snap.Version)
	require.Equal(t, ledger.MaxVolume-1, snap.Volume("gourde"))
	require.Zero(t, snap.Volume("tote"))

	snap, err = store.Apply(ctx, map[string]int64{"gourde": 1})
	require.NoError(t, err)
	require.Equal(t, ledger.MaxVolume, snap.Volume("gourde"))
}

func TestMemoryStoreEmptyApplyKeepsVersion(t *testing.T) {
	store := ledger.NewMemoryStore([]string{"gourde"})
	snap, err := store.Apply(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(0), snap.Version)
}

func TestMemoryStoreConcurrentApply(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore([]string{"coffret"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Apply(ctx, map[string]int64{"coffret": 2})
		}()
	}
	wg.Wait()

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(100), snap.Volume("coffret"))
	require.Equal(t, uint64(50), snap.Version)
}
