package goal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-fundraise/internal/catalog"
	"github.com/noah-isme/backend-fundraise/internal/goal"
	"github.com/noah-isme/backend-fundraise/internal/ledger"
	"github.com/noah-isme/backend-fundraise/internal/order"
	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

func TestAggregateEmptyLedger(t *testing.T) {
	cat := catalog.Default()
	totals := goal.Aggregate(cat, ledger.Snapshot{}, 100000)
	require.Zero(t, totals.GroupMargin)
	require.Zero(t, totals.Units)
	require.Equal(t, 0.0, totals.Progress)
	require.Empty(t, totals.Products)
}

func TestAggregateZeroGoalIsReached(t *testing.T) {
	cat := catalog.Default()
	snap := ledger.Snapshot{Volumes: map[string]int64{"tote": 3}}
	require.Equal(t, 1.0, goal.Aggregate(cat, snap, 0).Progress)
	require.Equal(t, 1.0, goal.Aggregate(cat, snap, -5).Progress)
	require.Equal(t, 1.0, goal.Aggregate(cat, ledger.Snapshot{}, 0).Progress)
}

func TestAggregateSumsProducts(t *testing.T) {
	cat := catalog.Default()
	snap := ledger.Snapshot{Version: 4, Volumes: map[string]int64{"gourde": 150, "coffret": 99, "tote": 0}}
	totals := goal.Aggregate(cat, snap, 100)

	// gourde at 150: 6.50 group, coffret at 99: 7.00 group
	require.Equal(t, pricing.Money(150*650+99*700), totals.GroupMargin)
	require.Equal(t, pricing.Money(150*250+99*600), totals.PlatformMargin)
	require.Equal(t, pricing.Money(150*1500+99*3500), totals.Revenue)
	require.Equal(t, pricing.Money(150*600+99*2000), totals.Cost)
	require.Equal(t, int64(249), totals.Units)
	require.Equal(t, uint64(4), totals.LedgerVersion)
	require.Equal(t, 1.0, totals.Progress)
	require.Len(t, totals.Products, 2)
}

func TestGourdeVoucherReachesGoalShare(t *testing.T) {
	ctx := context.Background()
	cat := catalog.Default()
	store := ledger.NewMemoryStore(cat.IDs())
	orders := &order.Service{
		Consolidator: &ledger.Consolidator{Catalog: cat, Store: store},
		Log:          order.NewLog(),
	}
	_, err := orders.SubmitVoucher(ctx, order.Voucher{
		Buyer: "Paroisse",
		Items: []ledger.LineItem{{ProductID: "gourde", Quantity: 150}},
	})
	require.NoError(t, err)

	svc := &goal.Service{Catalog: cat, Store: store, Tracker: goal.NewTracker(100000)}
	totals, err := svc.Totals(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(150), totals.Products[0].Volume)
	require.Equal(t, pricing.Money(97500), totals.GroupMargin)
	require.Equal(t, "975.00", totals.GroupMargin.String())
	require.InDelta(t, 0.975, totals.Progress, 1e-9)
}

func TestTracker(t *testing.T) {
	tr := goal.NewTracker(-1)
	require.Zero(t, tr.Goal())
	prev, err := tr.Set(5000)
	require.NoError(t, err)
	require.Zero(t, prev)
	_, err = tr.Set(-1)
	require.ErrorIs(t, err, goal.ErrNegativeGoal)
	require.Equal(t, pricing.Money(5000), tr.Goal())
}
