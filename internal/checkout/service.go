// Package checkout merges online cart checkouts into the volume ledger.
// Online checkouts produce no order record; they are journaled as
// ledger.consolidated events only.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-fundraise/internal/events"
	"github.com/noah-isme/backend-fundraise/internal/ledger"
	"github.com/noah-isme/backend-fundraise/internal/obs"
	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

const sourceCheckout = "checkout"

// Receipt is what the buyer sees after checkout.
type Receipt struct {
	Lines   []ledger.PricedLine `json:"lines"`
	Total   pricing.Breakdown   `json:"total"`
	Ledger  ledger.Snapshot     `json:"ledger"`
	Applied bool                `json:"applied"`
}

func receipt(c ledger.Consolidation) Receipt {
	lines := c.Lines
	if lines == nil {
		lines = []ledger.PricedLine{}
	}
	return Receipt{Lines: lines, Total: c.Total, Ledger: c.Snapshot, Applied: c.Applied()}
}

type Service struct {
	Consolidator *ledger.Consolidator
	Events       *events.Bus
	Metrics      *obs.DomainMetrics
	Logger       zerolog.Logger
}

// Checkout consolidates the cart. An empty cart leaves the ledger untouched.
func (s *Service) Checkout(ctx context.Context, items []ledger.LineItem) (Receipt, error) {
	if s == nil || s.Consolidator == nil {
		return Receipt{}, errors.New("checkout service not configured")
	}
	res, err := s.Consolidator.Consolidate(ctx, items)
	if err != nil {
		result := "error"
		if errors.Is(err, ledger.ErrInvalidOrder) {
			result = "invalid"
		}
		s.Metrics.Consolidation(sourceCheckout, result)
		return Receipt{}, err
	}
	if !res.Applied() {
		s.Metrics.Consolidation(sourceCheckout, "empty")
		return receipt(res), nil
	}
	s.Metrics.Consolidation(sourceCheckout, "ok")
	for _, line := range res.Lines {
		s.Metrics.AddUnits(line.ProductID, line.Quantity)
	}

	aggregate := fmt.Sprintf("ledger-v%d", res.Snapshot.Version)
	if _, err := s.Events.Emit(ctx, events.TopicLedgerConsolidated, aggregate, map[string]any{
		"source": sourceCheckout,
		"lines":  res.Lines,
		"total":  res.Total,
		"ledger": res.Snapshot,
	}); err != nil {
		s.Logger.Error().Err(err).Str("topic", events.TopicLedgerConsolidated).Msg("emit event")
	}
	s.Logger.Info().
		Int("lines", len(res.Lines)).
		Int64("group_margin", int64(res.Total.Group)).
		Uint64("ledger_version", res.Snapshot.Version).
		Msg("checkout consolidated")
	return receipt(res), nil
}

// Quote prices the cart at the tiers it would reach without changing the
// ledger.
func (s *Service) Quote(ctx context.Context, items []ledger.LineItem) (Receipt, error) {
	if s == nil || s.Consolidator == nil {
		return Receipt{}, errors.New("checkout service not configured")
	}
	res, err := s.Consolidator.Quote(ctx, items)
	if err != nil {
		return Receipt{}, err
	}
	r := receipt(res)
	r.Applied = false
	return r, nil
}
