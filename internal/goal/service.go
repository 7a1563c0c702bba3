package goal

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-fundraise/internal/catalog"
	"github.com/noah-isme/backend-fundraise/internal/events"
	"github.com/noah-isme/backend-fundraise/internal/ledger"
	"github.com/noah-isme/backend-fundraise/internal/obs"
	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

type Service struct {
	Catalog *catalog.Catalog
	Store   ledger.Store
	Tracker *Tracker
	Events  *events.Bus
	Metrics *obs.DomainMetrics
	Logger  zerolog.Logger
}

// Totals aggregates the latest ledger snapshot against the current goal.
func (s *Service) Totals(ctx context.Context) (Totals, error) {
	if s == nil || s.Catalog == nil || s.Store == nil || s.Tracker == nil {
		return Totals{}, errors.New("goal service not configured")
	}
	snap, err := s.Store.Snapshot(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("read ledger: %w", err)
	}
	t := Aggregate(s.Catalog, snap, s.Tracker.Goal())
	s.Metrics.SetGoalProgress(t.Progress)
	return t, nil
}

// SetGoal updates the goal and publishes a goal.updated event.
func (s *Service) SetGoal(ctx context.Context, goal pricing.Money) (Totals, error) {
	if s == nil || s.Tracker == nil {
		return Totals{}, errors.New("goal service not configured")
	}
	prev, err := s.Tracker.Set(goal)
	if err != nil {
		return Totals{}, err
	}
	s.Logger.Info().Str("previous", prev.String()).Str("goal", goal.String()).Msg("funding goal updated")
	if _, err := s.Events.Emit(ctx, events.TopicGoalUpdated, "goal", map[string]any{
		"previous": prev,
		"goal":     goal,
	}); err != nil {
		s.Logger.Error().Err(err).Str("topic", events.TopicGoalUpdated).Msg("emit event")
	}
	return s.Totals(ctx)
}
