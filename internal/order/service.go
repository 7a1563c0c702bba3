package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-fundraise/internal/events"
	"github.com/noah-isme/backend-fundraise/internal/ledger"
	"github.com/noah-isme/backend-fundraise/internal/obs"
)

const sourceVoucher = "voucher"

type Service struct {
	Consolidator *ledger.Consolidator
	Log          *Log
	Recorder     Recorder
	RecorderName string
	Events       *events.Bus
	Metrics      *obs.DomainMetrics
	Logger       zerolog.Logger
	Now          func() time.Time
}

// SubmitVoucher validates and consolidates a paper voucher, hands the order
// to the recorder and logs it. A recorder failure returns the order together
// with an *UpstreamPersistenceError; the ledger update is kept.
func (s *Service) SubmitVoucher(ctx context.Context, v Voucher) (Order, error) {
	if s == nil || s.Consolidator == nil || s.Log == nil {
		return Order{}, errors.New("order service not configured")
	}
	buyer := strings.TrimSpace(v.Buyer)
	if buyer == "" {
		s.Metrics.Consolidation(sourceVoucher, "invalid")
		return Order{}, ledger.Invalid("buyer is required")
	}
	lines, err := s.Consolidator.Normalize(v.Items)
	if err != nil {
		s.Metrics.Consolidation(sourceVoucher, "invalid")
		return Order{}, err
	}
	if len(lines) == 0 {
		s.Metrics.Consolidation(sourceVoucher, "invalid")
		return Order{}, ledger.Invalid("voucher has no items")
	}

	res, err := s.Consolidator.Consolidate(ctx, lines)
	if err != nil {
		s.Metrics.Consolidation(sourceVoucher, "error")
		return Order{}, err
	}
	s.Metrics.Consolidation(sourceVoucher, "ok")
	for _, line := range res.Lines {
		s.Metrics.AddUnits(line.ProductID, line.Quantity)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	o := Order{
		ID:        uuid.NewString(),
		Buyer:     buyer,
		Items:     lines,
		Total:     res.Total.Revenue,
		CreatedAt: now().UTC(),
	}
	logger := s.Logger.With().Str("order_id", o.ID).Logger()

	recorder := s.Recorder
	if recorder == nil {
		recorder = NopRecorder{}
	}
	storedID, recErr := recorder.Record(ctx, o)
	if recErr == nil {
		o.StoredID = storedID
	}
	if err := s.Log.Append(o); err != nil {
		return Order{}, fmt.Errorf("log order: %w", err)
	}

	if recErr != nil {
		s.Metrics.OrderRecord(s.recorderName(), "error")
		logger.Warn().Err(recErr).Str("recorder", s.recorderName()).Msg("order not recorded upstream")
		s.emit(ctx, logger, events.TopicOrderRecordFailed, o.ID, map[string]any{
			"order": o,
			"error": recErr.Error(),
		})
		return o, &UpstreamPersistenceError{OrderID: o.ID, Recorder: s.recorderName(), Err: recErr}
	}
	s.Metrics.OrderRecord(s.recorderName(), "ok")
	logger.Info().
		Str("buyer", o.Buyer).
		Int64("total", int64(o.Total)).
		Uint64("ledger_version", res.Snapshot.Version).
		Msg("voucher consolidated")
	s.emit(ctx, logger, events.TopicOrderRecorded, o.ID, map[string]any{
		"order":  o,
		"split":  res.Total,
		"ledger": res.Snapshot,
	})
	return o, nil
}

func (s *Service) recorderName() string {
	if s.RecorderName == "" {
		return "none"
	}
	return s.RecorderName
}

func (s *Service) emit(ctx context.Context, logger zerolog.Logger, topic, id string, payload any) {
	if _, err := s.Events.Emit(ctx, topic, id, payload); err != nil {
		logger.Error().Err(err).Str("topic", topic).Msg("emit event")
	}
}
