package events

import (
	"context"
	"sync"
)

// Journal is a bounded in-memory EventStore. Once full, the oldest events
// are dropped.
type Journal struct {
	mu     sync.RWMutex
	limit  int
	events []Event
}

// NewJournal creates a journal that keeps at most limit events; limit <= 0
// means 1000.
func NewJournal(limit int) *Journal {
	if limit <= 0 {
		limit = 1000
	}
	return &Journal{limit: limit}
}

func (j *Journal) Append(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
	if over := len(j.events) - j.limit; over > 0 {
		j.events = append([]Event(nil), j.events[over:]...)
	}
	return nil
}

// Recent returns up to n events, oldest first, filtered by topic when topic
// is not empty.
func (j *Journal) Recent(topic string, n int) []Event {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Event, 0, len(j.events))
	for _, ev := range j.events {
		if topic == "" || ev.Topic == topic {
			out = append(out, ev)
		}
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
