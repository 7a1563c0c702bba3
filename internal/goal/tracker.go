package goal

import (
	"errors"
	"sync"

	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

// ErrNegativeGoal is returned when a goal below zero is set.
var ErrNegativeGoal = errors.New("goal must not be negative")

// Tracker holds the current funding goal.
type Tracker struct {
	mu   sync.RWMutex
	goal pricing.Money
}

func NewTracker(initial pricing.Money) *Tracker {
	if initial < 0 {
		initial = 0
	}
	return &Tracker{goal: initial}
}

func (t *Tracker) Goal() pricing.Money {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.goal
}

// Set replaces the goal and returns the previous one.
func (t *Tracker) Set(goal pricing.Money) (pricing.Money, error) {
	if goal < 0 {
		return 0, ErrNegativeGoal
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.goal
	t.goal = goal
	return prev, nil
}
