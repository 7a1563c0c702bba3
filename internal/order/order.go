// Package order handles manually encoded paper vouchers: it consolidates them
// into the ledger, keeps an append-only log and hands each order to an
// external recorder.
package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/noah-isme/backend-fundraise/internal/ledger"
	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

// Order is an accepted paper voucher. It is never changed once logged.
type Order struct {
	ID        string            `json:"id"`
	Buyer     string            `json:"buyer"`
	Items     []ledger.LineItem `json:"items"`
	Total     pricing.Money     `json:"total"`
	CreatedAt time.Time         `json:"createdAt"`
	StoredID  string            `json:"storedId,omitempty"`
}

func (o Order) clone() Order {
	o.Items = slices.Clone(o.Items)
	return o
}

// Voucher is the input of SubmitVoucher.
type Voucher struct {
	Buyer string
	Items []ledger.LineItem
}

// Recorder persists orders outside the process. It returns the identifier
// assigned by the backing store.
type Recorder interface {
	Record(ctx context.Context, o Order) (string, error)
}

// NopRecorder accepts every order without storing it.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Order) (string, error) { return "", nil }

// ErrUpstreamPersistence marks recorder failures.
var ErrUpstreamPersistence = errors.New("upstream persistence failed")

// UpstreamPersistenceError reports that the recorder rejected or could not
// be reached. The order was already consolidated and logged locally.
type UpstreamPersistenceError struct {
	OrderID  string
	Recorder string
	Err      error
}

func (e *UpstreamPersistenceError) Error() string {
	return fmt.Sprintf("record order %s via %s: %v", e.OrderID, e.Recorder, e.Err)
}

func (e *UpstreamPersistenceError) Unwrap() []error { return []error{ErrUpstreamPersistence, e.Err} }

func (e *UpstreamPersistenceError) HTTPStatus() int { return http.StatusBadGateway }

func (e *UpstreamPersistenceError) ErrorCode() string { return "UPSTREAM_PERSISTENCE" }

// Log is the in-process append-only order log.
type Log struct {
	mu     sync.RWMutex
	orders []Order
	byID   map[string]int
}

func NewLog() *Log {
	return &Log{byID: make(map[string]int)}
}

// Append adds o to the end of the log. Duplicate ids are rejected.
func (l *Log) Append(o Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byID[o.ID]; ok {
		return fmt.Errorf("order %s already logged", o.ID)
	}
	l.byID[o.ID] = len(l.orders)
	l.orders = append(l.orders, o.clone())
	return nil
}

// Get returns a copy of the order with the given id.
func (l *Log) Get(id string) (Order, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byID[id]
	if !ok {
		return Order{}, false
	}
	return l.orders[i].clone(), true
}

// Page returns copies of orders [offset, offset+limit) in insertion order
// and the total count.
func (l *Log) Page(offset, limit int) ([]Order, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := len(l.orders)
	if offset < 0 {
		offset = 0
	}
	if offset >= total || limit <= 0 {
		return []Order{}, total
	}
	end := min(offset+limit, total)
	out := make([]Order, 0, end-offset)
	for _, o := range l.orders[offset:end] {
		out = append(out, o.clone())
	}
	return out, total
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.orders)
}
