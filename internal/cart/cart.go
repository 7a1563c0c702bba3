// Package cart accumulates the line items of an order form: repeated products
// stack into one line and blank or non-positive lines are ignored.
package cart

import (
	"math"
	"strings"

	"github.com/noah-isme/backend-fundraise/internal/ledger"
)

// Cart is an ordered product → quantity map. The zero value is ready to use.
type Cart struct {
	order []string
	qty   map[string]int64
}

// FromItems builds a cart by adding every item in turn.
func FromItems(items []ledger.LineItem) *Cart {
	c := &Cart{}
	for _, it := range items {
		c.Add(it.ProductID, it.Quantity)
	}
	return c
}

// Add increments the quantity for productID. Non-positive deltas are ignored
// and the total saturates at math.MaxInt64.
func (c *Cart) Add(productID string, qty int64) {
	productID = strings.TrimSpace(productID)
	if productID == "" || qty <= 0 {
		return
	}
	if c.qty == nil {
		c.qty = make(map[string]int64)
	}
	current, ok := c.qty[productID]
	if !ok {
		c.order = append(c.order, productID)
	}
	if qty > math.MaxInt64-current {
		c.qty[productID] = math.MaxInt64
		return
	}
	c.qty[productID] = current + qty
}

// Lines returns the line items in first-added order.
func (c *Cart) Lines() []ledger.LineItem {
	out := make([]ledger.LineItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, ledger.LineItem{ProductID: id, Quantity: c.qty[id]})
	}
	return out
}
