// Package cart keeps item quantities for a shopping session.
package cart

import (
	"sync"

	"github.com/hyperjump/etalase/internal/models"
)

// Lookup resolves item identifiers against the current catalog.
type Lookup interface {
	Get(id string) (*models.Item, bool)
}

// Line is one cart entry resolved against the catalog.
type Line struct {
	Item     *models.Item `json:"item"`
	Quantity int          `json:"quantity"`
	Subtotal float64      `json:"subtotal"`
}

// Summary is the resolved cart.
type Summary struct {
	Lines []Line  `json:"lines"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Cart maps item identifiers to positive quantities, remembering the order in
// which items were first added. Safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	qty   map[string]int
	order []string
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{qty: make(map[string]int)}
}

// Add increments the quantity of id by one and returns the new quantity.
func (c *Cart) Add(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.qty[id]; !ok {
		c.order = append(c.order, id)
	}
	c.qty[id]++
	return c.qty[id]
}

// Update changes the quantity of an item already in the cart by delta. The item
// is removed when its quantity drops to zero or below. Unknown ids are ignored.
// It returns the new quantity and whether the item was in the cart.
func (c *Cart) Update(id string, delta int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.qty[id]
	if !ok {
		return 0, false
	}
	q += delta
	if q <= 0 {
		c.removeLocked(id)
		return 0, true
	}
	c.qty[id] = q
	return q, true
}

// Remove deletes id from the cart.
func (c *Cart) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

func (c *Cart) removeLocked(id string) {
	if _, ok := c.qty[id]; !ok {
		return
	}
	delete(c.qty, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Quantity returns the quantity of id, or 0.
func (c *Cart) Quantity(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qty[id]
}

// Count returns the total number of units in the cart.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, q := range c.qty {
		n += q
	}
	return n
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.qty = make(map[string]int)
	c.order = nil
}

// Lines resolves the cart against the catalog in insertion order. Entries whose
// item is no longer in the catalog are skipped.
func (c *Cart) Lines(catalog Lookup) []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		it, ok := catalog.Get(id)
		if !ok {
			continue
		}
		q := c.qty[id]
		lines = append(lines, Line{Item: it, Quantity: q, Subtotal: it.Price * float64(q)})
	}
	return lines
}

// Total returns the price of every resolvable line.
func (c *Cart) Total(catalog Lookup) float64 {
	return c.Summarize(catalog).Total
}

// Summarize resolves the cart and totals units and price over resolvable lines.
func (c *Cart) Summarize(catalog Lookup) Summary {
	s := Summary{Lines: c.Lines(catalog)}
	for _, l := range s.Lines {
		s.Count += l.Quantity
		s.Total += l.Subtotal
	}
	return s
}
