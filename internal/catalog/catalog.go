// Package catalog loads and validates the product catalog.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hyperjump/etalase/internal/models"
)

// ErrInvalidCatalog reports a catalog that failed validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is an ordered, validated, read-only set of items.
type Catalog struct {
	items  []*models.Item
	byID   map[string]*models.Item
	source string
}

// New validates items and returns a Catalog holding them in the given order.
func New(source string, items []*models.Item) (*Catalog, error) {
	normalize(items)
	if err := Validate(items); err != nil {
		return nil, err
	}
	c := &Catalog{
		items:  items,
		byID:   make(map[string]*models.Item, len(items)),
		source: source,
	}
	for _, it := range items {
		c.byID[it.ID.String()] = it
	}
	return c, nil
}

// Items returns the items in catalog order. The slice is a copy; items are shared
// and must not be modified.
func (c *Catalog) Items() []*models.Item {
	if c == nil {
		return nil
	}
	return append([]*models.Item{}, c.items...)
}

// Get returns the item with the given identifier.
func (c *Catalog) Get(id string) (*models.Item, bool) {
	if c == nil {
		return nil, false
	}
	it, ok := c.byID[id]
	return it, ok
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Source returns where the catalog was loaded from.
func (c *Catalog) Source() string {
	if c == nil {
		return ""
	}
	return c.source
}

// normalize trims identifiers, names and tags, and drops empty tags.
func normalize(items []*models.Item) {
	for _, it := range items {
		if it == nil {
			continue
		}
		it.ID = models.ItemID(strings.TrimSpace(it.ID.String()))
		it.Name = strings.TrimSpace(it.Name)
		tags := it.Tags[:0]
		for _, tag := range it.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		it.Tags = tags
	}
}

// Validate checks the schema once at load time: every item needs a unique
// non-empty identifier, a name and a non-negative price.
func Validate(items []*models.Item) error {
	var errs []error
	seen := make(map[string]int, len(items))
	for i, it := range items {
		if it == nil {
			errs = append(errs, fmt.Errorf("record %d: empty record", i))
			continue
		}
		id := it.ID.String()
		switch {
		case id == "":
			errs = append(errs, fmt.Errorf("record %d: missing id", i))
		default:
			if prev, dup := seen[id]; dup {
				errs = append(errs, fmt.Errorf("record %d: duplicate id %q (first at record %d)", i, id, prev))
			} else {
				seen[id] = i
			}
		}
		if it.Name == "" {
			errs = append(errs, fmt.Errorf("record %d (id %q): missing name", i, id))
		}
		if it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0) {
			errs = append(errs, fmt.Errorf("record %d (id %q): invalid price %v", i, id, it.Price))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
}
