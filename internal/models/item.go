// Package models defines core data structures for catalog items, queries, and search results.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ItemID is the stable identifier of a catalog item. Catalog files may carry it
// as a JSON/YAML number or string; it is always handled as a string internally.
type ItemID string

// String returns the identifier as a string.
func (id ItemID) String() string {
	return string(id)
}

// UnmarshalJSON accepts both numeric and string identifiers.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid item id: %w", err)
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid item id %s: %w", string(data), err)
	}
	*id = ItemID(n.String())
	return nil
}

// UnmarshalYAML accepts both numeric and string identifiers.
func (id *ItemID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid item id at line %d: expected scalar", node.Line)
	}
	*id = ItemID(node.Value)
	return nil
}

// Item is a catalog record. The retrieval core only reads ID, Name, Description and Tags;
// the remaining attributes belong to the catalog and its presentation.
type Item struct {
	ID          ItemID   `json:"id" yaml:"id" db:"id"`
	Name        string   `json:"name" yaml:"name" db:"name"`
	Description string   `json:"description" yaml:"description" db:"description"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty" db:"category"`
	Tags        []string `json:"tags" yaml:"tags" db:"tags"`
	Price       float64  `json:"price" yaml:"price" db:"price"`
	Image       string   `json:"image,omitempty" yaml:"image,omitempty" db:"image"`
}

// EmbeddingText returns the text embedded for this item: name, description and tags,
// so the vector reflects the full semantic content rather than only the title.
func (it *Item) EmbeddingText() string {
	return it.Name + ". " + it.Description + ". Tags: " + strings.Join(it.Tags, ", ")
}

// FormatPrice renders the price with two decimals, e.g. "$12.50".
func (it *Item) FormatPrice() string {
	return "$" + strconv.FormatFloat(it.Price, 'f', 2, 64)
}
