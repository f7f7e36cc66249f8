// Package storage defines the persistence interface for catalog items.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/etalase/internal/models"
)

// ErrNotFound is returned when an item does not exist.
var ErrNotFound = errors.New("not found")

// ImportRecord describes the last catalog replacement.
type ImportRecord struct {
	Source     string    `json:"source"`
	Items      int       `json:"items"`
	ImportedAt time.Time `json:"imported_at"`
}

// Storage defines catalog persistence operations. Items keep the order in which
// they were stored.
type Storage interface {
	// ReplaceItems atomically replaces the whole catalog.
	ReplaceItems(ctx context.Context, source string, items []*models.Item) error
	GetItem(ctx context.Context, id string) (*models.Item, error)
	// ListItems returns items in catalog order. A limit <= 0 returns all items.
	ListItems(ctx context.Context, offset, limit int) ([]*models.Item, error)
	CountItems(ctx context.Context) (int64, error)
	LastImport(ctx context.Context) (*ImportRecord, error)

	Close() error
}
