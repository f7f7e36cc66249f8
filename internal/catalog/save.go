package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/etalase/internal/models"
	"github.com/hyperjump/etalase/internal/storage"
	"gopkg.in/yaml.v3"
)

// Save writes items to path in the format chosen by its extension. Every
// format Load reads can be written; a SQLite target has its items replaced.
func Save(ctx context.Context, path, source string, items []*models.Item) error {
	if err := Validate(items); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(path, append(data, '\n'), 0644)
	case ".yaml", ".yml":
		data, err := yaml.Marshal(items)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0644)
	case ".xlsx":
		return WriteXLSX(path, items)
	case ".db", ".sqlite", ".sqlite3":
		store, err := storage.NewSQLiteStorage(path)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.ReplaceItems(ctx, source, items)
	default:
		return fmt.Errorf("unsupported catalog format %q (supported: %s)", ext, strings.Join(SupportedExtensions, ", "))
	}
}
