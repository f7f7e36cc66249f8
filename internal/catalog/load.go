package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hyperjump/etalase/internal/models"
	"github.com/hyperjump/etalase/internal/storage"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// SupportedExtensions lists the catalog file types Load understands.
var SupportedExtensions = []string{".json", ".yaml", ".yml", ".xlsx", ".db", ".sqlite", ".sqlite3"}

// IsSupported reports whether path has a catalog extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Load reads and validates the catalog at path. The format is chosen by extension.
func Load(ctx context.Context, path string) (*Catalog, error) {
	var (
		items []*models.Item
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		items, err = loadJSON(path)
	case ".yaml", ".yml":
		items, err = loadYAML(path)
	case ".xlsx":
		items, err = loadXLSX(path)
	case ".db", ".sqlite", ".sqlite3":
		items, err = loadSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q (supported: %s)", ext, strings.Join(SupportedExtensions, ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	c, err := New(path, items)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// envelope is the object form of a catalog file: {"items": [...]}.
type envelope struct {
	Items []*models.Item `json:"items" yaml:"items"`
}

// DecodeJSON parses a JSON catalog: a top-level array of items or an object
// with an "items" array.
func DecodeJSON(data []byte) ([]*models.Item, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty catalog file")
	}
	if data[0] == '[' {
		var items []*models.Item
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to parse JSON catalog: %w", err)
		}
		return items, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse JSON catalog: %w", err)
	}
	return env.Items, nil
}

func loadJSON(path string) ([]*models.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(data)
}

func loadYAML(path string) ([]*models.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse YAML catalog: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("empty catalog file")
	}
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var items []*models.Item
		if err := root.Decode(&items); err != nil {
			return nil, fmt.Errorf("failed to decode YAML catalog: %w", err)
		}
		return items, nil
	}
	var env envelope
	if err := root.Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode YAML catalog: %w", err)
	}
	return env.Items, nil
}

// xlsxColumns are the recognized header names, matched case-insensitively.
var xlsxColumns = []string{"id", "name", "description", "category", "tags", "price", "image"}

func loadXLSX(path string) ([]*models.Item, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return []*models.Item{}, nil
	}

	col := make(map[string]int, len(xlsxColumns))
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"id", "name"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("sheet %q: missing %q column", sheets[0], required)
		}
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	items := make([]*models.Item, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		it := &models.Item{
			ID:          models.ItemID(cell(row, "id")),
			Name:        cell(row, "name"),
			Description: cell(row, "description"),
			Category:    cell(row, "category"),
			Image:       cell(row, "image"),
			Tags:        splitTags(cell(row, "tags")),
		}
		if p := cell(row, "price"); p != "" {
			price, err := strconv.ParseFloat(strings.TrimPrefix(p, "$"), 64)
			if err != nil {
				return nil, fmt.Errorf("sheet %q row %d: invalid price %q", sheets[0], n+2, p)
			}
			it.Price = price
		}
		items = append(items, it)
	}
	return items, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func loadSQLite(ctx context.Context, path string) ([]*models.Item, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.ListItems(ctx, 0, 0)
}

// WriteXLSX writes items to an .xlsx workbook with the header row Load expects.
func WriteXLSX(path string, items []*models.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(xlsxColumns))
	for i, h := range xlsxColumns {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, it := range items {
		row := []interface{}{
			it.ID.String(), it.Name, it.Description, it.Category,
			strings.Join(it.Tags, ", "), it.Price, it.Image,
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return fmt.Errorf("write item %s: %w", it.ID, err)
		}
	}
	return f.SaveAs(path)
}
