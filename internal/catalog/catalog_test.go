package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/etalase/internal/models"
	"github.com/hyperjump/etalase/internal/storage"
)

const productsJSON = `[
  {"id": 1, "name": "Red Shoes", "description": "leather running shoes", "tags": ["shoes", "red"], "price": 59.99, "image": "red.jpg"},
  {"id": 2, "name": "Blue Hat", "description": "wool hat", "tags": ["hat", " blue ", ""], "price": 19.5, "image": "blue.jpg"},
  {"id": "sku-3", "name": "Gift Card", "description": "", "tags": [], "price": 0, "category": "misc"}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func checkSample(t *testing.T, c *Catalog) {
	t.Helper()
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	items := c.Items()
	for i, want := range []models.ItemID{"1", "2", "sku-3"} {
		if items[i].ID != want {
			t.Errorf("item %d id = %q, want %q", i, items[i].ID, want)
		}
	}
	hat, ok := c.Get("2")
	if !ok {
		t.Fatal("Get(2) not found")
	}
	if len(hat.Tags) != 2 || hat.Tags[1] != "blue" {
		t.Errorf("tags not normalized: %q", hat.Tags)
	}
	if hat.Price != 19.5 {
		t.Errorf("price = %v", hat.Price)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "products.json", productsJSON)
	c, err := Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	checkSample(t, c)
	if c.Source() != path {
		t.Errorf("Source = %q", c.Source())
	}
}

func TestLoad_JSONEnvelope(t *testing.T) {
	path := writeFile(t, "products.json", `{"items": `+productsJSON+`}`)
	c, err := Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	checkSample(t, c)
}

func TestLoad_YAML(t *testing.T) {
	content := `
- id: 1
  name: Red Shoes
  description: leather running shoes
  tags: [shoes, red]
  price: 59.99
- id: 2
  name: Blue Hat
  description: wool hat
  tags: [hat, " blue "]
  price: 19.5
- id: sku-3
  name: Gift Card
  category: misc
`
	c, err := Load(context.Background(), writeFile(t, "products.yaml", content))
	if err != nil {
		t.Fatal(err)
	}
	checkSample(t, c)

	env := "items:\n  - id: 9\n    name: Scarf\n"
	c, err = Load(context.Background(), writeFile(t, "products.yml", env))
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Errorf("envelope Len = %d", c.Len())
	}
}

func TestLoad_XLSX(t *testing.T) {
	jsonCatalog, err := Load(context.Background(), writeFile(t, "products.json", productsJSON))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "products.xlsx")
	if err := WriteXLSX(path, jsonCatalog.Items()); err != nil {
		t.Fatal(err)
	}

	c, err := Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	checkSample(t, c)
	card, _ := c.Get("sku-3")
	if card.Category != "misc" {
		t.Errorf("category = %q", card.Category)
	}
}

func TestLoad_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	items, err := DecodeJSON([]byte(productsJSON))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceItems(context.Background(), "products.json", items); err != nil {
		t.Fatal(err)
	}
	store.Close()

	c, err := Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	checkSample(t, c)
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		file string
		body string
	}{
		{"unsupported", "products.csv", "id,name\n1,a\n"},
		{"empty", "products.json", "  "},
		{"malformed", "products.json", `[{"id": 1,`},
		{"bad yaml", "products.yaml", "- id: [1\n"},
		{"invalid item", "products.json", `[{"id": 1, "name": ""}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(ctx, writeFile(t, tt.file, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := Load(ctx, filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected error for missing SQLite catalog")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		items   []*models.Item
		wantErr string
	}{
		{"ok", []*models.Item{{ID: "1", Name: "a"}, {ID: "2", Name: "b", Price: 3}}, ""},
		{"empty catalog", nil, ""},
		{"missing id", []*models.Item{{Name: "a"}}, "missing id"},
		{"duplicate id", []*models.Item{{ID: "1", Name: "a"}, {ID: "1", Name: "b"}}, "duplicate id"},
		{"missing name", []*models.Item{{ID: "1"}}, "missing name"},
		{"negative price", []*models.Item{{ID: "1", Name: "a", Price: -1}}, "invalid price"},
		{"nil record", []*models.Item{nil}, "empty record"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.items)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Fatalf("expected ErrInvalidCatalog, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestNew_TrimsIdentifiers(t *testing.T) {
	c, err := New("inline", []*models.Item{{ID: " 7 ", Name: " Scarf "}})
	if err != nil {
		t.Fatal(err)
	}
	it, ok := c.Get("7")
	if !ok || it.Name != "Scarf" {
		t.Errorf("Get(7) = %+v, %v", it, ok)
	}
}

func TestCatalog_ItemsIsCopy(t *testing.T) {
	c, _ := New("inline", []*models.Item{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}})
	items := c.Items()
	items[0] = nil
	if c.Items()[0] == nil {
		t.Error("Items() must return a copy")
	}
	var nilCatalog *Catalog
	if nilCatalog.Len() != 0 || nilCatalog.Items() != nil {
		t.Error("nil catalog should be empty")
	}
}

func TestIsSupported(t *testing.T) {
	for path, want := range map[string]bool{
		"a.json": true, "a.YAML": true, "a.yml": true, "a.xlsx": true,
		"a.db": true, "a.sqlite": true, "a.csv": false, "a": false,
	} {
		if got := IsSupported(path); got != want {
			t.Errorf("IsSupported(%q) = %v", path, got)
		}
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeFile(t, "products.json", productsJSON)
	h := NewHolder(path, nil, nil)
	if h.Current() != nil {
		t.Fatal("Current should be nil before the first load")
	}
	c, err := h.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if h.Current() != c || c.Len() != 3 {
		t.Fatalf("Current = %v", h.Current())
	}

	if err := os.WriteFile(path, []byte(`[{"id": 1, "name": ""}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Reload(context.Background()); !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
	if h.Current() != c {
		t.Error("failed reload must keep the previous catalog")
	}

	if err := os.WriteFile(path, []byte(`[{"id": 9, "name": "Scarf"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := h.Current().Get("9"); !ok || h.Path() != path {
		t.Error("reload did not swap in the new catalog")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src, err := Load(ctx, writeFile(t, "products.json", productsJSON))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	for _, name := range []string{"out.json", "out.yaml", "out.xlsx", filepath.Join("nested", "out.db")} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Save(ctx, path, src.Source(), src.Items()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			c, err := Load(ctx, path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			checkSample(t, c)
		})
	}

	if err := Save(ctx, filepath.Join(dir, "out.csv"), "", src.Items()); err == nil {
		t.Error("expected error for unsupported format")
	}
	bad := []*models.Item{{ID: "1"}}
	if err := Save(ctx, filepath.Join(dir, "bad.json"), "", bad); !errors.Is(err, ErrInvalidCatalog) {
		t.Errorf("expected ErrInvalidCatalog, got %v", err)
	}
}
