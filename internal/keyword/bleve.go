package keyword

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/etalase/internal/models"
	"go.uber.org/zap"
)

// wildcardMeta lists characters that change meaning once a wildcard query is
// compiled to a regexp. Queries containing them use the substring scan.
const wildcardMeta = `*?.+()[]{}|^$\`

const (
	exactAnalyzer = "etalase_exact"
	fieldName     = "name"
	fieldDesc     = "description"
)

// itemDoc is the bleve document for one catalog item.
type itemDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BleveMatcher answers fallback queries from an in-memory Bleve index. Each field
// is indexed as a single token of its strings.ToLower form and queried with a *q* wildcard, which
// selects exactly the items SubstringMatcher selects. Items that are not indexed,
// or whose text changed since indexing, are checked with the substring rule.
type BleveMatcher struct {
	mu      sync.RWMutex
	index   bleve.Index
	indexed map[string]itemDoc
	logger  *zap.Logger
}

// BleveOption configures a BleveMatcher.
type BleveOption func(*BleveMatcher)

// WithBleveLogger sets the logger.
func WithBleveLogger(logger *zap.Logger) BleveOption {
	return func(m *BleveMatcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewBleveMatcher creates an empty BleveMatcher. Call Index to populate it.
func NewBleveMatcher(opts ...BleveOption) *BleveMatcher {
	m := &BleveMatcher{
		indexed: make(map[string]itemDoc),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func newItemMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	// Text is folded with strings.ToLower before indexing, the same folding
	// Contains applies, so the analyzer keeps each field as one untouched token.
	err := im.AddCustomAnalyzer(exactAnalyzer, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": single.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = exactAnalyzer
	textFieldMapping.Store = false
	textFieldMapping.IncludeTermVectors = false
	docMapping.AddFieldMappingsAt(fieldName, textFieldMapping)
	docMapping.AddFieldMappingsAt(fieldDesc, textFieldMapping)
	im.AddDocumentMapping("item", docMapping)
	im.DefaultType = "item"
	im.DefaultMapping = docMapping
	return im, nil
}

// Index replaces the indexed catalog.
func (m *BleveMatcher) Index(ctx context.Context, items []*models.Item) error {
	im, err := newItemMapping()
	if err != nil {
		return err
	}
	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return fmt.Errorf("failed to create Bleve index: %w", err)
	}

	indexed := make(map[string]itemDoc, len(items))
	batch := index.NewBatch()
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			_ = index.Close()
			return err
		}
		// Wildcards do not cross line breaks; those items stay on the substring path.
		if hasLineBreak(it.Name) || hasLineBreak(it.Description) {
			continue
		}
		doc := itemDoc{Name: it.Name, Description: it.Description}
		folded := itemDoc{Name: strings.ToLower(it.Name), Description: strings.ToLower(it.Description)}
		if err := batch.Index(it.ID.String(), folded); err != nil {
			_ = index.Close()
			return fmt.Errorf("failed to index item %s: %w", it.ID, err)
		}
		indexed[it.ID.String()] = doc
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return fmt.Errorf("failed to commit Bleve batch: %w", err)
	}

	m.mu.Lock()
	old := m.index
	m.index = index
	m.indexed = indexed
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	m.logger.Debug("fallback index built", zap.Int("items", len(indexed)))
	return nil
}

// Match implements Matcher.
func (m *BleveMatcher) Match(ctx context.Context, query string, items []*models.Item) ([]*models.Item, error) {
	q := strings.ToLower(query)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits map[string]struct{}
	if m.index != nil && q != "" && !strings.ContainsAny(q, wildcardMeta) {
		var err error
		hits, err = m.search(q)
		if err != nil {
			m.logger.Warn("bleve fallback search failed, using substring scan", zap.Error(err))
			hits = nil
		}
	}

	out := make([]*models.Item, 0)
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := it.ID.String()
		doc, ok := m.indexed[id]
		if hits != nil && ok && doc.Name == it.Name && doc.Description == it.Description {
			if _, hit := hits[id]; hit {
				out = append(out, it)
			}
			continue
		}
		if Contains(it, q) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *BleveMatcher) search(lowerQuery string) (map[string]struct{}, error) {
	pattern := "*" + lowerQuery + "*"
	nameQuery := bleve.NewWildcardQuery(pattern)
	nameQuery.SetField(fieldName)
	descQuery := bleve.NewWildcardQuery(pattern)
	descQuery.SetField(fieldDesc)
	var q blevequery.Query = bleve.NewDisjunctionQuery(nameQuery, descQuery)

	req := bleve.NewSearchRequest(q)
	req.Size = len(m.indexed)
	if req.Size == 0 {
		return map[string]struct{}{}, nil
	}
	res, err := m.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	hits := make(map[string]struct{}, len(res.Hits))
	for _, hit := range res.Hits {
		hits[hit.ID] = struct{}{}
	}
	return hits, nil
}

// DocCount returns the number of indexed items.
func (m *BleveMatcher) DocCount() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.index == nil {
		return 0, nil
	}
	return m.index.DocCount()
}

// Close releases the Bleve index.
func (m *BleveMatcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index == nil {
		return nil
	}
	err := m.index.Close()
	m.index = nil
	m.indexed = make(map[string]itemDoc)
	return err
}

func hasLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}
