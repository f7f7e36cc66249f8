// Package cli formats etalase output for the terminal and talks to a running server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/etalase/internal/models"
	"github.com/hyperjump/etalase/internal/storage"
	"github.com/hyperjump/etalase/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one result per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
// Unknown formats are treated as text.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			writeCompactResult(w, r, response.Mode)
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms (%s)\n\n", response.Total, response.QueryTime, modeLabel(response.Mode))
	for _, r := range response.Results {
		writeOneResult(w, r, response.Mode)
	}
}

func modeLabel(mode models.SearchMode) string {
	switch mode {
	case models.ModeSemantic:
		return "semantic"
	case models.ModeFallback:
		return "text match, AI index not ready"
	case models.ModeAll:
		return "full catalog"
	default:
		return string(mode)
	}
}

func writeOneResult(w io.Writer, r *models.SearchResult, mode models.SearchMode) {
	it := r.Item
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	if mode == models.ModeSemantic {
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", r.Rank, r.Score)
	} else {
		fmt.Fprintf(w, "Rank: %d\n", r.Rank)
	}
	fmt.Fprintf(w, "ID: %s\n", it.ID)
	fmt.Fprintf(w, "%s  %s\n", it.Name, it.FormatPrice())
	if it.Category != "" {
		fmt.Fprintf(w, "Category: %s\n", it.Category)
	}
	if len(it.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(it.Tags, ", "))
	}
	if it.Description != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(utils.SingleLine(it.Description), 200))
	}
	fmt.Fprintln(w)
}

func writeCompactResult(w io.Writer, r *models.SearchResult, mode models.SearchMode) {
	it := r.Item
	if mode == models.ModeSemantic {
		fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\t%s\n", r.Rank, r.Score, it.ID, it.Name, it.FormatPrice())
		return
	}
	fmt.Fprintf(w, "%d\t-\t%s\t%s\t%s\n", r.Rank, it.ID, it.Name, it.FormatPrice())
}

// StorageStatus describes the imported SQLite catalog.
type StorageStatus struct {
	DatabasePath   string                `json:"database_path"`
	Items          int64                 `json:"items"`
	LastImport     *storage.ImportRecord `json:"last_import,omitempty"`
	DiskUsageBytes int64                 `json:"disk_usage_bytes"`
}

// StatusReport is the output of "etalase status".
type StatusReport struct {
	Service *models.StatusResponse `json:"service,omitempty"`
	Storage *StorageStatus         `json:"storage,omitempty"`
}

// WriteStatus writes a status report. Compact is treated as text.
func WriteStatus(w io.Writer, report *StatusReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	if s := report.Service; s != nil {
		fmt.Fprintf(w, "session:            %s\n", s.Session)
		fmt.Fprintf(w, "state:              %s\n", s.State)
		if s.Building {
			fmt.Fprintf(w, "building:           true\n")
		}
		if s.Message != "" {
			if s.Total > 0 {
				fmt.Fprintf(w, "progress:           %s (%d/%d)\n", s.Message, s.Done, s.Total)
			} else {
				fmt.Fprintf(w, "progress:           %s\n", s.Message)
			}
		}
		if s.Error != "" {
			fmt.Fprintf(w, "error:              %s\n", s.Error)
		}
		fmt.Fprintf(w, "items:              %d   # catalog items loaded\n", s.Items)
		fmt.Fprintf(w, "index_size:         %d   # items in the embedding index\n", s.IndexSize)
	}
	if st := report.Storage; st != nil {
		if report.Service != nil {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "# storage")
		fmt.Fprintf(w, "database_path:      %s\n", st.DatabasePath)
		fmt.Fprintf(w, "items:              %d\n", st.Items)
		fmt.Fprintf(w, "disk_usage_bytes:   %d\n", st.DiskUsageBytes)
		if st.LastImport != nil {
			fmt.Fprintf(w, "last_import:        %s (%d items, %s)\n",
				st.LastImport.Source, st.LastImport.Items, st.LastImport.ImportedAt.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
