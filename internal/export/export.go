// Package export writes a finished result collection to disk in JSON, CSV,
// TXT, or XLSX form. Exporting never mutates the collection.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/CloudShih/ripsearch/internal/models"
	"github.com/CloudShih/ripsearch/pkg/utils"
)

// Format is an export target.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTXT  Format = "txt"
	FormatXLSX Format = "xlsx"
)

// csvHeader is the fixed CSV column set; span positions are not representable
// in the flattened form.
var csvHeader = []string{"File", "Line", "Column", "Content", "Match Count"}

// FormatForPath infers the format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".txt":
		return FormatTXT
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatJSON
	}
}

// Export writes the collection to path in the given format. It reports
// success as a boolean plus a human-readable message; it never panics and
// never fails silently.
func Export(collection *models.SearchResultCollection, path string, format Format) (bool, string) {
	var err error
	switch format {
	case FormatJSON:
		err = writeJSON(collection, path)
	case FormatCSV:
		err = writeCSV(collection, path)
	case FormatTXT:
		err = writeTXT(collection, path)
	case FormatXLSX:
		err = writeXLSX(collection, path)
	default:
		return false, fmt.Sprintf("unknown export format: %s", format)
	}
	if err != nil {
		return false, fmt.Sprintf("export to %s failed: %v", path, err)
	}
	return true, fmt.Sprintf("exported %d files, %d matches to %s",
		collection.Len(), collection.TotalMatches(), path)
}

// document is the full-fidelity JSON shape: summary plus nested matches and
// highlight spans.
type document struct {
	Summary *models.SearchSummary `json:"summary"`
	Files   []*models.FileResult  `json:"files"`
}

func writeJSON(c *models.SearchResultCollection, path string) error {
	doc := document{Summary: c.Summary, Files: c.FileResults()}
	if doc.Files == nil {
		doc.Files = []*models.FileResult{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// ReadJSON re-hydrates a JSON export; used by consumers and round-trip tests.
func ReadJSON(path string) (*models.SearchSummary, []*models.FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read export: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse export: %w", err)
	}
	return doc.Summary, doc.Files, nil
}

func writeCSV(c *models.SearchResultCollection, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, fr := range c.FileResults() {
		for _, m := range fr.Matches {
			record := []string{
				fr.FilePath,
				strconv.Itoa(m.LineNumber),
				strconv.Itoa(m.Column),
				m.Content,
				strconv.Itoa(len(m.Highlights)),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func writeTXT(c *models.SearchResultCollection, path string) error {
	var b strings.Builder
	s := c.Summary
	b.WriteString("Search Report\n")
	b.WriteString("=============\n")
	if s != nil {
		fmt.Fprintf(&b, "Pattern:           %s\n", s.Pattern)
		fmt.Fprintf(&b, "Status:            %s\n", s.Status)
		fmt.Fprintf(&b, "Total matches:     %d\n", s.TotalMatches)
		fmt.Fprintf(&b, "Files with matches: %d\n", s.FilesWithMatches)
		fmt.Fprintf(&b, "Files searched:    %d\n", s.FilesSearched)
		fmt.Fprintf(&b, "Search time:       %.2fs\n", s.SearchTime)
		if s.ErrorMessage != "" {
			fmt.Fprintf(&b, "Error:             %s\n", s.ErrorMessage)
		}
	}
	for _, fr := range c.FileResults() {
		fmt.Fprintf(&b, "\n%s (%d matches)\n", fr.FilePath, fr.TotalMatches)
		for _, m := range fr.Matches {
			fmt.Fprintf(&b, "  %d:%d: %s\n", m.LineNumber, m.Column, utils.Truncate(m.Content, 200))
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}
