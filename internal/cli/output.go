// Package cli renders search output for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/CloudShih/ripsearch/internal/history"
	"github.com/CloudShih/ripsearch/internal/models"
	"github.com/CloudShih/ripsearch/internal/worker"
	"github.com/CloudShih/ripsearch/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// Writer renders worker events as they arrive. Text mode prints a block per
// file with highlighted match lines; JSON mode collects everything and emits
// one document from Close, so partial output is never valid JSON.
type Writer struct {
	w       io.Writer
	format  SearchOutputFormat
	results []*models.FileResult
	summary *models.SearchSummary
}

// NewWriter creates a Writer emitting to w in format.
func NewWriter(w io.Writer, format SearchOutputFormat) *Writer {
	return &Writer{w: w, format: format}
}

// WriteEvent renders one event. Progress and Started events are silent in
// both formats; the caller decides whether to report progress elsewhere.
func (cw *Writer) WriteEvent(ev worker.Event) {
	switch ev.Kind {
	case worker.EventResult:
		if cw.format == OutputJSON {
			cw.results = append(cw.results, ev.Result)
			return
		}
		writeFileResult(cw.w, ev.Result)
	case worker.EventCompleted, worker.EventCancelled, worker.EventError:
		cw.summary = ev.Summary
	}
}

// Close finishes the output: the JSON document in JSON mode, the summary
// line in text mode. Safe to call when no terminal event arrived.
func (cw *Writer) Close() error {
	if cw.format == OutputJSON {
		doc := struct {
			Summary *models.SearchSummary `json:"summary"`
			Results []*models.FileResult  `json:"results"`
		}{Summary: cw.summary, Results: cw.results}
		if doc.Results == nil {
			doc.Results = []*models.FileResult{}
		}
		enc := json.NewEncoder(cw.w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	if cw.summary != nil {
		writeSummary(cw.w, cw.summary)
	}
	return nil
}

func writeFileResult(w io.Writer, fr *models.FileResult) {
	fmt.Fprintf(w, "\n%s (%d matches)\n", fr.FilePath, fr.TotalMatches)
	for _, m := range fr.Matches {
		for _, line := range m.ContextBefore {
			fmt.Fprintf(w, "  %s\n", utils.Truncate(line, 200))
		}
		fmt.Fprintf(w, "  %d:%d: %s\n", m.LineNumber, m.Column, utils.Truncate(m.Content, 200))
		for _, line := range m.ContextAfter {
			fmt.Fprintf(w, "  %s\n", utils.Truncate(line, 200))
		}
	}
}

func writeSummary(w io.Writer, s *models.SearchSummary) {
	switch s.Status {
	case models.StatusCompleted:
		fmt.Fprintf(w, "\n%d matches in %d files (%d searched, %.2fs)\n",
			s.TotalMatches, s.FilesWithMatches, s.FilesSearched, s.SearchTime)
	case models.StatusCancelled:
		fmt.Fprintf(w, "\nCancelled after %d matches in %d files (%.2fs)\n",
			s.TotalMatches, s.FilesWithMatches, s.SearchTime)
	case models.StatusError:
		fmt.Fprintf(w, "\nSearch failed: %s\n", s.ErrorMessage)
	}
}

// WriteHistory writes recent search history entries to w in the given format.
func WriteHistory(w io.Writer, entries []*history.Entry, format SearchOutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No searches recorded.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-9s  %4d matches  %s in %s\n",
			e.StartedAt.Format("2006-01-02 15:04:05"), e.Status,
			e.TotalMatches, e.Pattern, e.SearchPath)
	}
	return nil
}
