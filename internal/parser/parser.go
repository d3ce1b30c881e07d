// Package parser converts the search binary's output stream into matches,
// one line at a time, without buffering the full output. It understands the
// binary's line-delimited JSON events and falls back to colorized
// path:line:col text when JSON is not in use.
package parser

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/CloudShih/ripsearch/internal/models"
)

// Kind discriminates what one output line produced.
type Kind int

const (
	// KindNone means the line carried no result (blank, malformed, bookkeeping).
	KindNone Kind = iota
	// KindFileBegin announces a new file before its matches.
	KindFileBegin
	// KindMatch is a matched line.
	KindMatch
	// KindContext is a context line adjacent to a match.
	KindContext
	// KindFileEnd closes the current file's matches.
	KindFileEnd
	// KindSummary is the binary's own terminal statistics event.
	KindSummary
)

// Parsed is the outcome of parsing one output line.
type Parsed struct {
	Kind       Kind
	Path       string
	Match      *models.SearchMatch // set for KindMatch
	LineNumber int                 // set for KindContext
	Text       string              // set for KindContext
	Stats      *Stats              // set for KindSummary when available
}

// Stats carries the binary's end-of-search statistics.
type Stats struct {
	MatchedLines      int `json:"matched_lines"`
	SearchesWithMatch int `json:"searches_with_match"`
	Searches          int `json:"searches"`
}

// Parser is the streaming line parser for one search. It keeps only the
// little state the fallback grammar needs (the current file header); it is
// not safe for concurrent use and is single-search like the worker owning it.
type Parser struct {
	logger      *zap.Logger
	currentPath string
}

// New returns a parser. logger may be nil.
func New(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// ParseLine parses one raw output line. Malformed lines are skipped with a
// debug note and never abort the stream.
func (p *Parser) ParseLine(line string) Parsed {
	if line == "" {
		return Parsed{Kind: KindNone}
	}
	if strings.HasPrefix(line, "{") {
		if parsed, ok := p.parseEvent(line); ok {
			return parsed
		}
		p.logger.Debug("skipping malformed event line", zap.String("line", truncateForLog(line)))
		return Parsed{Kind: KindNone}
	}
	return p.parseFallback(line)
}

// rg --json envelope.
type rgEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type rgText struct {
	Text string `json:"text"`
}

type rgSubmatch struct {
	Match rgText `json:"match"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type rgLineData struct {
	Path       *rgText      `json:"path"`
	Lines      *rgText      `json:"lines"`
	LineNumber *int         `json:"line_number"`
	Submatches []rgSubmatch `json:"submatches"`
}

type rgSummaryData struct {
	Stats Stats `json:"stats"`
}

func (p *Parser) parseEvent(line string) (Parsed, bool) {
	var event rgEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return Parsed{}, false
	}
	switch event.Type {
	case "begin":
		data, ok := decodeLineData(event.Data)
		if !ok {
			return Parsed{}, false
		}
		p.currentPath = pathOf(data)
		return Parsed{Kind: KindFileBegin, Path: p.currentPath}, true
	case "match":
		data, ok := decodeLineData(event.Data)
		if !ok || data.LineNumber == nil {
			return Parsed{}, false
		}
		return Parsed{Kind: KindMatch, Path: pathOf(data), Match: matchFromEvent(data)}, true
	case "context":
		data, ok := decodeLineData(event.Data)
		if !ok || data.LineNumber == nil {
			return Parsed{}, false
		}
		return Parsed{
			Kind:       KindContext,
			Path:       pathOf(data),
			LineNumber: *data.LineNumber,
			Text:       trimLine(textOf(data.Lines)),
		}, true
	case "end":
		data, _ := decodeLineData(event.Data)
		return Parsed{Kind: KindFileEnd, Path: pathOf(data)}, true
	case "summary":
		var data rgSummaryData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return Parsed{Kind: KindSummary}, true
		}
		return Parsed{Kind: KindSummary, Stats: &data.Stats}, true
	default:
		return Parsed{}, false
	}
}

func decodeLineData(raw json.RawMessage) (*rgLineData, bool) {
	if len(raw) == 0 {
		return &rgLineData{}, true
	}
	var data rgLineData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false
	}
	return &data, true
}

func matchFromEvent(data *rgLineData) *models.SearchMatch {
	content := trimLine(textOf(data.Lines))
	m := &models.SearchMatch{
		LineNumber: *data.LineNumber,
		Content:    content,
	}
	for _, sub := range data.Submatches {
		start, end := sub.Start, sub.End
		if start < 0 || start > end || end > len(content) {
			continue
		}
		m.Highlights = append(m.Highlights, models.HighlightSpan{Start: start, End: end, Kind: "match"})
	}
	if len(m.Highlights) > 0 {
		m.Column = m.Highlights[0].Start + 1
	}
	return m
}

func pathOf(data *rgLineData) string { return textOf(data.Path) }

func textOf(t *rgText) string {
	if t == nil {
		return ""
	}
	return t.Text
}

func trimLine(s string) string {
	return strings.TrimRight(s, "\r\n")
}

func truncateForLog(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
