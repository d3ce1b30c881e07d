package parser

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/CloudShih/ripsearch/internal/ansi"
	"github.com/CloudShih/ripsearch/internal/models"
)

// Fallback grammar for "--no-heading --color=always" output. Matches use ':'
// separators, context lines use '-' separators.
var (
	fallbackMatchRe   = regexp.MustCompile(`^(.+?):(\d+):(\d+):(.*)$`)
	fallbackContextRe = regexp.MustCompile(`^(.+?)-(\d+)-(.*)$`)

	// Heuristic grammar for heading-style output: a path on its own line,
	// then numbered lines.
	headingMatchRe   = regexp.MustCompile(`^(\d+):(?:(\d+):)?(.*)$`)
	headingContextRe = regexp.MustCompile(`^(\d+)-(.*)$`)
	extensionRe      = regexp.MustCompile(`\.\w+$`)
)

func (p *Parser) parseFallback(line string) Parsed {
	clean, spans := ansi.Extract(line)
	if clean == "" || clean == "--" {
		return Parsed{Kind: KindNone}
	}

	if m := fallbackMatchRe.FindStringSubmatch(clean); m != nil {
		lineNo, _ := strconv.Atoi(m[2])
		column, _ := strconv.Atoi(m[3])
		content := m[4]
		p.currentPath = m[1]
		return Parsed{
			Kind: KindMatch,
			Path: m[1],
			Match: &models.SearchMatch{
				LineNumber: lineNo,
				Column:     column,
				Content:    content,
				Highlights: shiftSpans(spans, len(clean)-len(content)),
			},
		}
	}
	if m := fallbackContextRe.FindStringSubmatch(clean); m != nil {
		lineNo, _ := strconv.Atoi(m[2])
		return Parsed{Kind: KindContext, Path: m[1], LineNumber: lineNo, Text: m[3]}
	}
	return p.parseHeuristic(clean, spans)
}

// parseHeuristic handles output that fits neither grammar: path-looking lines
// become new file headers, numbered lines become matches or context for the
// most recent header.
func (p *Parser) parseHeuristic(clean string, spans []models.HighlightSpan) Parsed {
	if m := headingMatchRe.FindStringSubmatch(clean); m != nil && p.currentPath != "" {
		lineNo, _ := strconv.Atoi(m[1])
		column := 0
		if m[2] != "" {
			column, _ = strconv.Atoi(m[2])
		}
		content := m[3]
		return Parsed{
			Kind: KindMatch,
			Path: p.currentPath,
			Match: &models.SearchMatch{
				LineNumber: lineNo,
				Column:     column,
				Content:    content,
				Highlights: shiftSpans(spans, len(clean)-len(content)),
			},
		}
	}
	if m := headingContextRe.FindStringSubmatch(clean); m != nil && p.currentPath != "" {
		lineNo, _ := strconv.Atoi(m[1])
		return Parsed{Kind: KindContext, Path: p.currentPath, LineNumber: lineNo, Text: m[2]}
	}
	if looksLikePath(clean) {
		p.currentPath = clean
		return Parsed{Kind: KindFileBegin, Path: clean}
	}
	p.logger.Debug("skipping unparseable output line", zap.String("line", truncateForLog(clean)))
	return Parsed{Kind: KindNone}
}

// shiftSpans rebases spans from whole-line offsets to content offsets,
// dropping spans that fall entirely inside the path/line/column prefix.
func shiftSpans(spans []models.HighlightSpan, contentStart int) []models.HighlightSpan {
	if contentStart < 0 {
		contentStart = 0
	}
	var shifted []models.HighlightSpan
	for _, s := range spans {
		if s.End <= contentStart {
			continue
		}
		start := s.Start - contentStart
		if start < 0 {
			start = 0
		}
		shifted = append(shifted, models.HighlightSpan{Start: start, End: s.End - contentStart, Kind: s.Kind})
	}
	return shifted
}

// looksLikePath is deliberately loose: a line with path separators or a file
// extension and no leading digit grammar is treated as a file header.
func looksLikePath(s string) bool {
	if s == "" || strings.ContainsAny(s, "\x00") {
		return false
	}
	if s[0] >= '0' && s[0] <= '9' {
		return false
	}
	return strings.ContainsRune(s, '/') || strings.ContainsRune(s, '\\') || extensionRe.MatchString(s)
}
