// Package ansi strips terminal escape sequences and recovers highlight spans
// from match-colored output.
package ansi

import (
	"strings"

	"github.com/CloudShih/ripsearch/internal/models"
)

const (
	esc       = 0x1b
	matchKind = "match"
	csiOpener = '['
	sgrCloser = 'm'
	csiTermLo = 0x40
	csiTermHi = 0x7e
)

// Extract removes escape sequences from text and returns the cleaned string
// together with the spans that were wrapped in a match color. Offsets refer
// to the cleaned string. A match color left open at end of string closes at
// the final length.
func Extract(text string) (string, []models.HighlightSpan) {
	var (
		clean   strings.Builder
		spans   []models.HighlightSpan
		inside  bool
		pending int
	)
	i := 0
	for i < len(text) {
		if text[i] != esc || i+1 >= len(text) || text[i+1] != csiOpener {
			clean.WriteByte(text[i])
			i++
			continue
		}
		params, next, ok := scanCSI(text, i)
		i = next
		if !ok {
			continue
		}
		switch {
		case isMatchStart(params):
			if !inside {
				inside = true
				pending = clean.Len()
			}
		case isReset(params):
			if inside {
				inside = false
				spans = append(spans, models.HighlightSpan{Start: pending, End: clean.Len(), Kind: matchKind})
			}
		default:
			// Unrecognized color or style: stripped, no state effect.
		}
	}
	if inside {
		spans = append(spans, models.HighlightSpan{Start: pending, End: clean.Len(), Kind: matchKind})
	}
	return clean.String(), spans
}

// Strip removes escape sequences without tracking spans. It is idempotent on
// already-clean text.
func Strip(text string) string {
	if !strings.ContainsRune(text, rune(esc)) {
		return text
	}
	var clean strings.Builder
	clean.Grow(len(text))
	i := 0
	for i < len(text) {
		if text[i] != esc || i+1 >= len(text) || text[i+1] != csiOpener {
			clean.WriteByte(text[i])
			i++
			continue
		}
		_, next, _ := scanCSI(text, i)
		i = next
	}
	return clean.String()
}

// scanCSI consumes the escape sequence starting at text[start] (which must be
// ESC '['). It returns the parameter bytes for SGR sequences, the index after
// the sequence, and whether the sequence was a complete SGR. Sequences with a
// non-SGR terminator are consumed with ok=false; a truncated sequence consumes
// the rest of the string.
func scanCSI(text string, start int) (params string, next int, ok bool) {
	j := start + 2
	for j < len(text) {
		b := text[j]
		if b >= csiTermLo && b <= csiTermHi {
			if b == sgrCloser {
				return text[start+2 : j], j + 1, true
			}
			return "", j + 1, false
		}
		j++
	}
	return "", len(text), false
}

// isMatchStart reports whether SGR params request the match foreground color
// (red, plain or bold, standard or 8-bit form).
func isMatchStart(params string) bool {
	for _, part := range strings.Split(params, ";") {
		if part == "31" || part == "91" {
			return true
		}
	}
	// 8-bit foreground red used by some configurations.
	return params == "38;5;1" || params == "38;5;9"
}

// isReset reports whether SGR params reset all attributes.
func isReset(params string) bool {
	if params == "" {
		return true
	}
	for _, part := range strings.Split(params, ";") {
		if part != "0" && part != "00" {
			return false
		}
	}
	return true
}
