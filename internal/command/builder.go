// Package command translates search parameters into an argument vector for the
// external search binary and probes its availability.
package command

import (
	"strconv"
	"strings"

	"github.com/CloudShih/ripsearch/internal/models"
)

// DefaultExecutable is the search binary looked up on PATH when no explicit
// path is configured.
const DefaultExecutable = "rg"

// OutputFormat selects how the binary is asked to report results.
type OutputFormat int

const (
	// FormatJSON requests line-delimited structured events.
	FormatJSON OutputFormat = iota
	// FormatText requests colorized plain text for the fallback parser.
	FormatText
)

// Builder builds argument vectors. It is a pure function of its inputs:
// identical parameters always produce identical argv, and argv[0] is always
// the executable. Arguments are passed as a vector, never a shell string.
type Builder struct {
	executable string
	format     OutputFormat
}

// NewBuilder returns a builder for executable; empty means DefaultExecutable.
func NewBuilder(executable string, format OutputFormat) *Builder {
	if executable == "" {
		executable = DefaultExecutable
	}
	return &Builder{executable: executable, format: format}
}

// Executable returns the configured binary.
func (b *Builder) Executable() string { return b.executable }

// Build returns the full argument vector for p. It never fails: p is assumed
// to have passed models.SearchParameters.Validate.
func (b *Builder) Build(p *models.SearchParameters) []string {
	argv := []string{b.executable}

	switch b.format {
	case FormatJSON:
		argv = append(argv, "--json")
	default:
		// Forced color lets the fallback parser recover highlight spans.
		argv = append(argv,
			"--line-number",
			"--column",
			"--with-filename",
			"--no-heading",
			"--color=always",
		)
	}

	if p.CaseSensitive {
		argv = append(argv, "--case-sensitive")
	} else {
		argv = append(argv, "--ignore-case")
	}
	if !p.RegexMode {
		argv = append(argv, "--fixed-strings")
	}
	if p.WholeWords {
		argv = append(argv, "--word-regexp")
	}
	if p.Multiline {
		argv = append(argv, "--multiline")
	}
	if p.ContextLines > 0 {
		argv = append(argv, "--context", strconv.Itoa(p.ContextLines))
	}
	if p.MaxResults > 0 {
		argv = append(argv, "--max-count", strconv.Itoa(p.MaxResults))
	}

	for _, token := range p.FileTypes {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		switch {
		case strings.HasPrefix(token, "*."):
			argv = append(argv, "--glob", token)
		case strings.HasPrefix(token, "."):
			argv = append(argv, "--glob", "*"+token)
		default:
			// Bare token: the binary's own type registry (e.g. "py", "go").
			argv = append(argv, "--type", token)
		}
	}
	for _, pattern := range p.ExcludePatterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		argv = append(argv, "--glob", "!"+pattern)
	}

	if p.MaxDepth > 0 {
		argv = append(argv, "--max-depth", strconv.Itoa(p.MaxDepth))
	}

	// The binary's defaults for symlinks and hidden files differ between
	// walking modes, so both are always passed explicitly.
	if p.FollowSymlinks {
		argv = append(argv, "--follow")
	} else {
		argv = append(argv, "--no-follow")
	}
	if p.SearchHidden {
		argv = append(argv, "--hidden")
	} else {
		argv = append(argv, "--no-hidden")
	}

	argv = append(argv, "--threads", "0")
	argv = append(argv, "-e", p.Pattern, p.SearchPath)
	return argv
}
