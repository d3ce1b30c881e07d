// Package models defines core data structures for search parameters, matches, and summaries.
package models

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

const (
	// DefaultMaxResults is applied when SearchParameters.MaxResults is unset or non-positive.
	DefaultMaxResults = 1000
	// MaxContextLines is the upper clamp for SearchParameters.ContextLines.
	MaxContextLines = 20
)

// SearchParameters is the immutable snapshot of one search request.
// Callers populate it once, call Validate, and hand it to a worker;
// it must not be mutated after the search starts.
type SearchParameters struct {
	Pattern         string   `json:"pattern"`
	SearchPath      string   `json:"search_path"`
	CaseSensitive   bool     `json:"case_sensitive,omitempty"`
	WholeWords      bool     `json:"whole_words,omitempty"`
	RegexMode       bool     `json:"regex_mode,omitempty"`
	Multiline       bool     `json:"multiline,omitempty"`
	ContextLines    int      `json:"context_lines,omitempty"`
	MaxResults      int      `json:"max_results,omitempty"`
	FileTypes       []string `json:"file_types,omitempty"`
	ExcludePatterns []string `json:"exclude_patterns,omitempty"`
	MaxDepth        int      `json:"max_depth,omitempty"`
	FollowSymlinks  bool     `json:"follow_symlinks,omitempty"`
	SearchHidden    bool     `json:"search_hidden,omitempty"`
}

// Validate checks the parameters and normalizes them in place: the empty
// search path becomes the current directory, context lines are clamped to
// [0, MaxContextLines], and MaxResults gets DefaultMaxResults when non-positive.
// A missing or non-directory search path is a validation error; searches never
// silently fall back to the current directory.
func (p *SearchParameters) Validate() error {
	if strings.TrimSpace(p.Pattern) == "" {
		return &ValidationError{Field: "pattern", Reason: "search pattern cannot be empty"}
	}
	if p.RegexMode {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return &ValidationError{Field: "pattern", Reason: fmt.Sprintf("invalid regular expression: %v", err)}
		}
	}
	if p.SearchPath == "" {
		p.SearchPath = "."
	}
	info, err := os.Stat(p.SearchPath)
	if err != nil {
		return &ValidationError{Field: "search_path", Reason: fmt.Sprintf("path does not exist: %s", p.SearchPath)}
	}
	if !info.IsDir() {
		return &ValidationError{Field: "search_path", Reason: fmt.Sprintf("path is not a directory: %s", p.SearchPath)}
	}
	if p.ContextLines < 0 {
		p.ContextLines = 0
	}
	if p.ContextLines > MaxContextLines {
		p.ContextLines = MaxContextLines
	}
	if p.MaxResults <= 0 {
		p.MaxResults = DefaultMaxResults
	}
	if p.MaxDepth < 0 {
		p.MaxDepth = 0
	}
	return nil
}
