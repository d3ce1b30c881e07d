package models

// SearchResultCollection holds the ordered file results of one search plus
// its summary. A path index supports merge semantics: partial deliveries for
// the same file accumulate into one FileResult.
type SearchResultCollection struct {
	results []*FileResult
	index   map[string]*FileResult
	Summary *SearchSummary
}

// NewSearchResultCollection returns an empty collection with an idle summary.
func NewSearchResultCollection() *SearchResultCollection {
	return &SearchResultCollection{
		index:   make(map[string]*FileResult),
		Summary: &SearchSummary{Status: StatusIdle},
	}
}

// AddFileResult merges fr into the collection. A new path is appended in
// arrival order; an existing path has fr's matches appended to its entry and
// the match count recomputed, so multiple partial deliveries per path are safe.
func (c *SearchResultCollection) AddFileResult(fr *FileResult) {
	existing, ok := c.index[fr.FilePath]
	if !ok {
		copied := &FileResult{FilePath: fr.FilePath}
		copied.Matches = append(copied.Matches, fr.Matches...)
		copied.TotalMatches = len(copied.Matches)
		c.results = append(c.results, copied)
		c.index[fr.FilePath] = copied
		return
	}
	existing.Matches = append(existing.Matches, fr.Matches...)
	existing.TotalMatches = len(existing.Matches)
}

// FileResults returns the results in arrival order. The returned slice is
// shared; callers must not modify it.
func (c *SearchResultCollection) FileResults() []*FileResult {
	return c.results
}

// Get returns the result for path, or nil.
func (c *SearchResultCollection) Get(path string) *FileResult {
	return c.index[path]
}

// Len returns the number of distinct files with results.
func (c *SearchResultCollection) Len() int { return len(c.results) }

// TotalMatches sums match counts across all files.
func (c *SearchResultCollection) TotalMatches() int {
	total := 0
	for _, fr := range c.results {
		total += fr.TotalMatches
	}
	return total
}

// Clear resets results, index, and summary in one step.
func (c *SearchResultCollection) Clear() {
	c.results = nil
	c.index = make(map[string]*FileResult)
	c.Summary = &SearchSummary{Status: StatusIdle}
}
