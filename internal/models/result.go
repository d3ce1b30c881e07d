package models

// SearchStatus is the lifecycle status of one search.
type SearchStatus string

const (
	StatusIdle      SearchStatus = "idle"
	StatusSearching SearchStatus = "searching"
	StatusCompleted SearchStatus = "completed"
	StatusCancelled SearchStatus = "cancelled"
	StatusError     SearchStatus = "error"
)

// HighlightSpan marks a located occurrence inside a match's content.
// Start and End are byte offsets into the cleaned content, Start <= End.
type HighlightSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Kind  string `json:"kind"`
}

// SearchMatch is one line where the pattern was found.
type SearchMatch struct {
	LineNumber    int             `json:"line_number"`
	Column        int             `json:"column"`
	Content       string          `json:"content"`
	Highlights    []HighlightSpan `json:"highlights,omitempty"`
	ContextBefore []string        `json:"context_before,omitempty"`
	ContextAfter  []string        `json:"context_after,omitempty"`
}

// FileResult groups all matches found in one file during one search.
// TotalMatches always equals len(Matches).
type FileResult struct {
	FilePath     string         `json:"file_path"`
	Matches      []*SearchMatch `json:"matches"`
	TotalMatches int            `json:"total_matches"`
}

// NewFileResult creates an empty result for path.
func NewFileResult(path string) *FileResult {
	return &FileResult{FilePath: path}
}

// AddMatch appends m and keeps TotalMatches consistent.
func (f *FileResult) AddMatch(m *SearchMatch) {
	f.Matches = append(f.Matches, m)
	f.TotalMatches = len(f.Matches)
}

// SearchSummary is the terminal account of one search. It is created empty
// when the search starts and finalized exactly once.
type SearchSummary struct {
	Pattern          string       `json:"pattern"`
	TotalMatches     int          `json:"total_matches"`
	FilesWithMatches int          `json:"files_with_matches"`
	FilesSearched    int          `json:"files_searched"`
	SearchTime       float64      `json:"search_time"`
	Status           SearchStatus `json:"status"`
	ErrorMessage     string       `json:"error_message,omitempty"`
}
