package models

import "testing"

func match(line int, content string) *SearchMatch {
	return &SearchMatch{LineNumber: line, Column: 1, Content: content}
}

func TestFileResult_AddMatch(t *testing.T) {
	fr := NewFileResult("a.go")
	fr.AddMatch(match(1, "one"))
	fr.AddMatch(match(2, "two"))
	if fr.TotalMatches != 2 || len(fr.Matches) != 2 {
		t.Fatalf("total %d, len %d", fr.TotalMatches, len(fr.Matches))
	}
}

func TestCollection_MergeSamePath(t *testing.T) {
	c := NewSearchResultCollection()

	first := NewFileResult("a.go")
	first.AddMatch(match(1, "one"))
	c.AddFileResult(first)

	second := NewFileResult("a.go")
	second.AddMatch(match(5, "five"))
	second.AddMatch(match(9, "nine"))
	c.AddFileResult(second)

	if c.Len() != 1 {
		t.Fatalf("expected one file entry, got %d", c.Len())
	}
	fr := c.Get("a.go")
	if fr == nil {
		t.Fatal("path index missing entry")
	}
	if fr.TotalMatches != 3 {
		t.Fatalf("expected merged total 3, got %d", fr.TotalMatches)
	}
	if fr.Matches[0].LineNumber != 1 || fr.Matches[2].LineNumber != 9 {
		t.Fatal("merge did not preserve order")
	}
}

func TestCollection_Order(t *testing.T) {
	c := NewSearchResultCollection()
	for _, path := range []string{"b.go", "a.go", "c.go"} {
		fr := NewFileResult(path)
		fr.AddMatch(match(1, "x"))
		c.AddFileResult(fr)
	}
	results := c.FileResults()
	if results[0].FilePath != "b.go" || results[1].FilePath != "a.go" || results[2].FilePath != "c.go" {
		t.Fatal("arrival order not preserved")
	}
	if c.TotalMatches() != 3 {
		t.Fatalf("total matches %d", c.TotalMatches())
	}
}

func TestCollection_Clear(t *testing.T) {
	c := NewSearchResultCollection()
	fr := NewFileResult("a.go")
	fr.AddMatch(match(1, "x"))
	c.AddFileResult(fr)
	c.Summary.Status = StatusCompleted

	c.Clear()
	if c.Len() != 0 || c.Get("a.go") != nil {
		t.Fatal("clear left results behind")
	}
	if c.Summary.Status != StatusIdle {
		t.Fatal("clear did not reset summary")
	}
}

func TestCollection_AddCopiesInput(t *testing.T) {
	c := NewSearchResultCollection()
	fr := NewFileResult("a.go")
	fr.AddMatch(match(1, "x"))
	c.AddFileResult(fr)

	// Mutating the caller's FileResult afterwards must not corrupt the collection.
	fr.Matches = nil
	fr.TotalMatches = 0
	if got := c.Get("a.go").TotalMatches; got != 1 {
		t.Fatalf("collection shares caller storage, total %d", got)
	}
}
