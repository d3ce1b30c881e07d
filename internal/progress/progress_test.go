package progress

import (
	"strings"
	"testing"
	"time"

	"github.com/CloudShih/ripsearch/internal/models"
)

func TestTracker_CountsFilesByPathChange(t *testing.T) {
	tr := NewTracker(DefaultInterval)
	tr.Reset()
	tr.Observe("a.go", 1)
	tr.Observe("a.go", 2)
	tr.Observe("b.go", 1)
	if tr.Files() != 2 {
		t.Fatalf("files = %d, want 2", tr.Files())
	}
	if tr.Matches() != 4 {
		t.Fatalf("matches = %d, want 4", tr.Matches())
	}
}

func TestTracker_Debounce(t *testing.T) {
	tr := NewTracker(time.Minute)
	current := time.Unix(1000, 0)
	tr.now = func() time.Time { return current }
	tr.Reset()

	if !tr.ShouldEmit() {
		t.Fatal("first emission should pass")
	}
	if tr.ShouldEmit() {
		t.Fatal("second emission inside the interval should be suppressed")
	}
	current = current.Add(61 * time.Second)
	if !tr.ShouldEmit() {
		t.Fatal("emission after the interval should pass")
	}
	if got := tr.Elapsed(); got != 61*time.Second {
		t.Fatalf("elapsed = %v", got)
	}
}

func TestTracker_ResetZeroes(t *testing.T) {
	tr := NewTracker(0)
	tr.Reset()
	tr.Observe("a.go", 3)
	tr.Reset()
	if tr.Files() != 0 || tr.Matches() != 0 {
		t.Fatal("reset did not zero counters")
	}
}

func result(path string, matches int) *models.FileResult {
	fr := models.NewFileResult(path)
	for i := 0; i < matches; i++ {
		fr.AddMatch(&models.SearchMatch{LineNumber: i + 1, Content: "content line"})
	}
	return fr
}

func TestBuffer_FlushesOnItemThreshold(t *testing.T) {
	var flushed [][]*models.FileResult
	b := NewBuffer(3, 1<<20, func(items []*models.FileResult) {
		flushed = append(flushed, items)
	})
	b.Add(result("a", 1))
	b.Add(result("b", 1))
	if len(flushed) != 0 {
		t.Fatal("flushed before threshold")
	}
	b.Add(result("c", 1))
	if len(flushed) != 1 || len(flushed[0]) != 3 {
		t.Fatalf("flushed = %v", flushed)
	}
	if b.Len() != 0 {
		t.Fatal("buffer not reset after flush")
	}
}

func TestBuffer_FlushesOnByteCeiling(t *testing.T) {
	var count int
	b := NewBuffer(1000, 200, func(items []*models.FileResult) { count += len(items) })
	fr := models.NewFileResult("big.go")
	fr.AddMatch(&models.SearchMatch{LineNumber: 1, Content: strings.Repeat("x", 500)})
	b.Add(fr)
	if count != 1 {
		t.Fatalf("byte ceiling did not trigger flush, count=%d", count)
	}
}

func TestBuffer_NoByteCeilingHalvesItems(t *testing.T) {
	var count int
	b := NewBuffer(4, 0, func(items []*models.FileResult) { count += len(items) })
	b.Add(result("a", 1))
	if count != 0 {
		t.Fatal("flushed too early")
	}
	b.Add(result("b", 1))
	if count != 2 {
		t.Fatalf("halved threshold not applied, count=%d", count)
	}
}

func TestBuffer_TerminalFlush(t *testing.T) {
	var count int
	b := NewBuffer(100, 1<<20, func(items []*models.FileResult) { count += len(items) })
	b.Add(result("a", 1))
	b.Flush()
	if count != 1 {
		t.Fatalf("terminal flush missed remainder, count=%d", count)
	}
	b.Flush() // empty flush is a no-op
	if count != 1 {
		t.Fatal("empty flush emitted")
	}
}
