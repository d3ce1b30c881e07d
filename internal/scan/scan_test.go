package scan

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"a.txt":           "hello",
		"src/b.go":        "package b",
		"vendor/c.go":     "package c",
		"vendor/sub/d.go": "package d",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestEstimateTree(t *testing.T) {
	dir := writeTree(t)
	est := EstimateTree(dir, nil, 0)
	if est.Files != 4 {
		t.Fatalf("files = %d, want 4", est.Files)
	}
	if est.Bytes == 0 || est.Truncated {
		t.Fatalf("est = %+v", est)
	}
}

func TestEstimateTree_Excludes(t *testing.T) {
	dir := writeTree(t)
	est := EstimateTree(dir, []string{"vendor/**"}, 0)
	if est.Files != 2 {
		t.Fatalf("files = %d, want 2 after excluding vendor", est.Files)
	}
}

func TestEstimateTree_Budget(t *testing.T) {
	dir := writeTree(t)
	est := EstimateTree(dir, nil, 2)
	if !est.Truncated {
		t.Fatal("tiny budget should truncate the walk")
	}
	if est.Files > 2 {
		t.Fatalf("walk exceeded budget: %+v", est)
	}
}

func TestEstimateTree_MissingRoot(t *testing.T) {
	est := EstimateTree(filepath.Join(t.TempDir(), "nope"), nil, 0)
	if est.Files != 0 || est.Bytes != 0 {
		t.Fatalf("missing root must estimate empty: %+v", est)
	}
}

func TestDeriveTimeout(t *testing.T) {
	base, max := 30*time.Second, 10*time.Minute

	small := Estimate{Files: 10, Bytes: 1 << 20}
	if got := DeriveTimeout(base, small, max); got != base {
		t.Fatalf("small tree timeout = %v, want base", got)
	}

	big := Estimate{Files: 50000, Bytes: 2 << 30}
	got := DeriveTimeout(base, big, max)
	if got <= base {
		t.Fatalf("big tree timeout = %v, want > base", got)
	}
	if got > max {
		t.Fatalf("timeout %v exceeds cap", got)
	}

	if got := DeriveTimeout(base, Estimate{Truncated: true}, max); got != max {
		t.Fatalf("truncated estimate should use the cap, got %v", got)
	}

	huge := Estimate{Files: 1 << 30, Bytes: 1 << 50}
	if got := DeriveTimeout(base, huge, max); got != max {
		t.Fatalf("cap not applied: %v", got)
	}

	if got := DeriveTimeout(0, big, max); got != 0 {
		t.Fatalf("zero base must disable the timeout, got %v", got)
	}
}
