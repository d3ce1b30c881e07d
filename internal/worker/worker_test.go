package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CloudShih/ripsearch/internal/models"
)

// fakeBinary writes a shell script that ignores its arguments and plays back
// a canned search session.
func fakeBinary(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-rg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func collect(t *testing.T, w *Worker, timeout time.Duration) []Event {
	t.Helper()
	var events []Event
	deadline := time.After(timeout)
	for {
		select {
		case e, ok := <-w.Events():
			if !ok {
				return events
			}
			events = append(events, e)
		case <-deadline:
			t.Fatalf("timed out waiting for events, collected %d", len(events))
		}
	}
}

func params(t *testing.T) *models.SearchParameters {
	return &models.SearchParameters{Pattern: "TODO", SearchPath: t.TempDir()}
}

const sessionTwoFiles = `cat <<'EOF'
{"type":"begin","data":{"path":{"text":"a.py"}}}
{"type":"match","data":{"path":{"text":"a.py"},"lines":{"text":"# TODO first\n"},"line_number":3,"submatches":[{"match":{"text":"TODO"},"start":2,"end":6}]}}
{"type":"end","data":{"path":{"text":"a.py"}}}
{"type":"begin","data":{"path":{"text":"b.py"}}}
{"type":"match","data":{"path":{"text":"b.py"},"lines":{"text":"x = 1  # TODO second\n"},"line_number":9,"submatches":[{"match":{"text":"TODO"},"start":9,"end":13}]}}
{"type":"end","data":{"path":{"text":"b.py"}}}
{"type":"summary","data":{"stats":{"matched_lines":2,"searches_with_match":2,"searches":3}}}
EOF
exit 0
`

func TestWorker_EndToEnd(t *testing.T) {
	w := New(Config{Executable: fakeBinary(t, sessionTwoFiles)}, nil)
	if err := w.Start(context.Background(), params(t)); err != nil {
		t.Fatal(err)
	}
	events := collect(t, w, 5*time.Second)

	if events[0].Kind != EventStarted {
		t.Fatalf("first event kind = %d, want Started", events[0].Kind)
	}
	last := events[len(events)-1]
	if last.Kind != EventCompleted {
		t.Fatalf("terminal event kind = %d, want Completed", last.Kind)
	}

	collection := models.NewSearchResultCollection()
	for _, e := range events {
		if e.Kind == EventResult {
			collection.AddFileResult(e.Result)
		}
		if e.SearchID != w.ID() {
			t.Fatal("event missing search id")
		}
	}
	if collection.Len() != 2 {
		t.Fatalf("files delivered = %d, want 2", collection.Len())
	}
	summary := last.Summary
	if summary.TotalMatches != 2 || summary.FilesWithMatches != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.FilesSearched != 3 {
		t.Fatalf("files searched = %d, want 3 from tool stats", summary.FilesSearched)
	}
	if summary.Status != models.StatusCompleted {
		t.Fatalf("status = %s", summary.Status)
	}
	if summary.SearchTime < 0 {
		t.Fatal("negative search time")
	}

	a := collection.Get("a.py")
	if a == nil || a.TotalMatches != 1 || a.Matches[0].LineNumber != 3 {
		t.Fatalf("a.py result = %+v", a)
	}
	if len(a.Matches[0].Highlights) != 1 {
		t.Fatal("match lost its highlight span")
	}
}

const sessionWithContext = `cat <<'EOF'
{"type":"begin","data":{"path":{"text":"a.py"}}}
{"type":"match","data":{"path":{"text":"a.py"},"lines":{"text":"do() # TODO\n"},"line_number":5,"submatches":[{"match":{"text":"TODO"},"start":7,"end":11}]}}
{"type":"context","data":{"path":{"text":"a.py"},"lines":{"text":"import os\n"},"line_number":4}}
{"type":"context","data":{"path":{"text":"a.py"},"lines":{"text":"cleanup()\n"},"line_number":6}}
{"type":"end","data":{"path":{"text":"a.py"}}}
EOF
exit 0
`

func TestWorker_ContextAttachment(t *testing.T) {
	w := New(Config{Executable: fakeBinary(t, sessionWithContext)}, nil)
	if err := w.Start(context.Background(), params(t)); err != nil {
		t.Fatal(err)
	}
	events := collect(t, w, 5*time.Second)

	var fr *models.FileResult
	for _, e := range events {
		if e.Kind == EventResult {
			fr = e.Result
		}
	}
	if fr == nil {
		t.Fatal("no result delivered")
	}
	m := fr.Matches[0]
	if len(m.ContextBefore) != 1 || m.ContextBefore[0] != "import os" {
		t.Fatalf("context_before = %v", m.ContextBefore)
	}
	if len(m.ContextAfter) != 1 || m.ContextAfter[0] != "cleanup()" {
		t.Fatalf("context_after = %v", m.ContextAfter)
	}
}

func TestWorker_ExitOneMeansZeroMatches(t *testing.T) {
	w := New(Config{Executable: fakeBinary(t, "exit 1\n")}, nil)
	if err := w.Start(context.Background(), params(t)); err != nil {
		t.Fatal(err)
	}
	events := collect(t, w, 5*time.Second)
	last := events[len(events)-1]
	if last.Kind != EventCompleted {
		t.Fatalf("exit 1 must complete cleanly, got kind %d (%s)", last.Kind, last.Message)
	}
	if last.Summary.TotalMatches != 0 || last.Summary.Status != models.StatusCompleted {
		t.Fatalf("summary = %+v", last.Summary)
	}
}

func TestWorker_FatalExit(t *testing.T) {
	w := New(Config{Executable: fakeBinary(t, "echo 'regex parse error' >&2\nexit 2\n")}, nil)
	if err := w.Start(context.Background(), params(t)); err != nil {
		t.Fatal(err)
	}
	events := collect(t, w, 5*time.Second)
	last := events[len(events)-1]
	if last.Kind != EventError {
		t.Fatalf("terminal kind = %d, want Error", last.Kind)
	}
	if last.Message == "" || last.Summary.Status != models.StatusError {
		t.Fatalf("event = %+v", last)
	}
}

func TestWorker_BenignExitTwo(t *testing.T) {
	w := New(Config{Executable: fakeBinary(t, "echo 'rg: no files to search' >&2\nexit 2\n")}, nil)
	if err := w.Start(context.Background(), params(t)); err != nil {
		t.Fatal(err)
	}
	events := collect(t, w, 5*time.Second)
	if last := events[len(events)-1]; last.Kind != EventCompleted {
		t.Fatalf("benign exit-2 must complete, got kind %d", last.Kind)
	}
}

const sessionThenHang = `echo '{"type":"match","data":{"path":{"text":"a.py"},"lines":{"text":"TODO\n"},"line_number":1,"submatches":[{"match":{"text":"TODO"},"start":0,"end":4}]}}'
sleep 30
`

func TestWorker_Cancel(t *testing.T) {
	w := New(Config{Executable: fakeBinary(t, sessionThenHang), GracePeriod: 2 * time.Second}, nil)
	if err := w.Start(context.Background(), params(t)); err != nil {
		t.Fatal(err)
	}
	first := <-w.Events()
	if first.Kind != EventStarted {
		t.Fatalf("first event kind = %d", first.Kind)
	}
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	w.Cancel()
	var events []Event
	for e := range w.Events() {
		events = append(events, e)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("cancellation exceeded the grace period")
	}
	last := events[len(events)-1]
	if last.Kind != EventCancelled {
		t.Fatalf("terminal kind = %d, want Cancelled", last.Kind)
	}
	if last.Summary.Status != models.StatusCancelled {
		t.Fatalf("summary status = %s", last.Summary.Status)
	}
	// Channel closed right after the terminal event: no further events.
	if _, open := <-w.Events(); open {
		t.Fatal("events after terminal Cancelled")
	}
	// Cancel again is harmless.
	w.Cancel()
}

func TestWorker_SingleUse(t *testing.T) {
	w := New(Config{Executable: fakeBinary(t, "exit 1\n")}, nil)
	if err := w.Start(context.Background(), params(t)); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background(), params(t)); err == nil {
		t.Fatal("second Start on the same worker must fail")
	}
	collect(t, w, 5*time.Second)
}

func TestWorker_ValidationFailsFast(t *testing.T) {
	w := New(Config{Executable: "/bin/true"}, nil)
	err := w.Start(context.Background(), &models.SearchParameters{Pattern: "", SearchPath: t.TempDir()})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	events := collect(t, w, time.Second)
	if len(events) != 1 || events[0].Kind != EventError {
		t.Fatalf("events = %+v", events)
	}
}

func TestWorker_SpawnErrorFailsFast(t *testing.T) {
	w := New(Config{Executable: filepath.Join(t.TempDir(), "absent")}, nil)
	err := w.Start(context.Background(), params(t))
	var spawn *models.ProcessSpawnError
	if !errors.As(err, &spawn) {
		t.Fatalf("expected ProcessSpawnError, got %v", err)
	}
	events := collect(t, w, time.Second)
	last := events[len(events)-1]
	if last.Kind != EventError {
		t.Fatalf("terminal kind = %d", last.Kind)
	}
}

func TestWorker_ProgressVetoCancels(t *testing.T) {
	w := New(Config{
		Executable:       fakeBinary(t, sessionThenHang),
		GracePeriod:      2 * time.Second,
		ProgressInterval: time.Nanosecond,
		OnProgress:       func(files, matches int) bool { return false },
	}, nil)
	if err := w.Start(context.Background(), params(t)); err != nil {
		t.Fatal(err)
	}
	events := collect(t, w, 10*time.Second)
	if last := events[len(events)-1]; last.Kind != EventCancelled {
		t.Fatalf("veto should cancel, terminal kind = %d", last.Kind)
	}
}

func TestWorker_TimeoutProducesError(t *testing.T) {
	w := New(Config{
		Executable:  fakeBinary(t, "sleep 30\n"),
		GracePeriod: time.Second,
		BaseTimeout: 300 * time.Millisecond,
		MaxTimeout:  time.Second,
	}, nil)
	if err := w.Start(context.Background(), params(t)); err != nil {
		t.Fatal(err)
	}
	events := collect(t, w, 10*time.Second)
	last := events[len(events)-1]
	if last.Kind != EventError {
		t.Fatalf("terminal kind = %d, want Error", last.Kind)
	}
	if last.Summary.ErrorMessage == "" {
		t.Fatal("timeout must carry guidance in the message")
	}
}
