// Package worker orchestrates one search: it builds the command, supervises
// the process, parses its output stream, aggregates per-file results, and
// reports lifecycle events to the consumer.
package worker

import (
	"github.com/CloudShih/ripsearch/internal/models"
)

// EventKind discriminates lifecycle events.
type EventKind int

const (
	// EventStarted fires once, after validation and before the process spawns.
	EventStarted EventKind = iota
	// EventProgress carries throttled file/match counters.
	EventProgress
	// EventResult delivers one finished FileResult.
	EventResult
	// EventCompleted is terminal: the search finished cleanly.
	EventCompleted
	// EventCancelled is terminal: the search was cancelled by the consumer.
	EventCancelled
	// EventError is terminal: the search failed; Message explains why.
	EventError
)

// Event is one lifecycle notification. Events for a search arrive in
// discovery order on the worker's channel and the terminal event
// (Completed, Cancelled, or Error) is always last; the channel is closed
// after it.
type Event struct {
	Kind     EventKind
	SearchID string

	// Progress fields.
	Files   int
	Matches int

	// Result payload; owned by the consumer once delivered.
	Result *models.FileResult

	// Terminal payloads.
	Summary *models.SearchSummary
	Message string
}

// Terminal reports whether e ends the search.
func (e Event) Terminal() bool {
	return e.Kind == EventCompleted || e.Kind == EventCancelled || e.Kind == EventError
}
