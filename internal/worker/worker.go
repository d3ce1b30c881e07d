package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CloudShih/ripsearch/internal/command"
	"github.com/CloudShih/ripsearch/internal/models"
	"github.com/CloudShih/ripsearch/internal/parser"
	"github.com/CloudShih/ripsearch/internal/process"
	"github.com/CloudShih/ripsearch/internal/progress"
	"github.com/CloudShih/ripsearch/internal/scan"
)

const eventChanDepth = 256

// Config tunes one worker.
type Config struct {
	// Executable is the search binary; empty uses command.DefaultExecutable.
	Executable string
	// Format selects structured events or colorized fallback text.
	Format command.OutputFormat
	// GracePeriod bounds cancellation before force-kill.
	GracePeriod time.Duration
	// ProgressInterval debounces progress events.
	ProgressInterval time.Duration
	// BufferItems / BufferBytes bound the result buffer.
	BufferItems int
	BufferBytes int
	// BaseTimeout enables the unattended wall-clock timeout; the effective
	// budget is derived from a pre-scan of the search tree and capped at
	// MaxTimeout. Zero disables it.
	BaseTimeout time.Duration
	MaxTimeout  time.Duration
	// OnProgress, when set, is called on each progress emission; returning
	// false cancels the search.
	OnProgress func(files, matches int) bool
}

// Worker runs exactly one search. A second Start on the same instance is a
// caller error. The per-path aggregation map is owned exclusively by the
// worker goroutine while streaming; results are handed to the consumer as
// immutable FileResults on the event channel.
type Worker struct {
	id      string
	cfg     Config
	logger  *zap.Logger
	engine  *process.Engine
	builder *command.Builder
	tracker *progress.Tracker
	events  chan Event

	started atomic.Bool

	mu              sync.Mutex
	cancelFn        context.CancelFunc
	cancelRequested bool
}

// New creates a single-use worker. logger may be nil.
func New(cfg Config, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	engineOpts := []process.Option{process.WithLogger(logger)}
	if cfg.GracePeriod > 0 {
		engineOpts = append(engineOpts, process.WithGracePeriod(cfg.GracePeriod))
	}
	return &Worker{
		id:      uuid.New().String(),
		cfg:     cfg,
		logger:  logger,
		engine:  process.NewEngine(engineOpts...),
		builder: command.NewBuilder(cfg.Executable, cfg.Format),
		tracker: progress.NewTracker(cfg.ProgressInterval),
		events:  make(chan Event, eventChanDepth),
	}
}

// ID returns the search's unique identifier, present on every event.
func (w *Worker) ID() string { return w.id }

// Events returns the lifecycle channel. It closes after the terminal event.
func (w *Worker) Events() <-chan Event { return w.events }

// Start validates params, emits Started, spawns the process, and returns.
// Validation and spawn failures are reported synchronously and also produce
// the terminal Error event. The search itself runs in the background.
func (w *Worker) Start(ctx context.Context, params *models.SearchParameters) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("worker is single-use: a search was already started")
	}
	w.tracker.Reset()

	if err := params.Validate(); err != nil {
		w.failFast(params.Pattern, err)
		return err
	}

	w.emit(Event{Kind: EventStarted})

	runCtx := ctx
	var timeoutCtx context.Context
	cleanup := func() {}
	if w.cfg.BaseTimeout > 0 {
		est := scan.EstimateTree(params.SearchPath, params.ExcludePatterns, 0)
		budget := scan.DeriveTimeout(w.cfg.BaseTimeout, est, w.cfg.MaxTimeout)
		w.logger.Debug("derived search timeout",
			zap.Int("estimated_files", est.Files),
			zap.Int64("estimated_bytes", est.Bytes),
			zap.Duration("timeout", budget))
		var cancelTimeout context.CancelFunc
		timeoutCtx, cancelTimeout = context.WithTimeout(ctx, budget)
		runCtx = timeoutCtx
		cleanup = cancelTimeout
	}
	cancelCtx, cancel := context.WithCancel(runCtx)

	w.mu.Lock()
	w.cancelFn = cancel
	alreadyCancelled := w.cancelRequested
	w.mu.Unlock()
	if alreadyCancelled {
		cancel()
	}

	handle, err := w.engine.Start(cancelCtx, w.builder.Build(params))
	if err != nil {
		cancel()
		cleanup()
		w.failFast(params.Pattern, err)
		return err
	}

	go func() {
		defer cleanup()
		defer cancel()
		w.run(cancelCtx, timeoutCtx, params, handle)
	}()
	return nil
}

// Cancel requests cooperative cancellation. Safe at any time, from any
// goroutine, including before Start and after the search ended.
func (w *Worker) Cancel() {
	w.mu.Lock()
	w.cancelRequested = true
	fn := w.cancelFn
	w.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (w *Worker) wasCancelRequested() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancelRequested
}

// failFast emits the terminal Error event for pre-stream failures and closes
// the channel.
func (w *Worker) failFast(pattern string, err error) {
	summary := &models.SearchSummary{
		Pattern:      pattern,
		Status:       models.StatusError,
		ErrorMessage: err.Error(),
	}
	w.emit(Event{Kind: EventError, Summary: summary, Message: err.Error()})
	close(w.events)
}

func (w *Worker) emit(e Event) {
	e.SearchID = w.id
	w.events <- e
}

// run consumes the output stream and drives the state machine to a terminal
// event. It owns the per-path aggregation map; nothing else may touch it.
func (w *Worker) run(ctx, timeoutCtx context.Context, params *models.SearchParameters, handle *process.Handle) {
	defer close(w.events)

	p := parser.New(w.logger)
	files := make(map[string]*models.FileResult)
	lastMatch := make(map[string]*models.SearchMatch)
	var currentPath string
	var filesWithMatches, emittedMatches int
	var stats *parser.Stats

	buffer := progress.NewBuffer(w.cfg.BufferItems, w.cfg.BufferBytes, func(items []*models.FileResult) {
		for _, fr := range items {
			filesWithMatches++
			emittedMatches += fr.TotalMatches
			w.emit(Event{Kind: EventResult, Result: fr})
		}
	})

	// finishFile hands a path's aggregate to the buffer once its matches can
	// no longer change (context events only attach while the file is current).
	finishFile := func(path string) {
		fr := files[path]
		if fr == nil {
			return
		}
		delete(files, path)
		delete(lastMatch, path)
		if fr.TotalMatches > 0 {
			buffer.Add(fr)
		}
	}

	cancelled := false

stream:
	for {
		// Cancellation is checked before each new-line read.
		select {
		case <-ctx.Done():
			cancelled = true
			break stream
		default:
		}
		select {
		case <-ctx.Done():
			cancelled = true
			break stream
		case line, ok := <-handle.Lines():
			if !ok {
				break stream
			}
			parsed := p.ParseLine(line)
			switch parsed.Kind {
			case parser.KindFileBegin:
				if parsed.Path != currentPath {
					finishFile(currentPath)
					currentPath = parsed.Path
				}
			case parser.KindMatch:
				if parsed.Path != currentPath {
					finishFile(currentPath)
					currentPath = parsed.Path
				}
				fr := files[parsed.Path]
				if fr == nil {
					fr = models.NewFileResult(parsed.Path)
					files[parsed.Path] = fr
				}
				fr.AddMatch(parsed.Match)
				lastMatch[parsed.Path] = parsed.Match
				w.tracker.Observe(parsed.Path, 1)
			case parser.KindContext:
				attachContext(lastMatch[parsed.Path], parsed)
			case parser.KindFileEnd:
				finishFile(parsed.Path)
				if parsed.Path == currentPath {
					currentPath = ""
				}
			case parser.KindSummary:
				stats = parsed.Stats
			}

			if w.tracker.ShouldEmit() {
				w.emit(Event{Kind: EventProgress, Files: w.tracker.Files(), Matches: w.tracker.Matches()})
				if w.cfg.OnProgress != nil && !w.cfg.OnProgress(w.tracker.Files(), w.tracker.Matches()) {
					cancelled = true
					break stream
				}
			}
		}
	}

	if cancelled {
		handle.Cancel()
		// Discard the rest of the stream so the process can be reaped.
		go func() {
			for range handle.Lines() {
			}
		}()
	}

	exitCode, stderr, waitErr := handle.Wait()
	elapsed := w.tracker.Elapsed().Seconds()

	summary := &models.SearchSummary{
		Pattern:    params.Pattern,
		SearchTime: elapsed,
	}

	timedOut := timeoutCtx != nil && errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) && !w.wasCancelRequested()

	switch {
	case timedOut:
		buffer.Flush()
		w.fillCounts(summary, filesWithMatches, emittedMatches, stats)
		summary.Status = models.StatusError
		summary.ErrorMessage = models.ErrTimeout.Error()
		w.emit(Event{Kind: EventError, Summary: summary, Message: summary.ErrorMessage})
	case cancelled:
		buffer.Flush()
		w.fillCounts(summary, filesWithMatches, emittedMatches, stats)
		summary.Status = models.StatusCancelled
		w.emit(Event{Kind: EventCancelled, Summary: summary})
	default:
		if waitErr == nil {
			waitErr = process.ClassifyExit(exitCode, stderr)
		}
		if waitErr != nil {
			// Results already emitted remain valid and are not retracted.
			w.fillCounts(summary, filesWithMatches, emittedMatches, stats)
			summary.Status = models.StatusError
			summary.ErrorMessage = waitErr.Error()
			w.emit(Event{Kind: EventError, Summary: summary, Message: summary.ErrorMessage})
			return
		}
		finishFile(currentPath)
		for path := range files {
			finishFile(path)
		}
		buffer.Flush()
		w.fillCounts(summary, filesWithMatches, emittedMatches, stats)
		summary.Status = models.StatusCompleted
		w.logger.Info("search completed",
			zap.String("search_id", w.id),
			zap.Int("total_matches", summary.TotalMatches),
			zap.Int("files_with_matches", summary.FilesWithMatches),
			zap.Float64("seconds", elapsed))
		w.emit(Event{Kind: EventCompleted, Summary: summary})
	}
}

func (w *Worker) fillCounts(summary *models.SearchSummary, filesWithMatches, emittedMatches int, stats *parser.Stats) {
	summary.TotalMatches = emittedMatches
	summary.FilesWithMatches = filesWithMatches
	if stats != nil && stats.Searches > 0 {
		summary.FilesSearched = stats.Searches
	} else {
		summary.FilesSearched = w.tracker.Files()
	}
}

// attachContext places a context line on the match it belongs to: smaller
// line numbers are leading context (order preserved), larger are trailing.
func attachContext(m *models.SearchMatch, parsed parser.Parsed) {
	if m == nil {
		return
	}
	switch {
	case parsed.LineNumber < m.LineNumber:
		m.ContextBefore = append(m.ContextBefore, parsed.Text)
	case parsed.LineNumber > m.LineNumber:
		m.ContextAfter = append(m.ContextAfter, parsed.Text)
	}
}
