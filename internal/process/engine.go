// Package process spawns and supervises the external search binary, exposing
// its stdout as a line channel and providing graceful, escalating cancellation.
package process

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/CloudShih/ripsearch/internal/models"
)

const (
	// DefaultGracePeriod bounds how long a termination request may stay
	// pending before the process group is force-killed.
	DefaultGracePeriod = 5 * time.Second

	// maxLineSize is the scanner buffer cap; minified sources can produce
	// very long matched lines.
	maxLineSize = 4 << 20

	lineChanDepth = 256
)

// Engine spawns search processes. It is stateless and safe for concurrent use;
// each spawn returns an independent Handle.
type Engine struct {
	grace  time.Duration
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithGracePeriod overrides the cancel escalation delay.
func WithGracePeriod(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.grace = d
		}
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{grace: DefaultGracePeriod, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle supervises one running search process.
type Handle struct {
	cmd        *exec.Cmd
	lines      chan string
	stderr     bytes.Buffer
	done       chan struct{}
	exitCode   int
	waitErr    error
	cancelOnce sync.Once
	grace      time.Duration
	logger     *zap.Logger
}

// Start spawns argv asynchronously and never blocks on the process. The
// process is placed in its own group where the platform supports it, so
// cancellation reaches any children. Spawn failures return a ProcessSpawnError.
func (e *Engine) Start(ctx context.Context, argv []string) (*Handle, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &models.ProcessSpawnError{Binary: argv[0], Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &models.ProcessSpawnError{Binary: argv[0], Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &models.ProcessSpawnError{Binary: argv[0], Err: err}
	}

	h := &Handle{
		cmd:    cmd,
		lines:  make(chan string, lineChanDepth),
		done:   make(chan struct{}),
		grace:  e.grace,
		logger: e.logger,
	}

	var g errgroup.Group
	g.Go(func() error {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			h.lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			// A scan error (e.g. a line over maxLineSize) stops parsing but
			// must not stop consumption: a full pipe would block the process
			// forever and the terminal event would never arrive. Drain the
			// rest unparsed so Wait can reap it.
			h.logger.Debug("stdout scan stopped, draining rest", zap.Error(err))
			_, _ = io.Copy(io.Discard, stdout)
			return err
		}
		return nil
	})
	g.Go(func() error {
		_, err := io.Copy(&h.stderr, stderr)
		return err
	})

	go func() {
		readErr := g.Wait()
		waitErr := cmd.Wait()
		close(h.lines)
		switch we := waitErr.(type) {
		case nil:
			h.exitCode = 0
		case *exec.ExitError:
			h.exitCode = we.ExitCode()
		default:
			h.exitCode = -1
			h.waitErr = waitErr
		}
		if readErr != nil {
			h.logger.Debug("output reader stopped", zap.Error(readErr))
		}
		close(h.done)
	}()

	// Context cancellation maps onto the same graceful path as Cancel.
	go func() {
		select {
		case <-ctx.Done():
			h.Cancel()
		case <-h.done:
		}
	}()

	return h, nil
}

// Lines returns the stdout line channel. It is closed when the process's
// output is fully consumed.
func (h *Handle) Lines() <-chan string { return h.lines }

// Wait blocks until the process has exited and its output is drained, then
// returns the exit code, captured stderr, and any wait error. Exit-code
// classification is the caller's job (see ClassifyExit).
func (h *Handle) Wait() (int, string, error) {
	<-h.done
	return h.exitCode, h.stderr.String(), h.waitErr
}

// IsSearching reports whether the process exists and has not exited.
func (h *Handle) IsSearching() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Cancel requests graceful termination, escalating to a forceful kill if the
// process is still alive after the grace period. Safe to call more than once
// and after exit.
func (h *Handle) Cancel() {
	h.cancelOnce.Do(func() {
		if !h.IsSearching() {
			return
		}
		if err := terminateProcess(h.cmd); err != nil {
			h.logger.Debug("terminate failed", zap.Error(err))
		}
		go func() {
			select {
			case <-h.done:
			case <-time.After(h.grace):
				h.logger.Warn("process did not exit within grace period, killing",
					zap.Duration("grace", h.grace))
				killProcess(h.cmd)
			}
		}()
	})
}

// SearchSync runs argv to completion, blocking up to timeout. On expiry the
// process is force-terminated and models.ErrTimeout is returned. A timeout of
// zero means no limit beyond ctx.
func (e *Engine) SearchSync(ctx context.Context, argv []string, timeout time.Duration) (string, string, int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		killProcess(cmd)
		return nil
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return stdout.String(), stderr.String(), -1, models.ErrTimeout
	}
	exitCode := 0
	if runErr != nil {
		if ee, ok := runErr.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		} else {
			return stdout.String(), stderr.String(), -1, &models.ProcessSpawnError{Binary: argv[0], Err: runErr}
		}
	}
	return stdout.String(), stderr.String(), exitCode, nil
}
