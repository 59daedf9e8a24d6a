// Package operations runs the analysis pipeline as a single background job
// and feeds progress to the interactive shell over a polled event queue.
package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/analysis"
	apperrors "github.com/alibedirhan/Bup-Yonetim-sub000/internal/errors"
)

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	RunStatusIdle      RunStatus = "idle"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// EventType discriminates queue entries.
type EventType string

const (
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// Event is one entry on the polled queue. Progress events carry Fraction and
// Status; terminal events carry Result or Err.
type Event struct {
	Type     EventType
	RunID    string
	Fraction float64
	Status   string
	Result   *analysis.Result
	Err      error
	At       time.Time
}

// Terminal reports whether the event ends a run.
func (e Event) Terminal() bool { return e.Type != EventProgress }

// Task produces an analysis result, reporting progress through the supplied
// callback and honoring ctx cancellation.
type Task func(ctx context.Context, progress func(fraction float64, status string)) (*analysis.Result, error)

// ErrAlreadyRunning is returned by Start while a run is in flight.
var ErrAlreadyRunning = fmt.Errorf("an analysis run is already in progress")

const eventQueueSize = 64

// Runner executes at most one task at a time. The event queue is buffered so
// the worker never blocks on a slow consumer; when it fills up, the oldest
// progress entries are dropped, terminal events never are.
type Runner struct {
	mu      sync.Mutex
	logger  *slog.Logger
	events  chan Event
	limiter *rate.Limiter
	status  RunStatus
	runID   string
	cancel  context.CancelFunc
	now     func() time.Time
}

// NewRunner builds an idle runner. Progress events are throttled to roughly
// the shell's polling cadence.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger:  logger.With(slog.String("component", "operations")),
		events:  make(chan Event, eventQueueSize),
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		status:  RunStatusIdle,
		now:     time.Now,
	}
}

// Events is the queue the shell polls.
func (r *Runner) Events() <-chan Event { return r.events }

// Status returns the current lifecycle state.
func (r *Runner) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Running reports whether a run is in flight.
func (r *Runner) Running() bool { return r.Status() == RunStatusRunning }

// Start launches the task in a background goroutine and returns its run ID.
// Only one run may be in flight; a second Start returns ErrAlreadyRunning.
func (r *Runner) Start(ctx context.Context, task Task) (string, error) {
	r.mu.Lock()
	if r.status == RunStatusRunning {
		r.mu.Unlock()
		return "", ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	runID := uuid.NewString()
	r.status = RunStatusRunning
	r.runID = runID
	r.cancel = cancel
	r.mu.Unlock()

	r.logger.Info("analysis run started", slog.String("run_id", runID))
	go r.work(runCtx, runID, task)
	return runID, nil
}

// Cancel requests cooperative cancellation of the in-flight run.
func (r *Runner) Cancel() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (r *Runner) work(ctx context.Context, runID string, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("analysis worker panicked",
				slog.String("run_id", runID),
				slog.Any("panic", rec))
			r.finish(Event{
				Type:  EventFailed,
				RunID: runID,
				Err:   fmt.Errorf("analysis worker panicked: %v", rec),
			}, RunStatusFailed)
		}
	}()

	progress := func(fraction float64, status string) {
		if !r.limiter.Allow() {
			return
		}
		r.post(Event{
			Type:     EventProgress,
			RunID:    runID,
			Fraction: fraction,
			Status:   status,
			At:       r.now(),
		})
	}

	result, err := task(ctx, progress)
	switch {
	case err == nil:
		r.finish(Event{Type: EventCompleted, RunID: runID, Result: result}, RunStatusCompleted)
	case apperrors.IsKind(err, apperrors.KindCancelled) || ctx.Err() != nil:
		r.finish(Event{Type: EventCancelled, RunID: runID, Err: err}, RunStatusCancelled)
	default:
		r.finish(Event{Type: EventFailed, RunID: runID, Err: err}, RunStatusFailed)
	}
}

func (r *Runner) finish(event Event, status RunStatus) {
	event.At = r.now()

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.status = status
	r.mu.Unlock()

	r.postTerminal(event)
	r.logger.Info("analysis run finished",
		slog.String("run_id", event.RunID),
		slog.String("status", string(status)))
}

// post drops the event when the queue is full; progress is lossy.
func (r *Runner) post(event Event) {
	select {
	case r.events <- event:
	default:
	}
}

// postTerminal evicts the oldest entry until the terminal event fits.
func (r *Runner) postTerminal(event Event) {
	for {
		select {
		case r.events <- event:
			return
		default:
		}
		select {
		case <-r.events:
		default:
		}
	}
}
