package operations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/analysis"
	apperrors "github.com/alibedirhan/Bup-Yonetim-sub000/internal/errors"
)

// unthrottled lets every progress event through for deterministic tests.
func unthrottled(r *Runner) *Runner {
	r.limiter = rate.NewLimiter(rate.Inf, 1)
	return r
}

// nextTerminal drains the queue until a terminal event arrives.
func nextTerminal(t *testing.T, r *Runner) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-r.Events():
			if event.Terminal() {
				return event
			}
		case <-deadline:
			t.Fatal("no terminal event arrived")
		}
	}
}

func TestRunCompletes(t *testing.T) {
	r := unthrottled(NewRunner(nil))

	want := &analysis.Result{Vehicles: []*analysis.VehicleAnalysis{{Vehicle: "01"}}}
	runID, err := r.Start(context.Background(), func(ctx context.Context, progress func(float64, string)) (*analysis.Result, error) {
		progress(0.5, "araç 1 işleniyor")
		return want, nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	event := nextTerminal(t, r)
	assert.Equal(t, EventCompleted, event.Type)
	assert.Equal(t, runID, event.RunID)
	assert.Same(t, want, event.Result)
	assert.Equal(t, RunStatusCompleted, r.Status())
}

func TestProgressEventsCarryFractionAndStatus(t *testing.T) {
	r := unthrottled(NewRunner(nil))

	_, err := r.Start(context.Background(), func(ctx context.Context, progress func(float64, string)) (*analysis.Result, error) {
		progress(0.25, "araç 1/4")
		return &analysis.Result{}, nil
	})
	require.NoError(t, err)

	event := <-r.Events()
	require.Equal(t, EventProgress, event.Type)
	assert.InDelta(t, 0.25, event.Fraction, 1e-9)
	assert.Equal(t, "araç 1/4", event.Status)
	assert.False(t, event.Terminal())

	assert.True(t, nextTerminal(t, r).Terminal())
}

func TestSecondStartIsRefused(t *testing.T) {
	r := NewRunner(nil)

	release := make(chan struct{})
	started := make(chan struct{})
	_, err := r.Start(context.Background(), func(ctx context.Context, progress func(float64, string)) (*analysis.Result, error) {
		close(started)
		<-release
		return &analysis.Result{}, nil
	})
	require.NoError(t, err)
	<-started
	assert.True(t, r.Running())

	_, err = r.Start(context.Background(), func(ctx context.Context, progress func(float64, string)) (*analysis.Result, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	nextTerminal(t, r)

	// The runner accepts a new task once the previous run ended.
	_, err = r.Start(context.Background(), func(ctx context.Context, progress func(float64, string)) (*analysis.Result, error) {
		return &analysis.Result{}, nil
	})
	require.NoError(t, err)
	nextTerminal(t, r)
}

func TestCancelEndsRunCooperatively(t *testing.T) {
	r := NewRunner(nil)

	started := make(chan struct{})
	_, err := r.Start(context.Background(), func(ctx context.Context, progress func(float64, string)) (*analysis.Result, error) {
		close(started)
		<-ctx.Done()
		return nil, apperrors.NewCancelled("analyze")
	})
	require.NoError(t, err)

	<-started
	r.Cancel()

	event := nextTerminal(t, r)
	assert.Equal(t, EventCancelled, event.Type)
	assert.True(t, apperrors.IsKind(event.Err, apperrors.KindCancelled))
	assert.Equal(t, RunStatusCancelled, r.Status())
}

func TestTaskErrorBecomesFailedEvent(t *testing.T) {
	r := NewRunner(nil)

	boom := errors.New("sheet is unreadable")
	_, err := r.Start(context.Background(), func(ctx context.Context, progress func(float64, string)) (*analysis.Result, error) {
		return nil, boom
	})
	require.NoError(t, err)

	event := nextTerminal(t, r)
	assert.Equal(t, EventFailed, event.Type)
	assert.ErrorIs(t, event.Err, boom)
	assert.Equal(t, RunStatusFailed, r.Status())
}

func TestPanicBecomesFailedEvent(t *testing.T) {
	r := NewRunner(nil)

	_, err := r.Start(context.Background(), func(ctx context.Context, progress func(float64, string)) (*analysis.Result, error) {
		panic("unexpected row shape")
	})
	require.NoError(t, err)

	event := nextTerminal(t, r)
	assert.Equal(t, EventFailed, event.Type)
	require.Error(t, event.Err)
	assert.Contains(t, event.Err.Error(), "unexpected row shape")
	assert.Equal(t, RunStatusFailed, r.Status())
}

func TestTerminalEventSurvivesFullQueue(t *testing.T) {
	r := unthrottled(NewRunner(nil))

	_, err := r.Start(context.Background(), func(ctx context.Context, progress func(float64, string)) (*analysis.Result, error) {
		// Overflow the queue; old progress entries are expendable.
		for i := 0; i < eventQueueSize*2; i++ {
			progress(float64(i), "doldur")
		}
		return &analysis.Result{}, nil
	})
	require.NoError(t, err)

	event := nextTerminal(t, r)
	assert.Equal(t, EventCompleted, event.Type)
}
