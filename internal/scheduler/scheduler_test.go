package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bumpbot/internal/models"
)

type countingBumper struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (b *countingBumper) BumpAll(ctx context.Context) ([]models.BumpResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return []models.BumpResult{{ThreadID: "1", Status: models.BumpStatusBumped}}, b.err
}

func (b *countingBumper) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type recordingReporter struct {
	mu      sync.Mutex
	batches [][]models.BumpResult
}

func (r *recordingReporter) ReportBumps(ctx context.Context, results []models.BumpResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, results)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func TestScheduler_RunsEveryInterval(t *testing.T) {
	bumper := &countingBumper{}
	reporter := &recordingReporter{}
	s := New(20*time.Millisecond, bumper, reporter, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return bumper.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, reporter.count(), 3)
}

func TestScheduler_DoesNotBumpBeforeFirstInterval(t *testing.T) {
	bumper := &countingBumper{}
	s := New(time.Hour, bumper, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, bumper.count())
}

func TestScheduler_KeepsRunningAfterFailedPass(t *testing.T) {
	bumper := &countingBumper{err: errors.New("storage unavailable")}
	s := New(10*time.Millisecond, bumper, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return bumper.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestNew_DefaultInterval(t *testing.T) {
	s := New(0, &countingBumper{}, nil, zap.NewNop())
	assert.Equal(t, DefaultInterval, s.interval)
}

// slowBumper records when each pass starts and ends
type slowBumper struct {
	mu       sync.Mutex
	duration time.Duration
	starts   []time.Time
	ends     []time.Time
}

func (b *slowBumper) BumpAll(ctx context.Context) ([]models.BumpResult, error) {
	b.mu.Lock()
	b.starts = append(b.starts, time.Now())
	b.mu.Unlock()

	time.Sleep(b.duration)

	b.mu.Lock()
	b.ends = append(b.ends, time.Now())
	b.mu.Unlock()
	return nil, nil
}

func (b *slowBumper) passes() (starts, ends []time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]time.Time(nil), b.starts...), append([]time.Time(nil), b.ends...)
}

func TestScheduler_WaitsFullIntervalAfterPass(t *testing.T) {
	const interval = 100 * time.Millisecond
	bumper := &slowBumper{duration: 80 * time.Millisecond}
	s := New(interval, bumper, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		starts, _ := bumper.passes()
		return len(starts) >= 4
	}, 5*time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	starts, ends := bumper.passes()
	for i := 1; i < len(starts) && i-1 < len(ends); i++ {
		gap := starts[i].Sub(ends[i-1])
		assert.GreaterOrEqual(t, gap, interval, "pass %d started %v after the previous one ended", i, gap)
	}
}
