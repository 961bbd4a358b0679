package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cinema-ticketing/internal/usecase"
	"cinema-ticketing/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type denyLease struct{}

func (denyLease) Acquire(context.Context, string, time.Duration) (bool, error) { return false, nil }

type brokenLease struct{}

func (brokenLease) Acquire(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func TestSweeper_RunOnceRecordsStats(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	sweep := Sweep{
		Name:     SweepPayments,
		Interval: time.Second,
		Run: func(ctx context.Context) (usecase.SweepResult, error) {
			return usecase.SweepResult{Scanned: 3, Changed: 2, Failed: 1}, nil
		},
	}
	w := NewSweeper([]Sweep{sweep}, nil, clk, zap.NewNop())

	w.RunOnce(context.Background(), sweep)
	clk.Advance(time.Second)
	w.RunOnce(context.Background(), sweep)

	stats := w.GetStats()
	require.Len(t, stats, 1)
	assert.Equal(t, SweepPayments, stats[0].Name)
	assert.Equal(t, int64(2), stats[0].Runs)
	assert.Equal(t, int64(4), stats[0].Items)
	assert.Equal(t, int64(2), stats[0].Errors)
	assert.Equal(t, 2, stats[0].LastChanged)
	assert.True(t, stats[0].LastRun.Equal(clk.Now()))
}

func TestSweeper_RunOnceError(t *testing.T) {
	sweep := Sweep{
		Name:     SweepBookings,
		Interval: time.Second,
		Run: func(ctx context.Context) (usecase.SweepResult, error) {
			return usecase.SweepResult{}, errors.New("database is down")
		},
	}
	w := NewSweeper([]Sweep{sweep}, nil, clock.NewSystem(), zap.NewNop())

	w.RunOnce(context.Background(), sweep)

	stats := w.GetStats()[0]
	assert.Equal(t, int64(1), stats.Runs)
	assert.Equal(t, int64(1), stats.Errors)
	assert.Equal(t, "database is down", stats.LastError)
}

func TestSweeper_Lease(t *testing.T) {
	var calls atomic.Int32
	sweep := Sweep{
		Name:     SweepReservations,
		Interval: time.Second,
		Run: func(ctx context.Context) (usecase.SweepResult, error) {
			calls.Add(1)
			return usecase.SweepResult{}, nil
		},
	}

	denied := NewSweeper([]Sweep{sweep}, denyLease{}, clock.NewSystem(), zap.NewNop())
	denied.RunOnce(context.Background(), sweep)
	assert.Zero(t, calls.Load())
	assert.Equal(t, int64(1), denied.GetStats()[0].Skipped)

	broken := NewSweeper([]Sweep{sweep}, brokenLease{}, clock.NewSystem(), zap.NewNop())
	broken.RunOnce(context.Background(), sweep)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSweeper_StartRunsEachSweepImmediately(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	record := func(name string) func(context.Context) (usecase.SweepResult, error) {
		return func(context.Context) (usecase.SweepResult, error) {
			mu.Lock()
			seen[name]++
			mu.Unlock()
			return usecase.SweepResult{}, nil
		}
	}

	sweeps := []Sweep{
		{Name: SweepReservations, Interval: time.Hour, Run: record(SweepReservations)},
		{Name: SweepPayments, Interval: time.Hour, Run: record(SweepPayments)},
		{Name: SweepBookings, Interval: 20 * time.Millisecond, Run: record(SweepBookings)},
	}
	w := NewSweeper(sweeps, nil, clock.NewSystem(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	assert.Error(t, w.Start(ctx))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[SweepReservations] == 1 && seen[SweepPayments] == 1 && seen[SweepBookings] >= 3
	}, 2*time.Second, 10*time.Millisecond)

	w.Stop()
	w.Stop()

	names := make([]string, 0, 3)
	for _, st := range w.GetStats() {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{SweepReservations, SweepPayments, SweepBookings}, names)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	sweep := Sweep{
		Name:     SweepPayments,
		Interval: time.Hour,
		Run: func(context.Context) (usecase.SweepResult, error) {
			return usecase.SweepResult{}, nil
		},
	}
	w := NewSweeper([]Sweep{sweep}, nil, clock.NewSystem(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
