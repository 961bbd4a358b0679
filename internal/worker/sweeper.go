package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cinema-ticketing/internal/usecase"
	"cinema-ticketing/pkg/clock"
	"cinema-ticketing/pkg/utils"

	"go.uber.org/zap"
)

const (
	SweepReservations = "reservations"
	SweepPayments     = "payments"
	SweepBookings     = "bookings"
)

// Lease lets only one instance run a sweep per tick.
type Lease interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
}

// AlwaysLease grants every request; every instance then runs every sweep.
type AlwaysLease struct{}

func (AlwaysLease) Acquire(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

// Sweep is one periodic cleanup task.
type Sweep struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (usecase.SweepResult, error)
}

// DefaultSweeps returns the reservation, payment and booking sweeps.
func DefaultSweeps(service *usecase.Service, config utils.SweepConfig) []Sweep {
	return []Sweep{
		{Name: SweepReservations, Interval: config.ReservationInterval, Run: service.Seat.ReleaseAllExpiredHolds},
		{Name: SweepPayments, Interval: config.PaymentInterval, Run: service.Payment.ExpirePendingPayments},
		{Name: SweepBookings, Interval: config.BookingInterval, Run: service.Booking.CancelAbandonedBookings},
	}
}

// SweepStats contains per sweep statistics
type SweepStats struct {
	Name        string        `json:"name"`
	Interval    time.Duration `json:"interval_ns"`
	Runs        int64         `json:"runs"`
	Skipped     int64         `json:"skipped"`
	Items       int64         `json:"items"`
	Errors      int64         `json:"errors"`
	LastRun     time.Time     `json:"last_run"`
	LastChanged int           `json:"last_changed"`
	LastError   string        `json:"last_error,omitempty"`
}

// Sweeper runs each sweep on its own ticker, once at start and then per tick.
type Sweeper struct {
	sweeps  []Sweep
	lease   Lease
	clock   clock.Clock
	log     *zap.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	stats   map[string]*SweepStats
}

func NewSweeper(sweeps []Sweep, lease Lease, clk clock.Clock, log *zap.Logger) *Sweeper {
	if lease == nil {
		lease = AlwaysLease{}
	}

	stats := make(map[string]*SweepStats, len(sweeps))
	for _, s := range sweeps {
		stats[s.Name] = &SweepStats{Name: s.Name, Interval: s.Interval}
	}

	return &Sweeper{
		sweeps: sweeps,
		lease:  lease,
		clock:  clk,
		log:    log.With(zap.String("worker", "sweeper")),
		stopCh: make(chan struct{}),
		stats:  stats,
	}
}

func (w *Sweeper) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("sweeper already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting sweeper", zap.Int("sweeps", len(w.sweeps)))

	for _, s := range w.sweeps {
		w.wg.Add(1)
		go w.loop(ctx, s)
	}
	return nil
}

func (w *Sweeper) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping sweeper")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Sweeper stopped")
}

// Run starts the sweeper and blocks until ctx is cancelled.
func (w *Sweeper) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

func (w *Sweeper) loop(ctx context.Context, s Sweep) {
	defer w.wg.Done()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	w.RunOnce(ctx, s)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(ctx, s)
		}
	}
}

// RunOnce runs a single pass of s if the lease is granted.
func (w *Sweeper) RunOnce(ctx context.Context, s Sweep) {
	// Lease lapses just before the next tick so the holder can take it again
	ok, err := w.lease.Acquire(ctx, s.Name, s.Interval-s.Interval/10)
	if err != nil {
		// Lease store down, sweeps are idempotent so run anyway
		w.log.Warn("Lease unavailable, sweeping without it", zap.String("sweep", s.Name), zap.Error(err))
		ok = true
	}
	if !ok {
		w.update(s.Name, func(st *SweepStats) { st.Skipped++ })
		return
	}

	started := w.clock.Now()
	result, err := s.Run(ctx)

	w.update(s.Name, func(st *SweepStats) {
		st.Runs++
		st.LastRun = started
		st.LastChanged = result.Changed
		st.Items += int64(result.Changed)
		st.Errors += int64(result.Failed)
		st.LastError = ""
		if err != nil {
			st.Errors++
			st.LastError = err.Error()
		}
	})

	if err != nil {
		w.log.Error("Sweep failed", zap.String("sweep", s.Name), zap.Error(err))
		return
	}
	if result.Changed > 0 || result.Failed > 0 {
		w.log.Info("Sweep finished",
			zap.String("sweep", s.Name),
			zap.Int("scanned", result.Scanned),
			zap.Int("changed", result.Changed),
			zap.Int("failed", result.Failed),
		)
	}
}

func (w *Sweeper) update(name string, fn func(*SweepStats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if st, ok := w.stats[name]; ok {
		fn(st)
	}
}

// GetStats returns a copy of the stats in sweep order.
func (w *Sweeper) GetStats() []SweepStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]SweepStats, 0, len(w.sweeps))
	for _, s := range w.sweeps {
		out = append(out, *w.stats[s.Name])
	}
	return out
}
