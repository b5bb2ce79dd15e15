package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stakehaus/stake-engine/internal/adapter"
	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/logger"
	"github.com/stakehaus/stake-engine/internal/messaging"
	"github.com/stakehaus/stake-engine/internal/store"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

const (
	SWEEP_CYCLE_INTERVAL = 15 * time.Minute // Time to sleep between sweep cycles
)

// BillingSweeperConfig holds configuration for the billing sweeper
type BillingSweeperConfig struct {
	BatchSize      int // Tenants to examine per cycle
	WorkerPoolSize int // Concurrent workers
}

// billingSweeper implements the Sweeper interface. It scans for tenants whose
// subscription payment is overdue and publishes due and lapsed notices.
type billingSweeper struct {
	config    *BillingSweeperConfig
	store     store.Store
	publisher messaging.Publisher
	pool      pond.Pool
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewBillingSweeper creates a new billing sweeper
func NewBillingSweeper(
	config *BillingSweeperConfig,
	st store.Store,
	publisher messaging.Publisher,
	clock adapter.Clock,
) Sweeper {
	return &billingSweeper{
		config:    config,
		store:     st,
		publisher: publisher,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *billingSweeper) Name() string {
	return "billing-sweeper"
}

// Start begins the sweeper's main loop
func (s *billingSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh) // Signal that we've stopped
	}()

	logger.InfoCtx(ctx, "Starting billing sweeper",
		zap.Int("batch_size", s.config.BatchSize),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
	)

	// Create worker pool
	s.pool = s.newPool(ctx)

	// Continuous loop - stops when context is canceled or stop is requested
	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Billing sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			s.cleanup()
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Billing sweeper stop requested")
			s.cleanup()
			return nil
		default:
			if err := s.runSweepCycle(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.ErrorCtx(ctx, err)
				}
			}
			// Sleep between cycles, interruptible by context or stop signal
			if !s.sleep(ctx, SWEEP_CYCLE_INTERVAL) {
				continue
			}
		}
	}
}

func (s *billingSweeper) newPool(ctx context.Context) pond.Pool {
	return pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.BatchSize),
		pond.WithContext(ctx),
	)
}

// cleanup stops the worker pool and waits for tasks to complete
func (s *billingSweeper) cleanup() {
	if s.pool != nil {
		s.pool.StopAndWait()
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *billingSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping billing sweeper")

	// Signal stop to the main loop
	close(s.stopChan)

	// Wait for main loop to exit, but respect context cancellation
	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Billing sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Billing sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle runs a single sweep cycle
func (s *billingSweeper) runSweepCycle(ctx context.Context) error {
	startTime := s.clock.Now()

	stakers, err := s.store.ListStakersDue(ctx, startTime, s.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to list stakers due: %w", err)
	}

	if len(stakers) == 0 {
		return nil
	}

	logger.InfoCtx(ctx, "Found overdue tenants", zap.Int("count", len(stakers)))

	var dueCount, lapsedCount atomic.Int32
	for _, staker := range stakers {
		s.pool.Submit(func() {
			s.noticeTenant(ctx, staker, startTime, &dueCount, &lapsedCount)
		})
	}

	// Wait for all notices to complete
	s.pool.StopAndWait()

	// Recreate pool for next cycle
	s.pool = s.newPool(ctx)

	duration := s.clock.Since(startTime)
	logger.InfoCtx(ctx, "Sweep cycle completed",
		zap.Duration("duration", duration),
		zap.Int("total_examined", len(stakers)),
		zap.Int32("due_notices", dueCount.Load()),
		zap.Int32("lapsed_notices", lapsedCount.Load()),
	)

	return nil
}

// sleep sleeps for the given duration but can be interrupted by context
// cancellation or a stop request. Returns true if sleep completed normally.
func (s *billingSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}

// noticeTenant publishes at most one billing notice per tenant per cycle
// phase: a due notice once the payment date passes, then a lapsed notice
// once the grace window closes. LastBillingNoticeAt dedups across cycles.
func (s *billingSweeper) noticeTenant(ctx context.Context, staker *schema.Staker, now time.Time, dueCount, lapsedCount *atomic.Int32) {
	lapseAt := staker.NextPaymentAt.Add(domain.SHORT_GRACE_WINDOW)

	var eventType domain.EventType
	switch {
	case now.After(lapseAt):
		if staker.LastBillingNoticeAt != nil && !staker.LastBillingNoticeAt.Before(lapseAt) {
			return // Lapsed notice already sent
		}
		eventType = domain.EventTypeSubscriptionLapsed
		lapsedCount.Add(1)
	default:
		if staker.LastBillingNoticeAt != nil && !staker.LastBillingNoticeAt.Before(staker.NextPaymentAt) {
			return // Due notice already sent for this cycle
		}
		eventType = domain.EventTypeSubscriptionDue
		dueCount.Add(1)
	}

	event := &domain.PlatformEvent{
		EventID:   uuid.NewString(),
		Tenant:    staker.Slug,
		Type:      eventType,
		Timestamp: now,
		Data: map[string]interface{}{
			"slug":            staker.Slug,
			"subscription":    staker.Subscription,
			"next_payment_at": staker.NextPaymentAt,
		},
	}

	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("slug", staker.Slug),
			zap.String("event_type", string(eventType)),
		)
		return
	}

	staker.LastBillingNoticeAt = &now
	if err := s.store.SaveStaker(ctx, staker); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("slug", staker.Slug))
	}
}
