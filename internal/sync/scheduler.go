package sync

import (
	"context"
	"sync"
	"time"

	"satu-amo-bridge/internal/common/logger"
	"satu-amo-bridge/internal/common/metrics"
	"satu-amo-bridge/internal/common/observability"
)

// Runner is one sync cycle.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler fires the sync task on a fixed interval. Invocations never
// overlap: a tick arriving while the previous cycle still runs is
// skipped. Each cycle gets a cancellable context with a timeout.
type Scheduler struct {
	task         Runner
	interval     time.Duration
	cycleTimeout time.Duration
	logger       logger.Logger
	obs          *observability.Observability

	running sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewScheduler(task Runner, interval, cycleTimeout time.Duration, log logger.Logger, obs *observability.Observability) *Scheduler {
	return &Scheduler{
		task:         task,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		logger:       log,
		obs:          obs,
	}
}

// Start launches the background timer. It returns immediately.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("scheduler started", map[string]interface{}{
			"interval": s.interval.String(),
		})

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runCycle(ctx)
			}
		}
	}()
}

// Stop cancels any in-flight cycle and waits for the timer goroutine.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped", nil)
}

// RunOnce triggers a cycle outside the timer, honoring the same
// non-overlap guarantee.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runCycle(ctx)
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Warn("previous cycle still running, skipping tick", nil)
		metrics.SyncCyclesTotal.WithLabelValues("skipped").Inc()
		if s.obs != nil {
			s.obs.RecordCycle(ctx, "skipped")
		}
		return
	}
	defer s.running.Unlock()

	cycleCtx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	start := time.Now()
	err := s.task.Run(cycleCtx)
	elapsed := time.Since(start)

	status := "completed"
	if err != nil {
		status = "failed"
		s.logger.WithError(err).Error("sync cycle failed", map[string]interface{}{
			"elapsed": elapsed.String(),
		})
	} else {
		s.logger.Info("sync cycle completed", map[string]interface{}{
			"elapsed": elapsed.String(),
		})
	}

	metrics.SyncCyclesTotal.WithLabelValues(status).Inc()
	metrics.SyncCycleDuration.Observe(elapsed.Seconds())
	if s.obs != nil {
		s.obs.RecordCycle(ctx, status)
		s.obs.RecordCycleDuration(ctx, elapsed, status)
	}
}
