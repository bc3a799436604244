// internal/service/pulse/scheduler.go

package pulse

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"pulse/internal/domain/pulse"
	"pulse/internal/metrics"
)

// SchedulerConfig contains configuration for the pulse scheduler
type SchedulerConfig struct {
	ScanInterval time.Duration
	NumPosts     int
	EventsTopic  string
}

// Scheduler periodically recomputes the pulse, persists snapshots and
// publishes update events to the event bus.
type Scheduler struct {
	computer  pulse.Computer
	snapshots pulse.SnapshotStore
	eventBus  *nats.Conn
	metrics   *metrics.Metrics
	config    SchedulerConfig

	handlers []func(*pulse.Result) error

	mu     sync.RWMutex
	latest *pulse.Result

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new pulse scheduler. The event bus and snapshot
// store may be nil, in which case the corresponding steps are skipped.
func NewScheduler(
	computer pulse.Computer,
	snapshots pulse.SnapshotStore,
	eventBus *nats.Conn,
	m *metrics.Metrics,
	config SchedulerConfig,
) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if config.ScanInterval <= 0 {
		config.ScanInterval = 5 * time.Minute
	}

	return &Scheduler{
		computer:  computer,
		snapshots: snapshots,
		eventBus:  eventBus,
		metrics:   m,
		config:    config,
		handlers:  []func(*pulse.Result) error{},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins the periodic computation loop. An initial computation is
// performed immediately so the API has data before the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Latest returns the most recently computed result, or nil if no
// computation has completed yet.
func (s *Scheduler) Latest() *pulse.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// RegisterHandler registers a callback invoked after each successful
// computation.
func (s *Scheduler) RegisterHandler(handler func(*pulse.Result) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.compute(ctx)

	ticker := time.NewTicker(s.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.compute(ctx)
		}
	}
}

func (s *Scheduler) compute(ctx context.Context) {
	start := time.Now()

	result, err := s.computer.ComputePulse(ctx, s.config.NumPosts)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ComputeTotal.WithLabelValues("error").Inc()
		}
		log.Error().Err(err).Msg("pulse computation failed")
		return
	}

	if s.metrics != nil {
		s.metrics.ComputeTotal.WithLabelValues("success").Inc()
		s.metrics.ComputeDuration.Observe(time.Since(start).Seconds())
		s.metrics.TopicsDetected.Set(float64(len(result.Topics)))
	}

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	s.saveSnapshot(result)

	if err := s.publishUpdate(result); err != nil {
		log.Error().Err(err).Msg("failed to publish pulse update")
	}

	s.callHandlers(result)

	log.Info().
		Int("topics", len(result.Topics)).
		Int("edges", len(result.Edges)).
		Dur("duration", time.Since(start)).
		Msg("pulse computation complete")
}

func (s *Scheduler) saveSnapshot(result *pulse.Result) {
	if s.snapshots == nil || len(result.Topics) == 0 {
		return
	}

	snap, err := s.snapshots.SaveSnapshot(result.Topics, false)
	if err != nil {
		log.Error().Err(err).Msg("failed to save snapshot")
		return
	}
	if snap != nil {
		if s.metrics != nil {
			s.metrics.SnapshotsSaved.Inc()
		}
		log.Debug().Str("timestamp", snap.Timestamp).Msg("snapshot saved")
	}
}

func (s *Scheduler) publishUpdate(result *pulse.Result) error {
	if s.eventBus == nil {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal pulse result: %w", err)
	}

	return s.eventBus.Publish(s.config.EventsTopic, data)
}

func (s *Scheduler) callHandlers(result *pulse.Result) {
	s.mu.RLock()
	handlers := make([]func(*pulse.Result) error, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(result); err != nil {
			log.Error().Err(err).Msg("pulse update handler failed")
		}
	}
}

// Stop gracefully stops the scheduler, waiting for any in-flight
// computation to finish or the provided context to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()

	c := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(c)
	}()

	select {
	case <-c:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}
