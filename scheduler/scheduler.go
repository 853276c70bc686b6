package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/dogmatiq/dodeca/logging"

	"github.com/keepsafe/pushpipe/dispatch"
)

// DefaultInterval is the delay between batches when Scheduler.Interval is
// zero.
const DefaultInterval = 5 * time.Minute

// A Processor processes batches of queued notifications.
//
// *dispatch.Dispatcher is the production implementation.
type Processor interface {
	// ProcessBatch reads one batch of messages from the primary queue and
	// delivers each of them.
	ProcessBatch(ctx context.Context) (dispatch.Stats, error)

	// ProcessDLQBatch reads one batch of messages from the dead-letter queue
	// and re-attempts delivery of each of them.
	ProcessDLQBatch(ctx context.Context) (dispatch.Stats, error)
}

// Scheduler periodically processes a batch of queued notifications.
//
// A failed batch does not stop the scheduler; the error is logged and the
// next batch runs at the usual time.
type Scheduler struct {
	// Processor processes each scheduled batch.
	Processor Processor

	// Interval is the delay between batches. If it is zero, DefaultInterval
	// is used.
	Interval time.Duration

	// Logger is the target for messages about batch outcomes. If it is nil,
	// logging.DefaultLogger is used.
	Logger logging.Logger

	m    sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// Run processes batches at the configured interval until ctx is canceled, at
// which point it returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	return s.run(ctx, nil)
}

// run processes batches at the configured interval until ctx is canceled or
// stop is closed.
//
// Closing stop halts the timer without canceling ctx, so the batch in
// progress, if any, runs to completion before run() returns.
func (s *Scheduler) run(ctx context.Context, stop <-chan struct{}) error {
	interval := s.Interval
	if interval == 0 {
		interval = DefaultInterval
	}

	logging.Log(
		s.Logger,
		"processing notifications every %s",
		interval,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Start begins processing batches on a background goroutine.
//
// It has no effect if the scheduler is already running.
func (s *Scheduler) Start() {
	s.m.Lock()
	defer s.m.Unlock()

	if s.stop != nil {
		logging.Log(s.Logger, "scheduler is already running")
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})

	s.stop = stop
	s.done = done

	go func() {
		defer close(done)
		s.run(context.Background(), stop)
	}()
}

// Stop halts the background goroutine started by Start() and waits for the
// batch in progress, if any, to finish.
//
// The batch is allowed to run to completion so that no dequeued messages are
// abandoned to the visibility timeout unnecessarily.
//
// It has no effect if the scheduler is not running.
func (s *Scheduler) Stop() {
	s.m.Lock()
	defer s.m.Unlock()

	if s.stop == nil {
		return
	}

	close(s.stop)
	<-s.done

	s.stop = nil
	s.done = nil
}

// ReprocessDLQ re-attempts delivery of one batch of messages from the
// dead-letter queue.
//
// It is intended to be triggered manually once the cause of the original
// failures has been resolved.
func (s *Scheduler) ReprocessDLQ(ctx context.Context) (dispatch.Stats, error) {
	return s.Processor.ProcessDLQBatch(ctx)
}

// tick processes a single batch. Failures are logged but do not propagate.
func (s *Scheduler) tick(ctx context.Context) {
	stats, err := s.Processor.ProcessBatch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}

		logging.Log(
			s.Logger,
			"unable to process notification batch: %s",
			err,
		)

		return
	}

	if stats.IsZero() {
		return
	}

	logging.Log(
		s.Logger,
		"processed %d notification(s), %d succeeded, %d failed, %d escalated, %d discarded",
		stats.Processed,
		stats.Succeeded,
		stats.Failed,
		stats.MovedToDLQ,
		stats.Discarded,
	)
}
