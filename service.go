// Package pushpipe delivers queued push notifications to mobile devices.
//
// It reads notification jobs from a durable queue, fans each job out to the
// push gateway under a concurrency limit, and escalates failing jobs to a
// dead-letter queue until they exhaust their delivery attempts.
package pushpipe

import (
	"context"

	"github.com/keepsafe/pushpipe/dispatch"
	"github.com/keepsafe/pushpipe/notification"
	"github.com/keepsafe/pushpipe/scheduler"
)

// Service is the notification delivery pipeline.
//
// It combines a dispatcher, which delivers one batch at a time, with a
// scheduler that triggers the dispatcher periodically.
type Service struct {
	dispatcher *dispatch.Dispatcher
	scheduler  *scheduler.Scheduler
}

// New returns a new notification delivery service.
func New(opts ...Option) *Service {
	o := resolveOptions(opts...)

	d := &dispatch.Dispatcher{
		Store:             o.Store,
		Gateway:           o.Gateway,
		Semaphore:         o.newSemaphore(),
		Queue:             o.Queue,
		DLQ:               o.DLQ,
		BatchSize:         o.BatchSize,
		DLQLimit:          o.DLQLimit,
		VisibilityTimeout: o.VisibilityTimeout,
		Telemetry:         o.Telemetry,
		Logger:            o.Logger,
	}

	return &Service{
		dispatcher: d,
		scheduler: &scheduler.Scheduler{
			Processor: d,
			Interval:  o.Interval,
			Logger:    o.Logger,
		},
	}
}

// Run processes batches of queued notifications at the configured interval
// until ctx is canceled, at which point it returns ctx.Err().
func (s *Service) Run(ctx context.Context) error {
	return s.scheduler.Run(ctx)
}

// Enqueue validates j and appends it to the primary queue.
func (s *Service) Enqueue(ctx context.Context, j notification.Job) error {
	return s.dispatcher.Enqueue(ctx, j)
}

// ProcessBatch immediately processes one batch of messages from the primary
// queue, regardless of the configured interval.
func (s *Service) ProcessBatch(ctx context.Context) (dispatch.Stats, error) {
	return s.dispatcher.ProcessBatch(ctx)
}

// ReprocessDLQ re-attempts delivery of one batch of messages from the
// dead-letter queue.
func (s *Service) ReprocessDLQ(ctx context.Context) (dispatch.Stats, error) {
	return s.dispatcher.ProcessDLQBatch(ctx)
}
