package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"golang.org/x/sync/errgroup"

	"github.com/keepsafe/pushpipe/internal/nlog"
	"github.com/keepsafe/pushpipe/notification"
	"github.com/keepsafe/pushpipe/queuestore"
	"github.com/keepsafe/pushpipe/semaphore"
	"github.com/keepsafe/pushpipe/telemetry"
)

const (
	// DefaultQueue is the name of the queue that notification jobs are
	// delivered from when Dispatcher.Queue is empty.
	DefaultQueue = "notifications"

	// DefaultDLQ is the name of the dead-letter queue that failed jobs are
	// escalated to when Dispatcher.DLQ is empty.
	DefaultDLQ = "notifications_dlq"

	// DefaultBatchSize is the maximum number of messages read per batch when
	// Dispatcher.BatchSize is zero.
	DefaultBatchSize = 100

	// DefaultDLQLimit is the number of delivery failures a job may accrue
	// before it is discarded, used when Dispatcher.DLQLimit is zero.
	DefaultDLQLimit uint = 3

	// DefaultVisibilityTimeout is the duration for which a read hides a
	// message from other readers, used when Dispatcher.VisibilityTimeout is
	// zero.
	//
	// It must comfortably exceed the worst-case time to deliver a single
	// message, including rate-limit retries, otherwise a slow delivery can be
	// picked up a second time while the first attempt is still in flight.
	DefaultVisibilityTimeout = 5 * time.Minute
)

// Gateway delivers a notification job to each of its recipients.
type Gateway interface {
	// Send delivers j to each of its recipients.
	//
	// It returns nil only if every recipient was accepted.
	Send(ctx context.Context, j *notification.Job) error
}

// Dispatcher reads notification jobs from a queue and delivers them via a
// push gateway.
//
// Messages are processed at-least-once. A message is only removed from its
// queue once its outcome is known; if the dispatcher crashes mid-delivery the
// message becomes visible again after the visibility timeout and is
// redelivered.
type Dispatcher struct {
	// Store is the queue store that messages are read from and written to.
	Store queuestore.Store

	// Gateway is the push gateway that jobs are delivered through.
	Gateway Gateway

	// Semaphore limits the number of jobs being delivered concurrently.
	Semaphore semaphore.Semaphore

	// Queue is the name of the queue to deliver from. If it is empty,
	// DefaultQueue is used.
	Queue string

	// DLQ is the name of the dead-letter queue that failed jobs are escalated
	// to. If it is empty, DefaultDLQ is used.
	DLQ string

	// BatchSize is the maximum number of messages read per batch. If it is
	// zero, DefaultBatchSize is used.
	BatchSize int

	// DLQLimit is the number of delivery failures a job may accrue before it
	// is discarded instead of escalated. If it is zero, DefaultDLQLimit is
	// used.
	DLQLimit uint

	// VisibilityTimeout is the duration for which a read hides a message from
	// other readers. If it is zero, DefaultVisibilityTimeout is used.
	VisibilityTimeout time.Duration

	// Telemetry records analytics events about job outcomes. If it is nil, no
	// events are recorded.
	Telemetry telemetry.Recorder

	// Logger is the target for messages about deliveries, escalations and
	// discards. If it is nil, logging.DefaultLogger is used.
	Logger logging.Logger
}

// ProcessBatch reads one batch of messages from the primary queue and
// delivers each of them.
//
// Jobs that fail are escalated to the dead-letter queue, or discarded once
// their failure count exceeds the limit. It returns an error only if the
// batch itself can not be read or delivery is interrupted by ctx; individual
// delivery failures are reported via the returned stats.
func (d *Dispatcher) ProcessBatch(ctx context.Context) (Stats, error) {
	return d.processQueue(ctx, d.queue())
}

// ProcessDLQBatch reads one batch of messages from the dead-letter queue and
// re-attempts delivery of each of them.
//
// Jobs that fail again are escalated back onto the dead-letter queue until
// their failure count exceeds the limit.
func (d *Dispatcher) ProcessDLQBatch(ctx context.Context) (Stats, error) {
	return d.processQueue(ctx, d.dlq())
}

// processQueue reads one batch from the named queue and processes each
// message on its own goroutine, bounded by d.Semaphore.
func (d *Dispatcher) processQueue(
	ctx context.Context,
	source string,
) (Stats, error) {
	visibility := d.VisibilityTimeout
	if visibility == 0 {
		visibility = DefaultVisibilityTimeout
	}

	size := d.BatchSize
	if size == 0 {
		size = DefaultBatchSize
	}

	batch, err := d.Store.ReadBatch(ctx, source, visibility, size)
	if err != nil {
		return Stats{}, err
	}

	var (
		g     errgroup.Group
		m     sync.Mutex
		stats Stats
	)

	for _, msg := range batch {
		msg := msg // capture loop variable

		if err := d.Semaphore.Acquire(ctx); err != nil {
			// The remaining messages are left on the queue. They become
			// visible again once the visibility timeout elapses.
			g.Wait()
			return stats, err
		}

		g.Go(func() error {
			defer d.Semaphore.Release()

			s := d.processMessage(ctx, source, msg)

			m.Lock()
			stats.add(s)
			m.Unlock()

			return nil
		})
	}

	g.Wait()

	return stats, nil
}

// processMessage delivers a single queue message and settles it according to
// the outcome.
func (d *Dispatcher) processMessage(
	ctx context.Context,
	source string,
	msg queuestore.Message,
) Stats {
	j, err := notification.Unmarshal(msg.Payload)
	if err == nil {
		err = j.Validate()
	}
	if err != nil {
		nlog.LogMalformed(d.Logger, source, msg.ID, err)
		d.delete(ctx, source, msg.ID)

		return Stats{Processed: 1, Failed: 1}
	}

	nlog.LogConsume(d.Logger, source, msg.ID, j.FailureCount)

	if err := d.Gateway.Send(ctx, &j); err != nil {
		d.recorder().NotificationError(ctx, &j, err)
		return d.settleFailure(ctx, source, msg, j, err)
	}

	if err := d.Store.Delete(ctx, source, msg.ID); err != nil {
		// The job was delivered but the message could not be removed, so it
		// will be delivered again once it becomes visible. Duplicate delivery
		// is preferred over data loss.
		logging.Log(
			d.Logger,
			"unable to delete message %d from %s after delivery: %s",
			msg.ID,
			source,
			err,
		)

		return Stats{Processed: 1, Failed: 1}
	}

	nlog.LogDelivered(d.Logger, source, msg.ID, j.Title)
	d.recorder().NotificationSent(ctx, &j)

	return Stats{Processed: 1, Succeeded: 1}
}

// settleFailure increments the job's failure count, then either escalates it
// to the dead-letter queue or discards it.
func (d *Dispatcher) settleFailure(
	ctx context.Context,
	source string,
	msg queuestore.Message,
	j notification.Job,
	cause error,
) Stats {
	stats := Stats{Processed: 1, Failed: 1}

	j.FailureCount++

	if j.FailureCount > d.dlqLimit() {
		nlog.LogDiscard(d.Logger, source, msg.ID, j.FailureCount, cause)
		d.delete(ctx, source, msg.ID)

		stats.Discarded = 1
		return stats
	}

	if err := d.Store.Delete(ctx, source, msg.ID); err != nil {
		// The message stays on its queue with its original failure count and
		// is re-attempted after the visibility timeout.
		logging.Log(
			d.Logger,
			"unable to delete message %d from %s for escalation: %s",
			msg.ID,
			source,
			err,
		)

		return stats
	}

	payload, err := notification.Marshal(j)
	if err != nil {
		nlog.LogDataLoss(d.Logger, source, d.dlq(), msg.ID, err)
		return stats
	}

	if _, err := d.Store.Send(ctx, d.dlq(), payload); err != nil {
		// The message has already been removed from its source queue, so
		// failing to write it to the dead-letter queue loses it.
		nlog.LogDataLoss(d.Logger, source, d.dlq(), msg.ID, err)
		return stats
	}

	nlog.LogEscalate(d.Logger, source, d.dlq(), msg.ID, j.FailureCount, cause)

	stats.MovedToDLQ = 1
	return stats
}

// delete removes a message whose outcome has been decided. Failures are
// logged but not acted upon; the message is simply processed again after the
// visibility timeout.
func (d *Dispatcher) delete(ctx context.Context, queue string, id int64) {
	if err := d.Store.Delete(ctx, queue, id); err != nil {
		logging.Log(
			d.Logger,
			"unable to delete message %d from %s: %s",
			id,
			queue,
			err,
		)
	}
}

func (d *Dispatcher) queue() string {
	if d.Queue != "" {
		return d.Queue
	}

	return DefaultQueue
}

func (d *Dispatcher) dlq() string {
	if d.DLQ != "" {
		return d.DLQ
	}

	return DefaultDLQ
}

func (d *Dispatcher) dlqLimit() uint {
	if d.DLQLimit != 0 {
		return d.DLQLimit
	}

	return DefaultDLQLimit
}

func (d *Dispatcher) recorder() telemetry.Recorder {
	if d.Telemetry != nil {
		return d.Telemetry
	}

	return telemetry.Discard{}
}
