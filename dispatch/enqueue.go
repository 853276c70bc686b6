package dispatch

import (
	"context"
	"time"

	"github.com/keepsafe/pushpipe/internal/nlog"
	"github.com/keepsafe/pushpipe/notification"
)

// Enqueue validates j and appends it to the primary queue.
//
// The job's priority is normalized, its failure count is reset to zero, and
// its creation time is set to the current time if it is not already set.
func (d *Dispatcher) Enqueue(ctx context.Context, j notification.Job) error {
	if err := j.Validate(); err != nil {
		return err
	}

	j.Priority = notification.NormalizePriority(j.Priority)
	j.FailureCount = 0

	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}

	payload, err := notification.Marshal(j)
	if err != nil {
		return err
	}

	id, err := d.Store.Send(ctx, d.queue(), payload)
	if err != nil {
		return err
	}

	nlog.LogProduce(d.Logger, d.queue(), id, j.Title)
	d.recorder().NotificationEnqueued(ctx, &j)

	return nil
}
