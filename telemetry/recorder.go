package telemetry

import (
	"context"

	"github.com/keepsafe/pushpipe/notification"
)

// Recorder records analytics events about the lifecycle of notifications.
//
// Recorders are advisory. Implementations must not fail the delivery pipeline
// when the analytics backend is unavailable.
type Recorder interface {
	// NotificationEnqueued records that a notification was accepted onto the
	// queue.
	NotificationEnqueued(ctx context.Context, j *notification.Job)

	// NotificationSent records that a notification was delivered to every
	// recipient.
	NotificationSent(ctx context.Context, j *notification.Job)

	// NotificationError records that an attempt to deliver a notification
	// failed.
	NotificationError(ctx context.Context, j *notification.Job, cause error)
}

// Discard is a Recorder that drops all events.
type Discard struct{}

// NotificationEnqueued does nothing.
func (Discard) NotificationEnqueued(context.Context, *notification.Job) {}

// NotificationSent does nothing.
func (Discard) NotificationSent(context.Context, *notification.Job) {}

// NotificationError does nothing.
func (Discard) NotificationError(context.Context, *notification.Job, error) {}
