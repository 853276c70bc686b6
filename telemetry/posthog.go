package telemetry

import (
	"context"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/posthog/posthog-go"

	"github.com/keepsafe/pushpipe/notification"
)

// PostHog is a Recorder that captures events with the PostHog analytics
// service.
//
// Capture failures are logged and otherwise ignored.
type PostHog struct {
	// Client is the PostHog client used to capture events.
	Client posthog.Client

	// Logger is the target for messages about capture failures. If it is nil,
	// logging.DefaultLogger is used.
	Logger logging.Logger
}

// NewPostHog returns a Recorder that captures events with the PostHog
// analytics service.
//
// The returned recorder owns the underlying client, which is closed by
// Close().
func NewPostHog(apiKey, endpoint string) (*PostHog, error) {
	client, err := posthog.NewWithConfig(
		apiKey,
		posthog.Config{
			Endpoint: endpoint,
		},
	)
	if err != nil {
		return nil, err
	}

	return &PostHog{Client: client}, nil
}

// Close flushes any buffered events and closes the underlying client.
func (r *PostHog) Close() error {
	return r.Client.Close()
}

// NotificationEnqueued records that a notification was accepted onto the
// queue.
func (r *PostHog) NotificationEnqueued(ctx context.Context, j *notification.Job) {
	r.capture("notification_enqueued", j, nil)
}

// NotificationSent records that a notification was delivered to every
// recipient.
func (r *PostHog) NotificationSent(ctx context.Context, j *notification.Job) {
	r.capture("notification_sent", j, nil)
}

// NotificationError records that an attempt to deliver a notification failed.
func (r *PostHog) NotificationError(ctx context.Context, j *notification.Job, cause error) {
	r.capture("notification_error", j, cause)
}

func (r *PostHog) capture(event string, j *notification.Job, cause error) {
	props := posthog.NewProperties().
		Set("title", j.Title).
		Set("priority", string(notification.NormalizePriority(j.Priority))).
		Set("recipient_count", len(j.Recipients)).
		Set("failure_count", j.FailureCount)

	if cause != nil {
		props = props.Set("error", cause.Error())
	}

	err := r.Client.Enqueue(posthog.Capture{
		DistinctId: distinctID(j),
		Event:      event,
		Properties: props,
	})
	if err != nil {
		logging.Debug(
			r.Logger,
			"unable to capture %s event: %s",
			event,
			err,
		)
	}
}

// distinctID chooses the analytics identity for a job.
//
// Jobs produced by this system carry the triggering user's ID in their
// metadata. Jobs produced elsewhere may not, in which case a prefix of the
// first recipient token is used instead. The token is never sent in full; it
// grants the ability to push to the device.
func distinctID(j *notification.Job) string {
	if id, ok := j.Metadata["user_id"].(string); ok && id != "" {
		return id
	}

	if len(j.Recipients) > 0 {
		t := j.Recipients[0]
		if len(t) > 8 {
			t = t[:8]
		}

		return "token_" + t
	}

	return "unknown"
}
