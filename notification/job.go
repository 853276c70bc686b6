package notification

import (
	"encoding/json"
	"errors"
	"time"
)

// A Job is a single push notification to be delivered to a set of recipient
// devices.
//
// It is the payload carried by a queue message. The JSON representation is
// shared with the other backend services that produce notifications, so the
// field names and formats must not change.
type Job struct {
	// Title is the notification title shown to recipients.
	Title string `json:"title"`

	// Body is the notification body text.
	Body string `json:"body"`

	// Recipients are the push-address tokens of the target devices.
	Recipients []string `json:"recipients"`

	// Priority is the delivery priority requested from the push gateway.
	Priority Priority `json:"priority"`

	// FailureCount is the number of times delivery of this job has failed.
	//
	// It is incremented by the dispatcher before the job is escalated to the
	// dead-letter queue. It is never reset.
	FailureCount uint `json:"failure_count"`

	// Metadata is contextual information attached by the producer, such as the
	// notification type and the entity that triggered it. It is not sent to
	// the push gateway.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Data is an opaque payload forwarded verbatim to the push gateway, such
	// as a deep-link route for the mobile app.
	Data map[string]any `json:"data,omitempty"`

	// CreatedAt is the time at which the job was first enqueued.
	CreatedAt time.Time `json:"created_at"`
}

// Validate returns an error if the job is not eligible for delivery.
func (j Job) Validate() error {
	if j.Title == "" {
		return errors.New("notification job must have a title")
	}

	if j.Body == "" {
		return errors.New("notification job must have a body")
	}

	if len(j.Recipients) == 0 {
		return errors.New("notification job must have at least one recipient")
	}

	return nil
}

// Marshal returns the wire representation of the job.
func Marshal(j Job) ([]byte, error) {
	j.Priority = NormalizePriority(j.Priority)
	return json.Marshal(j)
}

// Unmarshal parses the wire representation of a job.
//
// An unrecognized priority is normalized to PriorityDefault rather than
// treated as an error, so that jobs written by older producers remain
// deliverable.
func Unmarshal(data []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return Job{}, err
	}

	j.Priority = NormalizePriority(j.Priority)

	return j, nil
}
