package queuestore

import (
	"context"
	"time"
)

// A Message is a queued payload together with the delivery bookkeeping
// maintained by the queue store.
type Message struct {
	// ID is the opaque handle assigned by the store when the message was
	// sent. It is used to delete the message.
	ID int64

	// ReadCount is the number of times the message has been read, including
	// the read that returned this value.
	ReadCount uint

	// Payload is the message body, exactly as passed to Send().
	Payload []byte
}

// A Store is a durable message queue with visibility-timeout semantics.
//
// Reading a message hides it from other readers for the duration of the
// visibility timeout. If the message is not deleted before the timeout
// expires it becomes visible again, which is what gives consumers their
// at-least-once delivery guarantee.
type Store interface {
	// Send appends a message to the named queue and returns its ID.
	Send(ctx context.Context, queue string, payload []byte) (int64, error)

	// ReadBatch reads up to n messages from the named queue, hiding each one
	// from other readers until the visibility timeout elapses.
	//
	// It returns fewer than n messages if fewer are available. An empty queue
	// yields an empty result, not an error.
	ReadBatch(
		ctx context.Context,
		queue string,
		visibility time.Duration,
		n int,
	) ([]Message, error)

	// Delete removes a message from the named queue.
	//
	// It is idempotent. Deleting a message that does not exist, or that has
	// already been deleted, is not an error.
	Delete(ctx context.Context, queue string, id int64) error
}
