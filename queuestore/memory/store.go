package memory

import (
	"context"
	"sync"
	"time"

	"github.com/keepsafe/pushpipe/queuestore"
)

// Store is an implementation of queuestore.Store that keeps queued messages
// in memory.
//
// It honors the same visibility-timeout semantics as the durable providers,
// which makes it suitable for tests and local development, but all messages
// are lost when the process exits.
type Store struct {
	m      sync.Mutex
	queues map[string]*queue
}

// NewStore returns a new in-memory queue store.
func NewStore() *Store {
	return &Store{
		queues: map[string]*queue{},
	}
}

// Send appends a message to the named queue and returns its ID.
func (s *Store) Send(
	ctx context.Context,
	name string,
	payload []byte,
) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.m.Lock()
	defer s.m.Unlock()

	q := s.queue(name)
	q.lastID++

	m := &message{
		id:      q.lastID,
		payload: append([]byte(nil), payload...),
	}

	q.order = append(q.order, m)
	q.byID[m.id] = m

	return m.id, nil
}

// ReadBatch reads up to n visible messages from the named queue, hiding each
// one until the visibility timeout elapses.
func (s *Store) ReadBatch(
	ctx context.Context,
	name string,
	visibility time.Duration,
	n int,
) ([]queuestore.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.m.Lock()
	defer s.m.Unlock()

	q := s.queue(name)
	now := time.Now()

	var result []queuestore.Message

	for _, m := range q.order {
		if len(result) == n {
			break
		}

		if m.visibleAt.After(now) {
			continue
		}

		m.visibleAt = now.Add(visibility)
		m.readCount++

		result = append(
			result,
			queuestore.Message{
				ID:        m.id,
				ReadCount: m.readCount,
				Payload:   append([]byte(nil), m.payload...),
			},
		)
	}

	return result, nil
}

// Delete removes a message from the named queue.
//
// Deleting a message that does not exist is not an error.
func (s *Store) Delete(
	ctx context.Context,
	name string,
	id int64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.m.Lock()
	defer s.m.Unlock()

	q := s.queue(name)

	if _, ok := q.byID[id]; !ok {
		return nil
	}

	delete(q.byID, id)

	for i, m := range q.order {
		if m.id == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}

	return nil
}

// queue returns the named queue, creating it if necessary.
//
// It assumes s.m is already locked.
func (s *Store) queue(name string) *queue {
	q, ok := s.queues[name]
	if !ok {
		q = &queue{
			byID: map[int64]*message{},
		}
		s.queues[name] = q
	}

	return q
}

type queue struct {
	lastID int64
	order  []*message
	byID   map[int64]*message
}

type message struct {
	id        int64
	readCount uint
	payload   []byte
	visibleAt time.Time
}
