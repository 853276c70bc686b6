package boltdb

import (
	"context"
	"sync"
	"time"

	"github.com/keepsafe/pushpipe/queuestore"
)

// FileStore is an implementation of queuestore.Store that opens a BoltDB
// database file on first use.
//
// It allows a store to be configured before the database file is writable,
// which is typical when the path is only created at deploy time.
type FileStore struct {
	// Path is the location of the database file.
	Path string

	m     sync.Mutex
	store *Store
}

// Send appends a message to the named queue and returns its ID.
func (s *FileStore) Send(
	ctx context.Context,
	queue string,
	payload []byte,
) (int64, error) {
	store, err := s.open()
	if err != nil {
		return 0, err
	}

	return store.Send(ctx, queue, payload)
}

// ReadBatch reads up to n visible messages from the named queue, hiding each
// one until the visibility timeout elapses.
func (s *FileStore) ReadBatch(
	ctx context.Context,
	queue string,
	visibility time.Duration,
	n int,
) ([]queuestore.Message, error) {
	store, err := s.open()
	if err != nil {
		return nil, err
	}

	return store.ReadBatch(ctx, queue, visibility, n)
}

// Delete removes a message from the named queue.
func (s *FileStore) Delete(
	ctx context.Context,
	queue string,
	id int64,
) error {
	store, err := s.open()
	if err != nil {
		return err
	}

	return store.Delete(ctx, queue, id)
}

// Close closes the database if it has been opened.
func (s *FileStore) Close() error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.store == nil {
		return nil
	}

	store := s.store
	s.store = nil

	return store.Close()
}

func (s *FileStore) open() (*Store, error) {
	s.m.Lock()
	defer s.m.Unlock()

	if s.store == nil {
		store, err := Open(s.Path)
		if err != nil {
			return nil, err
		}

		s.store = store
	}

	return s.store, nil
}
