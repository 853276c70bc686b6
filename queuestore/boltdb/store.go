package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	"go.etcd.io/bbolt"

	"github.com/keepsafe/pushpipe/queuestore"
)

// Store is an implementation of queuestore.Store that persists queued
// messages in a BoltDB database.
//
// It is intended for single-node deployments and local development, where
// running Postgres for the pgmq provider is unwarranted.
type Store struct {
	db *bbolt.DB
}

// New returns a queue store that uses the given BoltDB database.
//
// The caller retains ownership of the database and is responsible for closing
// it.
func New(db *bbolt.DB) *Store {
	return &Store{db}
}

// Open opens the BoltDB database at the given path and returns a queue store
// that uses it.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(
		path,
		0600,
		&bbolt.Options{
			Timeout: 1 * time.Second,
		},
	)
	if err != nil {
		return nil, err
	}

	return &Store{db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Send appends a message to the named queue and returns its ID.
func (s *Store) Send(
	ctx context.Context,
	queue string,
	payload []byte,
) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var id int64

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(queue))
		if err != nil {
			return err
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		id = int64(seq)

		data, err := json.Marshal(record{
			Payload: payload,
		})
		if err != nil {
			return err
		}

		return b.Put(marshalID(id), data)
	})

	return id, err
}

// ReadBatch reads up to n visible messages from the named queue, hiding each
// one until the visibility timeout elapses.
func (s *Store) ReadBatch(
	ctx context.Context,
	queue string,
	visibility time.Duration,
	n int,
) ([]queuestore.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result []queuestore.Message

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(queue))
		if b == nil {
			return nil
		}

		now := time.Now()
		c := b.Cursor()

		for k, v := c.First(); k != nil; k, v = c.Next() {
			if len(result) == n {
				break
			}

			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}

			if rec.VisibleAt.After(now) {
				continue
			}

			rec.VisibleAt = now.Add(visibility)
			rec.ReadCount++

			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}

			if err := b.Put(k, data); err != nil {
				return err
			}

			result = append(
				result,
				queuestore.Message{
					ID:        unmarshalID(k),
					ReadCount: rec.ReadCount,
					Payload:   rec.Payload,
				},
			)
		}

		return nil
	})

	return result, err
}

// Delete removes a message from the named queue.
//
// Deleting a message that does not exist is not an error.
func (s *Store) Delete(
	ctx context.Context,
	queue string,
	id int64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(queue))
		if b == nil {
			return nil
		}

		return b.Delete(marshalID(id))
	})
}

// record is the stored representation of a queued message.
type record struct {
	Payload   []byte    `json:"payload"`
	ReadCount uint      `json:"read_count,omitempty"`
	VisibleAt time.Time `json:"visible_at,omitempty"`
}

// marshalID returns the big-endian representation of a message ID, so that
// cursor order matches send order.
func marshalID(id int64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(id))
	return k[:]
}

// unmarshalID parses a message ID from its big-endian representation.
func unmarshalID(k []byte) int64 {
	return int64(binary.BigEndian.Uint64(k))
}
