package pgmq

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keepsafe/pushpipe/queuestore"
)

// Store is an implementation of queuestore.Store backed by the pgmq Postgres
// extension.
//
// This is the production queue store. Supabase Queues are pgmq queues, so the
// messages written by this store are interchangeable with those written by
// the other backend services via the Supabase RPC interface.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a queue store that uses the given connection pool.
//
// The caller retains ownership of the pool and is responsible for closing it.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool}
}

// Connect connects to the database at the given DSN and returns a queue store
// that uses it.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &Store{pool}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// CreateQueue creates the named queue if it does not already exist.
func (s *Store) CreateQueue(ctx context.Context, queue string) error {
	_, err := s.pool.Exec(
		ctx,
		`SELECT pgmq.create($1)`,
		queue,
	)
	return err
}

// Send appends a message to the named queue and returns its ID.
func (s *Store) Send(
	ctx context.Context,
	queue string,
	payload []byte,
) (int64, error) {
	var id int64

	err := s.pool.QueryRow(
		ctx,
		`SELECT pgmq.send($1, $2::jsonb)`,
		queue,
		payload,
	).Scan(&id)

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
	rows, err := s.pool.Query(
		ctx,
		`SELECT msg_id, read_ct, message FROM pgmq.read($1, $2, $3)`,
		queue,
		int(visibility/time.Second),
		n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []queuestore.Message

	for rows.Next() {
		var (
			m       queuestore.Message
			readCt  int64
			payload []byte
		)

		if err := rows.Scan(&m.ID, &readCt, &payload); err != nil {
			return nil, err
		}

		m.ReadCount = uint(readCt)
		m.Payload = payload

		result = append(result, m)
	}

	return result, rows.Err()
}

// Delete removes a message from the named queue.
//
// Deleting a message that does not exist is not an error; pgmq reports it by
// returning false, which is discarded.
func (s *Store) Delete(
	ctx context.Context,
	queue string,
	id int64,
) error {
	_, err := s.pool.Exec(
		ctx,
		`SELECT pgmq.delete($1, $2)`,
		queue,
		id,
	)
	return err
}
