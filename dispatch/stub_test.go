package dispatch_test

import (
	"context"
	"sync"
	"time"

	"github.com/keepsafe/pushpipe/notification"
	"github.com/keepsafe/pushpipe/queuestore"
)

// gatewayStub is a test implementation of the Gateway interface.
type gatewayStub struct {
	SendFunc func(ctx context.Context, j *notification.Job) error
}

func (s *gatewayStub) Send(ctx context.Context, j *notification.Job) error {
	if s.SendFunc != nil {
		return s.SendFunc(ctx, j)
	}

	return nil
}

// storeStub is a test implementation of the queuestore.Store interface that
// forwards to another store, allowing specific operations to be overridden.
type storeStub struct {
	queuestore.Store

	ReadBatchFunc func(ctx context.Context, queue string, visibility time.Duration, n int) ([]queuestore.Message, error)
	DeleteFunc    func(ctx context.Context, queue string, id int64) error
	SendFunc      func(ctx context.Context, queue string, payload []byte) (int64, error)
}

func (s *storeStub) ReadBatch(
	ctx context.Context,
	queue string,
	visibility time.Duration,
	n int,
) ([]queuestore.Message, error) {
	if s.ReadBatchFunc != nil {
		return s.ReadBatchFunc(ctx, queue, visibility, n)
	}

	return s.Store.ReadBatch(ctx, queue, visibility, n)
}

func (s *storeStub) Delete(ctx context.Context, queue string, id int64) error {
	if s.DeleteFunc != nil {
		return s.DeleteFunc(ctx, queue, id)
	}

	return s.Store.Delete(ctx, queue, id)
}

func (s *storeStub) Send(
	ctx context.Context,
	queue string,
	payload []byte,
) (int64, error) {
	if s.SendFunc != nil {
		return s.SendFunc(ctx, queue, payload)
	}

	return s.Store.Send(ctx, queue, payload)
}

// recorderStub is a test implementation of the telemetry.Recorder interface
// that records the events it receives.
type recorderStub struct {
	m        sync.Mutex
	Enqueued []string
	Sent     []string
	Errors   []string
}

func (r *recorderStub) NotificationEnqueued(_ context.Context, j *notification.Job) {
	r.m.Lock()
	defer r.m.Unlock()
	r.Enqueued = append(r.Enqueued, j.Title)
}

func (r *recorderStub) NotificationSent(_ context.Context, j *notification.Job) {
	r.m.Lock()
	defer r.m.Unlock()
	r.Sent = append(r.Sent, j.Title)
}

func (r *recorderStub) NotificationError(_ context.Context, j *notification.Job, _ error) {
	r.m.Lock()
	defer r.m.Unlock()
	r.Errors = append(r.Errors, j.Title)
}
