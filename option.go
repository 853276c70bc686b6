package pushpipe

import (
	"time"

	"github.com/dogmatiq/dodeca/logging"

	"github.com/keepsafe/pushpipe/dispatch"
	"github.com/keepsafe/pushpipe/expo"
	"github.com/keepsafe/pushpipe/queuestore"
	"github.com/keepsafe/pushpipe/queuestore/boltdb"
	"github.com/keepsafe/pushpipe/semaphore"
	"github.com/keepsafe/pushpipe/telemetry"
)

var (
	// DefaultStore is the default queue store.
	//
	// It is overridden by the WithStore() option.
	DefaultStore queuestore.Store = &boltdb.FileStore{
		Path: "/var/run/pushpipe.boltdb",
	}

	// DefaultGateway is the default push gateway, the public Expo push
	// service.
	//
	// It is overridden by the WithGateway() option.
	DefaultGateway dispatch.Gateway = &expo.Client{}

	// DefaultConcurrencyLimit is the default number of notifications to
	// deliver concurrently.
	//
	// It is overridden by the WithConcurrencyLimit() option.
	DefaultConcurrencyLimit = uint(20)

	// DefaultInterval is the default interval at which queued notifications
	// are processed.
	//
	// It is overridden by the WithInterval() option.
	DefaultInterval = 5 * time.Minute

	// DefaultLogger is the default target for log messages produced by the
	// service.
	//
	// It is overridden by the WithLogger() option.
	DefaultLogger = logging.DefaultLogger
)

// Option configures the behavior of a service.
type Option func(*options)

// WithStore returns an option that sets the queue store used to read and
// write queued notifications.
//
// If this option is omitted or s is nil, DefaultStore is used.
func WithStore(s queuestore.Store) Option {
	return func(opts *options) {
		opts.Store = s
	}
}

// WithGateway returns an option that sets the push gateway used to deliver
// notifications.
//
// If this option is omitted or g is nil, DefaultGateway is used.
func WithGateway(g dispatch.Gateway) Option {
	return func(opts *options) {
		opts.Gateway = g
	}
}

// WithQueues returns an option that sets the names of the primary and
// dead-letter queues.
//
// If this option is omitted or a name is empty, dispatch.DefaultQueue and
// dispatch.DefaultDLQ are used.
func WithQueues(queue, dlq string) Option {
	return func(opts *options) {
		opts.Queue = queue
		opts.DLQ = dlq
	}
}

// WithConcurrencyLimit returns an option that limits the number of
// notifications that will be delivered at the same time.
//
// If this option is omitted or n is zero, DefaultConcurrencyLimit is used.
func WithConcurrencyLimit(n uint) Option {
	return func(opts *options) {
		opts.ConcurrencyLimit = n
	}
}

// WithBatchSize returns an option that sets the maximum number of messages
// read from the queue per batch.
//
// If this option is omitted or n is zero, dispatch.DefaultBatchSize is used.
func WithBatchSize(n int) Option {
	if n < 0 {
		panic("batch size must not be negative")
	}

	return func(opts *options) {
		opts.BatchSize = n
	}
}

// WithDLQLimit returns an option that sets the number of delivery failures a
// notification may accrue before it is discarded.
//
// If this option is omitted or n is zero, dispatch.DefaultDLQLimit is used.
func WithDLQLimit(n uint) Option {
	return func(opts *options) {
		opts.DLQLimit = n
	}
}

// WithInterval returns an option that sets the interval at which queued
// notifications are processed.
//
// If this option is omitted or d is zero, DefaultInterval is used.
func WithInterval(d time.Duration) Option {
	if d < 0 {
		panic("duration must not be negative")
	}

	return func(opts *options) {
		opts.Interval = d
	}
}

// WithVisibilityTimeout returns an option that sets the duration for which a
// read hides a queued message from other readers.
//
// If this option is omitted or d is zero, dispatch.DefaultVisibilityTimeout
// is used.
func WithVisibilityTimeout(d time.Duration) Option {
	if d < 0 {
		panic("duration must not be negative")
	}

	return func(opts *options) {
		opts.VisibilityTimeout = d
	}
}

// WithTelemetry returns an option that sets the recorder used to capture
// analytics events about notification outcomes.
//
// If this option is omitted or r is nil, no events are recorded.
func WithTelemetry(r telemetry.Recorder) Option {
	return func(opts *options) {
		opts.Telemetry = r
	}
}

// WithLogger returns an option that sets the target for log messages produced
// by the service.
//
// If this option is omitted or l is nil, DefaultLogger is used.
func WithLogger(l logging.Logger) Option {
	return func(opts *options) {
		opts.Logger = l
	}
}

// options is a container for a fully-resolved set of service options.
type options struct {
	Store             queuestore.Store
	Gateway           dispatch.Gateway
	Queue             string
	DLQ               string
	ConcurrencyLimit  uint
	BatchSize         int
	DLQLimit          uint
	Interval          time.Duration
	VisibilityTimeout time.Duration
	Telemetry         telemetry.Recorder
	Logger            logging.Logger
}

// resolveOptions returns a fully-populated set of service options built from
// the given set of option functions.
func resolveOptions(opts ...Option) *options {
	o := &options{}

	for _, opt := range opts {
		opt(o)
	}

	if o.Store == nil {
		o.Store = DefaultStore
	}

	if o.Gateway == nil {
		o.Gateway = DefaultGateway
	}

	if o.ConcurrencyLimit == 0 {
		o.ConcurrencyLimit = DefaultConcurrencyLimit
	}

	if o.Interval == 0 {
		o.Interval = DefaultInterval
	}

	if o.Logger == nil {
		o.Logger = DefaultLogger
	}

	return o
}

// newSemaphore returns the semaphore that enforces the configured concurrency
// limit.
func (o *options) newSemaphore() semaphore.Semaphore {
	return semaphore.New(int(o.ConcurrencyLimit))
}
