// Package main runs the notification delivery pipeline.
//
// Configuration is taken from the environment:
//
//	PGMQ_DSN       Postgres DSN of the pgmq database. If empty, a local
//	               BoltDB queue at BOLTDB_PATH is used instead.
//	BOLTDB_PATH    location of the BoltDB queue file (default
//	               /var/run/pushpipe.boltdb).
//	POSTHOG_KEY    PostHog project API key (optional).
//	POSTHOG_HOST   PostHog endpoint (optional).
//	PROCESS_INTERVAL  interval between batches, e.g. "5m" (optional).
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dogmatiq/dodeca/logging"

	"github.com/keepsafe/pushpipe"
	"github.com/keepsafe/pushpipe/dispatch"
	"github.com/keepsafe/pushpipe/queuestore"
	"github.com/keepsafe/pushpipe/queuestore/boltdb"
	"github.com/keepsafe/pushpipe/queuestore/pgmq"
	"github.com/keepsafe/pushpipe/telemetry"
)

// newContext returns a cancelable context that is canceled when the process
// receives a SIGTERM or SIGINT.
func newContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
		case <-sig:
			cancel()
		}
	}()

	return ctx, cancel
}

func main() {
	ctx, cancel := newContext()
	defer cancel()

	if err := run(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Println(err)
			os.Exit(1)
		}
	}
}

func run(ctx context.Context) error {
	logger := &logging.StandardLogger{
		Target: log.New(os.Stderr, "", 0),
	}

	store, closeStore, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	options := []pushpipe.Option{
		pushpipe.WithStore(store),
		pushpipe.WithLogger(logger),
	}

	if d := os.Getenv("PROCESS_INTERVAL"); d != "" {
		interval, err := time.ParseDuration(d)
		if err != nil {
			return fmt.Errorf("invalid PROCESS_INTERVAL: %w", err)
		}

		options = append(options, pushpipe.WithInterval(interval))
	}

	if key := os.Getenv("POSTHOG_KEY"); key != "" {
		recorder, err := telemetry.NewPostHog(key, os.Getenv("POSTHOG_HOST"))
		if err != nil {
			return err
		}
		defer recorder.Close()

		recorder.Logger = logger

		options = append(options, pushpipe.WithTelemetry(recorder))
	}

	return pushpipe.New(options...).Run(ctx)
}

// newStore returns the queue store selected by the environment: pgmq if a
// DSN is configured, a local BoltDB file otherwise.
func newStore(ctx context.Context) (queuestore.Store, func(), error) {
	if dsn := os.Getenv("PGMQ_DSN"); dsn != "" {
		store, err := pgmq.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}

		for _, queue := range []string{dispatch.DefaultQueue, dispatch.DefaultDLQ} {
			if err := store.CreateQueue(ctx, queue); err != nil {
				store.Close()
				return nil, nil, err
			}
		}

		return store, store.Close, nil
	}

	path := os.Getenv("BOLTDB_PATH")
	if path == "" {
		path = "/var/run/pushpipe.boltdb"
	}

	store := &boltdb.FileStore{Path: path}

	return store, func() {
		store.Close()
	}, nil
}
