package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/linger"
	"github.com/dogmatiq/linger/backoff"
	"go.uber.org/multierr"

	"github.com/keepsafe/pushpipe/notification"
)

// DefaultURL is the push endpoint used when Client.URL is empty.
const DefaultURL = "https://exp.host/--/api/v2/push/send"

// DefaultMaxRetries is the number of rate-limit retries performed when
// Client.MaxRetries is zero.
const DefaultMaxRetries = 3

// DefaultTimeout is the HTTP timeout used when Client.HTTPClient is nil.
const DefaultTimeout = 30 * time.Second

// Client sends push notifications via the Expo push service.
type Client struct {
	// HTTPClient is the HTTP client used to make requests. If it is nil, a
	// client with a timeout of DefaultTimeout is used.
	HTTPClient *http.Client

	// URL is the push endpoint. If it is empty, DefaultURL is used.
	URL string

	// MaxRetries is the maximum number of times a rate-limited request is
	// retried before Send() gives up. If it is zero, DefaultMaxRetries is
	// used.
	MaxRetries int

	// Backoff is the strategy used to delay between rate-limit retries. If it
	// is nil, DefaultBackoff is used.
	Backoff backoff.Strategy

	// Logger is the target for messages about rate-limiting and retries. If
	// it is nil, logging.DefaultLogger is used.
	Logger logging.Logger
}

// RateLimitedError indicates that the push service rejected a request because
// the client has exceeded its rate limit.
type RateLimitedError struct{}

func (RateLimitedError) Error() string {
	return "push gateway rate limit exceeded"
}

// message is the wire representation of a push request for a single
// recipient.
type message struct {
	To       string         `json:"to"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Priority string         `json:"priority"`
	Data     map[string]any `json:"data,omitempty"`
}

// ticket is the push service's receipt for a single message.
type ticket struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Send delivers j to each of its recipients in a single request to the push
// service.
//
// It returns nil only if the service accepts the message for every recipient.
// Rate-limited requests are retried up to c.MaxRetries times, with the permit
// held by the caller throughout.
func (c *Client) Send(ctx context.Context, j *notification.Job) error {
	body, err := marshalRequest(j)
	if err != nil {
		return err
	}

	retries := c.MaxRetries
	if retries == 0 {
		retries = DefaultMaxRetries
	}

	strategy := c.Backoff
	if strategy == nil {
		strategy = DefaultBackoff
	}

	var n uint

	for {
		err := c.post(ctx, body)

		var rateLimited RateLimitedError
		if !errors.As(err, &rateLimited) {
			return err
		}

		if n >= uint(retries) {
			return fmt.Errorf(
				"push gateway rate limit exceeded after %d retries",
				retries,
			)
		}

		d := strategy(err, n)
		n++

		logging.Log(
			c.Logger,
			"rate limited by push gateway, retrying in %s (attempt %d of %d)",
			d,
			n,
			retries,
		)

		if err := linger.Sleep(ctx, d); err != nil {
			return err
		}
	}
}

// post performs a single request against the push endpoint and interprets the
// response.
func (c *Client) post(ctx context.Context, body []byte) error {
	url := c.URL
	if url == "" {
		url = DefaultURL
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}

	res, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, res.Body)
		return RateLimitedError{}
	}

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf(
			"push gateway returned HTTP %d",
			res.StatusCode,
		)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	tickets, err := unmarshalTickets(data)
	if err != nil {
		return err
	}

	// Delivery is all-or-nothing. A single rejected ticket fails the whole
	// job, but every rejection is reported.
	for _, t := range tickets {
		if t.Status != "ok" {
			err = multierr.Append(
				err,
				fmt.Errorf(
					"push gateway rejected message: %s",
					t.Message,
				),
			)
		}
	}

	return err
}

// marshalRequest builds the request body for j, containing one message per
// recipient.
func marshalRequest(j *notification.Job) ([]byte, error) {
	messages := make([]message, 0, len(j.Recipients))

	for _, r := range j.Recipients {
		messages = append(
			messages,
			message{
				To:       r,
				Title:    j.Title,
				Body:     j.Body,
				Priority: string(notification.NormalizePriority(j.Priority)),
				Data:     j.Data,
			},
		)
	}

	return json.Marshal(messages)
}

// unmarshalTickets parses a push service response.
//
// The service returns either a bare array of tickets, or an object with the
// tickets under a "data" key.
func unmarshalTickets(data []byte) ([]ticket, error) {
	var tickets []ticket

	if err := json.Unmarshal(data, &tickets); err == nil {
		return tickets, nil
	}

	var envelope struct {
		Data []ticket `json:"data"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf(
			"push gateway returned an unrecognized response: %w",
			err,
		)
	}

	return envelope.Data, nil
}
