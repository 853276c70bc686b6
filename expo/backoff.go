package expo

import (
	"math"
	"math/rand"
	"time"

	"github.com/dogmatiq/linger/backoff"
)

// MaxBackoff is the upper bound on the delay between rate-limit retries.
const MaxBackoff = 60 * time.Second

// DefaultBackoff is the strategy used to delay between rate-limit retries
// when no other strategy is specified.
//
// It doubles the delay on each attempt, adds up to one second of jitter, and
// never waits longer than MaxBackoff.
var DefaultBackoff backoff.Strategy = func(_ error, n uint) time.Duration {
	d := time.Duration(
		math.Pow(2, float64(n)) * float64(time.Second),
	)

	d += time.Duration(rand.Float64() * float64(time.Second))

	if d > MaxBackoff {
		return MaxBackoff
	}

	return d
}
