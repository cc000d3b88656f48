// Package retries runs operations against dependencies that may not be ready
// yet, backing off exponentially (with jitter) between attempts.
package retries

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

var (
	seededRand   = rand.New(rand.NewSource(time.Now().UnixNano()))
	seededRandMu sync.Mutex
)

// ManageRetries calls fn until it reports that no retry is warranted, until
// maxAttempts attempts have failed, or until the context is canceled. The
// process string names the operation in log and error messages.
func ManageRetries(
	ctx context.Context,
	process string,
	maxAttempts uint8,
	maxBackoff time.Duration,
	fn func() (bool, error),
) error {
	var failedAttempts uint8
	for {
		retry, err := fn()
		if !retry {
			return err
		}
		failedAttempts++
		if failedAttempts >= maxAttempts {
			return errors.Wrapf(
				err,
				"failed %d attempt(s) to %s",
				failedAttempts,
				process,
			)
		}
		delay := jitteredExpBackoff(failedAttempts, maxBackoff)
		glog.Warningf(
			"failed %d attempt(s) to %s; will retry in %s: %s",
			failedAttempts,
			process,
			delay,
			err,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// jitteredExpBackoff returns a delay between half of and the whole of
// min(2^failureCount seconds, maxDelay).
func jitteredExpBackoff(
	failureCount uint8,
	maxDelay time.Duration,
) time.Duration {
	base := math.Pow(2, float64(failureCount)) * float64(time.Second)
	capped := math.Min(base, float64(maxDelay))
	seededRandMu.Lock()
	jitter := seededRand.Float64()
	seededRandMu.Unlock()
	return time.Duration((1 + jitter) * (capped / 2))
}
