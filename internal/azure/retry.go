package azure

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"time"
)

// maxBackoffSeconds caps the exponential term of the computed backoff.
const maxBackoffSeconds = 256

// RetrySet holds the transport and HTTP codes considered transient.
// It is immutable once built; construct one per configuration instead of
// mutating shared process state.
type RetrySet struct {
	transport map[int]struct{}
	http      map[int]struct{}
}

// NewRetrySet builds a RetrySet from explicit code lists. The inputs are
// copied, so callers may reuse their slices.
func NewRetrySet(transportCodes, httpCodes []int) RetrySet {
	s := RetrySet{
		transport: make(map[int]struct{}, len(transportCodes)),
		http:      make(map[int]struct{}, len(httpCodes)),
	}

	for _, c := range transportCodes {
		s.transport[c] = struct{}{}
	}

	for _, c := range httpCodes {
		s.http[c] = struct{}{}
	}

	return s
}

// DefaultRetrySet returns the stock classification: connection-level and
// in-flight transport failures plus the throttling/server-error HTTP codes.
func DefaultRetrySet() RetrySet {
	return NewRetrySet(
		[]int{
			TransportDNS,
			TransportConnect,
			TransportTimeout,
			TransportStalled,
			TransportSend,
			TransportRecv,
		},
		[]int{
			http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	)
}

// RetryableTransport reports whether the transport code is transient.
func (s RetrySet) RetryableTransport(code int) bool {
	_, ok := s.transport[code]
	return ok
}

// RetryableHTTP reports whether the HTTP code is transient.
func (s RetrySet) RetryableHTTP(code int) bool {
	_, ok := s.http[code]
	return ok
}

// Operation is one transport attempt, executed under a Policy retry loop.
type Operation func(ctx context.Context) Status

// Policy classifies transient failures and drives a retry loop with
// exponential backoff and Retry-After compliance around any Operation.
type Policy struct {
	set    RetrySet
	logger *slog.Logger

	// sleepFunc waits between retries. Defaults to timeSleep.
	// Tests override this to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error

	// randFloat supplies the sub-second jitter term. Defaults to
	// rand.Float64; tests pin it for deterministic intervals.
	randFloat func() float64
}

// NewPolicy creates a retry policy over the given code sets.
func NewPolicy(set RetrySet, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}

	return &Policy{
		set:       set,
		logger:    logger,
		sleepFunc: timeSleep,
		randFloat: rand.Float64, //nolint:gosec // jitter does not need crypto rand
	}
}

// SetSleepFunc replaces the inter-retry wait. Tests in this module use
// it to run retry loops without real delays.
func (p *Policy) SetSleepFunc(f func(ctx context.Context, d time.Duration) error) {
	p.sleepFunc = f
}

// IsRetryable reports whether the status is transient on either axis:
// transport code in the transport set OR HTTP code in the HTTP set.
func (p *Policy) IsRetryable(st Status) bool {
	return p.set.RetryableTransport(st.Transport) || p.set.RetryableHTTP(st.HTTP)
}

// Backoff computes the delay before retry number attempt (zero-based).
// When the server supplied a Retry-After hint it wins; otherwise the
// delay grows as 2^attempt capped at maxBackoffSeconds. Both forms carry
// up to one second of uniform jitter.
func (p *Policy) Backoff(attempt, retryAfter int) time.Duration {
	var seconds float64
	if retryAfter > 0 {
		seconds = float64(retryAfter) + p.randFloat()
	} else {
		seconds = math.Min(math.Pow(2, float64(attempt)), maxBackoffSeconds) + p.randFloat()
	}

	return time.Duration(seconds * float64(time.Second))
}

// Do invokes op up to maxAttempts times, sleeping Backoff between
// attempts. The loop stops immediately on a non-retryable status or on
// the last attempt. A failed sleep (context canceled) also stops the
// loop: it is logged, not escalated. The last observed status is
// returned regardless of outcome.
func (p *Policy) Do(ctx context.Context, op Operation, maxAttempts int) Status {
	var st Status

	for attempt := 0; attempt < maxAttempts; attempt++ {
		st = op(ctx)
		if !p.IsRetryable(st) || attempt == maxAttempts-1 {
			break
		}

		p.logger.Warn("transient failure, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxAttempts),
			slog.Int("transport_code", st.Transport),
			slog.Int("http_code", st.HTTP),
		)

		if err := p.sleepFunc(ctx, p.Backoff(attempt, st.RetryAfter)); err != nil {
			p.logger.Warn("backoff sleep interrupted, abandoning retries",
				slog.String("error", err.Error()),
			)

			break
		}
	}

	return st
}

// timeSleep waits for the given duration or until the context is canceled.
// It is the default sleepFunc for Policy.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
