package azure

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopSleep is a sleep function that returns immediately, for fast tests.
func noopSleep(_ context.Context, _ time.Duration) error {
	return nil
}

func newTestPolicy() *Policy {
	p := NewPolicy(DefaultRetrySet(), slog.Default())
	p.sleepFunc = noopSleep

	return p
}

func TestIsRetryable_EitherAxis(t *testing.T) {
	p := newTestPolicy()

	tests := []struct {
		name string
		st   Status
		want bool
	}{
		{"success", OKStatus(), false},
		{"transport only", Status{Transport: TransportTimeout, HTTP: 200}, true},
		{"http only", Status{Transport: TransportOK, HTTP: 503}, true},
		{"both", Status{Transport: TransportRecv, HTTP: 502}, true},
		{"neither retryable", Status{Transport: TransportTLS, HTTP: 404}, false},
		{"no-credential sentinel", Status{Transport: 1000, HTTP: 1000}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsRetryable(tt.st))
		})
	}
}

func TestBackoff_ExponentialBounds(t *testing.T) {
	p := newTestPolicy()

	for _, attempt := range []int{0, 1, 3, 7} {
		lower := time.Duration(1<<attempt) * time.Second

		// Sample across the jitter range.
		for _, jitter := range []float64{0, 0.5, 0.999} {
			p.randFloat = func() float64 { return jitter }

			d := p.Backoff(attempt, 0)
			assert.GreaterOrEqual(t, d, lower, "attempt %d jitter %v", attempt, jitter)
			assert.Less(t, d, lower+time.Second, "attempt %d jitter %v", attempt, jitter)
		}
	}
}

func TestBackoff_CappedAt256Seconds(t *testing.T) {
	p := newTestPolicy()
	p.randFloat = func() float64 { return 0 }

	assert.Equal(t, 256*time.Second, p.Backoff(20, 0))
}

func TestBackoff_RetryAfterWins(t *testing.T) {
	p := newTestPolicy()
	p.randFloat = func() float64 { return 0.25 }

	d := p.Backoff(9, 7)
	assert.GreaterOrEqual(t, d, 7*time.Second)
	assert.Less(t, d, 8*time.Second)
}

func TestDo_StopsOnSuccess(t *testing.T) {
	p := newTestPolicy()

	var calls atomic.Int32

	st := p.Do(context.Background(), func(_ context.Context) Status {
		calls.Add(1)
		return OKStatus()
	}, 5)

	assert.True(t, st.OK())
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	p := newTestPolicy()

	var calls atomic.Int32

	st := p.Do(context.Background(), func(_ context.Context) Status {
		if calls.Add(1) <= 2 {
			return Status{Transport: TransportOK, HTTP: http.StatusServiceUnavailable}
		}

		return OKStatus()
	}, 5)

	assert.True(t, st.OK())
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	p := newTestPolicy()

	var calls atomic.Int32

	st := p.Do(context.Background(), func(_ context.Context) Status {
		calls.Add(1)
		return Status{Transport: TransportOK, HTTP: http.StatusServiceUnavailable}
	}, 3)

	// The last observed status is returned as data, not an error.
	assert.Equal(t, http.StatusServiceUnavailable, st.HTTP)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_NoSleepAfterLastAttempt(t *testing.T) {
	p := newTestPolicy()

	var sleeps atomic.Int32

	p.sleepFunc = func(_ context.Context, _ time.Duration) error {
		sleeps.Add(1)
		return nil
	}

	p.Do(context.Background(), func(_ context.Context) Status {
		return Status{Transport: TransportTimeout, HTTP: 200}
	}, 3)

	// Two sleeps between three attempts, none after the final one.
	assert.Equal(t, int32(2), sleeps.Load())
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	p := newTestPolicy()

	var calls atomic.Int32

	st := p.Do(context.Background(), func(_ context.Context) Status {
		calls.Add(1)
		return Status{Transport: TransportOK, HTTP: http.StatusNotFound}
	}, 5)

	assert.Equal(t, http.StatusNotFound, st.HTTP)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_SleepFailureEndsRetries(t *testing.T) {
	p := newTestPolicy()
	p.sleepFunc = func(_ context.Context, _ time.Duration) error {
		return errors.New("sleep interrupted")
	}

	var calls atomic.Int32

	st := p.Do(context.Background(), func(_ context.Context) Status {
		calls.Add(1)
		return Status{Transport: TransportOK, HTTP: http.StatusServiceUnavailable}
	}, 5)

	// The failed sleep is reported, not escalated: one attempt, last status back.
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusServiceUnavailable, st.HTTP)
}

func TestDo_RespectsRetryAfterHint(t *testing.T) {
	p := newTestPolicy()
	p.randFloat = func() float64 { return 0 }

	var delays []time.Duration

	p.sleepFunc = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	var calls atomic.Int32

	p.Do(context.Background(), func(_ context.Context) Status {
		if calls.Add(1) == 1 {
			return Status{Transport: TransportOK, HTTP: 429, RetryAfter: 11}
		}

		return OKStatus()
	}, 5)

	require.Len(t, delays, 1)
	assert.Equal(t, 11*time.Second, delays[0])
}

func TestNewRetrySet_CopiesInputs(t *testing.T) {
	codes := []int{500}
	s := NewRetrySet(nil, codes)

	codes[0] = 503
	assert.True(t, s.RetryableHTTP(500))
	assert.False(t, s.RetryableHTTP(503))
}

func TestTimeSleep_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := timeSleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
