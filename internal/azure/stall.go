package azure

import (
	"context"
	"io"
	"sync/atomic"
	"time"
)

// stallTickInterval is the cadence at which progress is sampled.
const stallTickInterval = time.Second

// stallDetector watches the cumulative byte count of one in-flight
// request and cancels it when no bytes move for the configured timeout.
// This is distinct from the connect timeout: it catches a connection
// that stays open but stops making progress.
type stallDetector struct {
	timeout time.Duration
	cancel  context.CancelFunc

	bytes   atomic.Int64
	aborted atomic.Bool

	// sampling state, touched only by the run goroutine (or tests).
	prev         int64
	lastProgress time.Time
}

func newStallDetector(timeout time.Duration, cancel context.CancelFunc) *stallDetector {
	return &stallDetector{
		timeout:      timeout,
		cancel:       cancel,
		lastProgress: time.Now(),
	}
}

// observe records n bytes of progress in either direction.
func (d *stallDetector) observe(n int) {
	d.bytes.Add(int64(n))
}

// stalled samples progress at the given instant. A tick with zero delta
// whose elapsed time since the last increase reaches the timeout is a
// stall; any forward progress resets the baseline and timer.
func (d *stallDetector) stalled(now time.Time) bool {
	cur := d.bytes.Load()
	if cur != d.prev {
		d.prev = cur
		d.lastProgress = now

		return false
	}

	return now.Sub(d.lastProgress) >= d.timeout
}

// run samples until the request finishes or a stall aborts it.
func (d *stallDetector) run(ctx context.Context) {
	ticker := time.NewTicker(stallTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if d.stalled(now) {
				d.aborted.Store(true)
				d.cancel()

				return
			}
		}
	}
}

// reader wraps r so every read feeds the progress counter.
func (d *stallDetector) reader(r io.Reader) io.Reader {
	return &observingReader{r: r, det: d}
}

type observingReader struct {
	r   io.Reader
	det *stallDetector
}

func (o *observingReader) Read(p []byte) (int, error) {
	n, err := o.r.Read(p)
	if n > 0 {
		o.det.observe(n)
	}

	return n, err
}
