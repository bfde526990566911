package azure

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStallDetector_ProgressResetsTimer(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := newStallDetector(10*time.Second, cancel)
	start := d.lastProgress

	d.observe(100)
	assert.False(t, d.stalled(start.Add(30*time.Second)), "tick with progress is never a stall")

	// Baseline moved to the progress tick.
	assert.False(t, d.stalled(start.Add(35*time.Second)))
	assert.True(t, d.stalled(start.Add(41*time.Second)))
}

func TestStallDetector_NoProgressWithinWindow(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := newStallDetector(10*time.Second, cancel)
	start := d.lastProgress

	assert.False(t, d.stalled(start.Add(9*time.Second)))
	assert.True(t, d.stalled(start.Add(10*time.Second)), "boundary counts as stalled")
}

func TestStallDetector_AbortsRequestContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := newStallDetector(time.Nanosecond, cancel)

	done := make(chan struct{})

	go func() {
		d.run(ctx)
		close(done)
	}()

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stall detector never canceled the request")
	}

	<-done
	assert.True(t, d.aborted.Load())
}

func TestStallDetector_StopsWhenRequestFinishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := newStallDetector(time.Hour, cancel)

	done := make(chan struct{})

	go func() {
		d.run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stall detector goroutine leaked past request end")
	}

	assert.False(t, d.aborted.Load())
}

func TestObservingReader_FeedsCounter(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := newStallDetector(time.Hour, cancel)
	r := d.reader(strings.NewReader("hello world"))

	buf := make([]byte, 64)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(n), d.bytes.Load())
}
