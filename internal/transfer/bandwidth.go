package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

// burstMultiplier controls the token bucket burst size relative to the
// per-second rate. A 2x burst lets short savings be spent on the next
// chunk without raising sustained throughput above the limit.
const burstMultiplier = 2

// BandwidthLimiter is a token bucket shared by all transfer workers so
// aggregate throughput stays within the configured limit. A nil
// *BandwidthLimiter is valid and means unlimited.
type BandwidthLimiter struct {
	limiter *rate.Limiter
	burst   int
	logger  *slog.Logger
}

// NewBandwidthLimiter creates a limiter from a rate string such as
// "10MB", "512KB", or a plain byte count. "0" or empty means unlimited
// and returns nil.
func NewBandwidthLimiter(limit string, logger *slog.Logger) (*BandwidthLimiter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	bytesPerSec, err := parseBandwidthRate(limit)
	if err != nil {
		return nil, fmt.Errorf("transfer: parse bandwidth limit %q: %w", limit, err)
	}

	if bytesPerSec == 0 {
		return nil, nil //nolint:nilnil // nil limiter = unlimited; WaitN is nil-safe
	}

	burst := int(bytesPerSec) * burstMultiplier

	logger.Info("bandwidth limiter created",
		slog.Int64("bytes_per_sec", bytesPerSec),
		slog.Int("burst", burst),
	)

	return &BandwidthLimiter{
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
		burst:   burst,
		logger:  logger,
	}, nil
}

// WaitN blocks until n bytes of budget are available. Chunks larger
// than the burst are drawn down in burst-sized steps.
func (l *BandwidthLimiter) WaitN(ctx context.Context, n int) error {
	if l == nil {
		return nil
	}

	for n > 0 {
		step := min(n, l.burst)
		if err := l.limiter.WaitN(ctx, step); err != nil {
			return fmt.Errorf("transfer: bandwidth wait: %w", err)
		}

		n -= step
	}

	return nil
}

// parseBandwidthRate converts a limit string to bytes per second.
// Supported suffixes: KB, MB, GB (decimal multiples of 1024).
func parseBandwidthRate(limit string) (int64, error) {
	s := strings.TrimSpace(strings.ToUpper(limit))
	if s == "" || s == "0" {
		return 0, nil
	}

	multiplier := int64(1)

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}

	if value < 0 {
		return 0, fmt.Errorf("negative rate")
	}

	return value * multiplier, nil
}
