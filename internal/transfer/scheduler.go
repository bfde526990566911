package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/azblob-go/internal/azure"
)

// Store is the transport capability the scheduler fans out over.
// internal/azure.Client implements it.
type Store interface {
	PutBlock(ctx context.Context, blob azure.BlobRef, blockID string, data []byte) (azure.Status, error)
	GetRange(ctx context.Context, blob azure.BlobRef, offset int64, dst []byte) (azure.Status, error)
}

// Scheduler coordinates parallel chunk transfers. Each chunk is retried
// independently under the policy; workers never cancel one another, and
// the overall result is the elementwise-worst status observed.
type Scheduler struct {
	store   Store
	policy  *azure.Policy
	limiter *BandwidthLimiter
	logger  *slog.Logger
}

// NewScheduler creates a scheduler. limiter may be nil (unlimited).
func NewScheduler(store Store, policy *azure.Policy, limiter *BandwidthLimiter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		store:   store,
		policy:  policy,
		limiter: limiter,
		logger:  logger,
	}
}

// ChunkResult is the outcome of one chunk of a transfer.
type ChunkResult struct {
	Chunk
	// BlockID is set for uploads only.
	BlockID  string
	Attempts int
	Status   azure.Status
	// Err is a local, non-retryable failure (destination overrun,
	// canceled bandwidth wait). Transport/protocol outcomes are Status.
	Err error
}

// UploadRequest describes one parallel block upload. The payload is
// split into Chunks blocks, each staged under its block ID; committing
// the block list is the caller's follow-up step.
type UploadRequest struct {
	Blob azure.BlobRef
	Data []byte
	// BlockIDs supplies one ID per chunk. Generated when nil.
	BlockIDs    []string
	Chunks      int
	Workers     int
	MaxAttempts int
}

// Upload stages req.Data as req.Chunks named blocks across req.Workers
// workers. It returns the worst status observed, per-chunk outcomes
// (indexed by chunk), and an error for invalid plans or local failures.
func (s *Scheduler) Upload(ctx context.Context, req UploadRequest) (azure.Status, []ChunkResult, error) {
	if err := validateShape(req.Workers, req.MaxAttempts); err != nil {
		return azure.Status{}, nil, err
	}

	plan, err := Partition(int64(len(req.Data)), req.Chunks)
	if err != nil {
		return azure.Status{}, nil, err
	}

	ids := req.BlockIDs
	if ids == nil {
		ids = NewBlockIDs(len(plan))
	} else if len(ids) != len(plan) {
		return azure.Status{}, nil, fmt.Errorf("%w: %d block IDs for %d chunks", ErrInvalidPlan, len(ids), len(plan))
	}

	s.logger.Info("starting block upload",
		slog.String("blob", req.Blob.Name),
		slog.Int("total_bytes", len(req.Data)),
		slog.Int("chunks", len(plan)),
		slog.Int("workers", req.Workers),
	)

	results := make([]ChunkResult, len(plan))

	s.fanOut(ctx, len(plan), req.Workers, func(ctx context.Context, i int) {
		c := plan[i]
		data := req.Data[c.Offset : c.Offset+c.Length]
		results[i] = s.transferChunk(ctx, c, req.MaxAttempts, func(ctx context.Context) (azure.Status, error) {
			return s.store.PutBlock(ctx, req.Blob, ids[i], data)
		})
		results[i].BlockID = ids[i]
	})

	return reduce(results)
}

// DownloadRequest describes one parallel ranged download. The byte
// range [Offset, Offset+TotalSize) of the blob is partitioned directly
// across Workers, each writing its own disjoint sub-range of Dst.
type DownloadRequest struct {
	Blob azure.BlobRef
	// Offset is the starting byte within the blob.
	Offset int64
	// TotalSize is the number of bytes to fetch; Dst must be sized to it.
	TotalSize   int64
	Dst         []byte
	Workers     int
	MaxAttempts int
}

// Download fetches the requested range into req.Dst. A worker whose
// sub-range would extend past the end of Dst fails fast with an overrun
// error; siblings run to completion regardless.
func (s *Scheduler) Download(ctx context.Context, req DownloadRequest) (azure.Status, []ChunkResult, error) {
	if err := validateShape(req.Workers, req.MaxAttempts); err != nil {
		return azure.Status{}, nil, err
	}

	// The range is partitioned directly across workers: one chunk each.
	plan, err := Partition(req.TotalSize, req.Workers)
	if err != nil {
		return azure.Status{}, nil, err
	}

	s.logger.Info("starting ranged download",
		slog.String("blob", req.Blob.Name),
		slog.Int64("offset", req.Offset),
		slog.Int64("total_bytes", req.TotalSize),
		slog.Int("workers", req.Workers),
	)

	results := make([]ChunkResult, len(plan))

	s.fanOut(ctx, len(plan), req.Workers, func(ctx context.Context, i int) {
		c := plan[i]

		// A zero-length chunk (empty blob, or a range smaller than the
		// worker count) has nothing to fetch; a ranged request for it
		// would be rejected as unsatisfiable.
		if c.Length == 0 {
			results[i] = ChunkResult{Chunk: c, Status: azure.OKStatus()}
			return
		}

		if c.Offset+c.Length > int64(len(req.Dst)) {
			results[i] = ChunkResult{
				Chunk:  c,
				Status: azure.Status{Transport: azure.TransportWrite, HTTP: 200},
				Err: fmt.Errorf("%w: chunk [%d,%d) exceeds %d-byte destination",
					azure.ErrOverrun, c.Offset, c.Offset+c.Length, len(req.Dst)),
			}

			return
		}

		dst := req.Dst[c.Offset : c.Offset+c.Length]
		results[i] = s.transferChunk(ctx, c, req.MaxAttempts, func(ctx context.Context) (azure.Status, error) {
			return s.store.GetRange(ctx, req.Blob, req.Offset+c.Offset, dst)
		})
	})

	return reduce(results)
}

// fanOut statically assigns chunk indices [0,n) to workers as
// contiguous ranges and runs the workers concurrently. Workers always
// return nil to the group: one worker exhausting its retries must not
// cancel siblings still in flight.
func (s *Scheduler) fanOut(ctx context.Context, n, workers int, run func(ctx context.Context, i int)) {
	// validateShape ran before any plan was built, so this cannot fail.
	assignment, _ := Partition(int64(n), workers)

	var g errgroup.Group

	for _, span := range assignment {
		g.Go(func() error {
			for i := span.Offset; i < span.Offset+span.Length; i++ {
				run(ctx, int(i))
			}

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // workers never return errors
}

// transferChunk runs one chunk operation under the retry policy,
// counting attempts and capturing any local failure. A local failure
// (overrun) maps to a non-retryable status, so the policy loop exits on
// the same attempt that produced it.
func (s *Scheduler) transferChunk(
	ctx context.Context, c Chunk, maxAttempts int,
	op func(ctx context.Context) (azure.Status, error),
) ChunkResult {
	if err := s.limiter.WaitN(ctx, int(c.Length)); err != nil {
		return ChunkResult{
			Chunk:  c,
			Status: azure.Status{Transport: azure.TransportSend, HTTP: 200},
			Err:    err,
		}
	}

	var (
		attempts int
		opErr    error
	)

	st := s.policy.Do(ctx, func(ctx context.Context) azure.Status {
		attempts++

		st, err := op(ctx)
		if err != nil {
			opErr = err
		}

		return st
	}, maxAttempts)

	return ChunkResult{Chunk: c, Attempts: attempts, Status: st, Err: opErr}
}

// reduce folds per-chunk outcomes into the overall transfer result:
// the elementwise-worst status, plus any local errors joined.
func reduce(results []ChunkResult) (azure.Status, []ChunkResult, error) {
	worst := azure.OKStatus()

	var errs []error

	for _, r := range results {
		worst = azure.Worst(worst, r.Status)

		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}

	return worst, results, errors.Join(errs...)
}

func validateShape(workers, maxAttempts int) error {
	if workers < 1 {
		return fmt.Errorf("%w: %d workers", ErrInvalidPlan, workers)
	}

	if maxAttempts < 1 {
		return fmt.Errorf("%w: %d attempts", ErrInvalidPlan, maxAttempts)
	}

	return nil
}
