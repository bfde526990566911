// Package transfer fans one logical blob transfer out across a
// fixed-size worker pool: it partitions the byte range into chunks,
// assigns contiguous chunk ranges to workers, retries each chunk
// independently, and reduces per-worker outcomes to one worst status.
package transfer

import (
	"errors"
	"fmt"
)

// ErrInvalidPlan is returned when a transfer is requested with a
// degenerate shape (no chunks, no workers, negative size). Rejecting
// these explicitly keeps a zero-work transfer from being reported as
// silent success.
var ErrInvalidPlan = errors.New("transfer: invalid chunk plan")

// Chunk is one contiguous piece of a transfer's byte range.
type Chunk struct {
	Index  int
	Offset int64
	Length int64
}

// Partition splits [0, totalSize) into numChunks contiguous chunks.
// Every chunk is either floor(totalSize/numChunks) or one byte larger;
// the first totalSize%numChunks chunks carry the larger length, lengths
// sum to totalSize, and offsets are increasing with no gaps or overlaps.
func Partition(totalSize int64, numChunks int) ([]Chunk, error) {
	if totalSize < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrInvalidPlan, totalSize)
	}

	if numChunks < 1 {
		return nil, fmt.Errorf("%w: %d chunks", ErrInvalidPlan, numChunks)
	}

	base := totalSize / int64(numChunks)
	remainder := totalSize % int64(numChunks)

	chunks := make([]Chunk, numChunks)

	var offset int64

	for i := range chunks {
		length := base
		if int64(i) < remainder {
			length++
		}

		chunks[i] = Chunk{Index: i, Offset: offset, Length: length}
		offset += length
	}

	return chunks, nil
}
