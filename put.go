package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/azblob-go/internal/azure"
	"github.com/tonimelisma/azblob-go/internal/journal"
	"github.com/tonimelisma/azblob-go/internal/transfer"
)

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <local-path> <blob-name>",
		Short: "Upload a file as staged blocks",
		Long: `Upload a local file to a block blob. The file is split into chunks
and each chunk is staged as a named block in parallel. Block IDs are
printed on success for a subsequent block-list commit.`,
		Args: cobra.ExactArgs(2),
		RunE: runPut,
	}
}

// putOutput is the --json result shape for put.
type putOutput struct {
	Blob       string   `json:"blob"`
	TotalBytes int64    `json:"total_bytes"`
	Chunks     int      `json:"chunks"`
	BlockIDs   []string `json:"block_ids"`
}

func runPut(cmd *cobra.Command, args []string) error {
	localPath, blobName := args[0], args[1]

	blob, err := blobRef(blobName)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}

	stack, err := newTransferStack()
	if err != nil {
		return err
	}
	defer stack.close()

	ctx := cmd.Context()
	maxAttempts := resolvedCfg.Transfers.MaxAttempts

	if st, err := stack.manager.EnsureFresh(ctx, maxAttempts); err != nil {
		return err
	} else if !st.OK() {
		return fmt.Errorf("token refresh failed (transport %d, http %d)", st.Transport, st.HTTP)
	}

	chunks := chunkCount(int64(len(data)), resolvedCfg.ChunkSizeBytes())

	transferID, err := stack.journal.StartTransfer(ctx, journal.KindUpload, blob, int64(len(data)), chunks, resolvedCfg.Transfers.Workers)
	if err != nil {
		return err
	}

	worst, results, upErr := stack.scheduler.Upload(ctx, transfer.UploadRequest{
		Blob:        blob,
		Data:        data,
		Chunks:      chunks,
		Workers:     resolvedCfg.Transfers.Workers,
		MaxAttempts: maxAttempts,
	})

	recordOutcome(stack, transferID, worst, results, upErr)

	if upErr != nil {
		return upErr
	}

	if !worst.OK() {
		return fmt.Errorf("upload of %s failed (transport %d, http %d)", blobName, worst.Transport, worst.HTTP)
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.BlockID
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(putOutput{
			Blob:       blobName,
			TotalBytes: int64(len(data)),
			Chunks:     chunks,
			BlockIDs:   ids,
		})
	}

	statusf("Uploaded %s (%s) as %d blocks\n", blobName, formatSize(int64(len(data))), chunks)

	for _, id := range ids {
		fmt.Println(id)
	}

	return nil
}

// chunkCount returns how many chunks of at most chunkSize cover size
// bytes. Zero-byte payloads still produce one (empty) chunk.
func chunkCount(size, chunkSize int64) int {
	if size <= 0 || chunkSize <= 0 {
		return 1
	}

	return int((size + chunkSize - 1) / chunkSize)
}

// recordOutcome persists per-chunk results and the final status to the
// journal. Journal failures are logged, never escalated: the transfer
// outcome matters more than its bookkeeping.
func recordOutcome(stack *transferStack, transferID int64, worst azure.Status, results []transfer.ChunkResult, transferErr error) {
	// A fresh context so bookkeeping still lands when the command
	// context was canceled mid-transfer.
	ctx := context.Background()

	if err := stack.journal.RecordBlocks(ctx, transferID, results); err != nil {
		stack.logger.Warn("recording block outcomes", "error", err.Error())
	}

	if err := stack.journal.FinishTransfer(ctx, transferID, worst, transferErr); err != nil {
		stack.logger.Warn("finishing journal entry", "error", err.Error())
	}
}
