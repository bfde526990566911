package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/azblob-go/internal/journal"
	"github.com/tonimelisma/azblob-go/internal/transfer"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <blob-name> [local-path]",
		Short: "Download a blob with parallel ranged reads",
		Long: `Download a blob (or a byte range of it) by splitting the range across
parallel workers, each issuing its own ranged read. When no length is
given the blob size is probed first.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runGet,
	}

	cmd.Flags().Int64("offset", 0, "starting byte offset within the blob")
	cmd.Flags().Int64("length", 0, "number of bytes to fetch (0 = to end of blob)")

	return cmd
}

// getOutput is the --json result shape for get.
type getOutput struct {
	Blob       string `json:"blob"`
	LocalPath  string `json:"local_path"`
	Offset     int64  `json:"offset"`
	TotalBytes int64  `json:"total_bytes"`
	Workers    int    `json:"workers"`
}

func runGet(cmd *cobra.Command, args []string) error {
	blobName := args[0]

	localPath := blobName
	if len(args) > 1 {
		localPath = args[1]
	}

	offset, _ := cmd.Flags().GetInt64("offset")
	length, _ := cmd.Flags().GetInt64("length")

	if offset < 0 {
		return fmt.Errorf("offset %d must not be negative", offset)
	}

	blob, err := blobRef(blobName)
	if err != nil {
		return err
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

	if length == 0 {
		size, st, sizeErr := stack.client.Size(ctx, blob)
		if sizeErr != nil {
			return sizeErr
		}

		if !st.OK() {
			return fmt.Errorf("probing size of %s failed (transport %d, http %d)", blobName, st.Transport, st.HTTP)
		}

		if offset > size {
			return fmt.Errorf("offset %d past end of %d-byte blob", offset, size)
		}

		length = size - offset
	}

	workers := resolvedCfg.Transfers.Workers
	dst := make([]byte, length)

	transferID, err := stack.journal.StartTransfer(ctx, journal.KindDownload, blob, length, workers, workers)
	if err != nil {
		return err
	}

	worst, results, dlErr := stack.scheduler.Download(ctx, transfer.DownloadRequest{
		Blob:        blob,
		Offset:      offset,
		TotalSize:   length,
		Dst:         dst,
		Workers:     workers,
		MaxAttempts: maxAttempts,
	})

	recordOutcome(stack, transferID, worst, results, dlErr)

	if dlErr != nil {
		return dlErr
	}

	if !worst.OK() {
		return fmt.Errorf("download of %s failed (transport %d, http %d)", blobName, worst.Transport, worst.HTTP)
	}

	if err := os.WriteFile(localPath, dst, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", localPath, err)
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(getOutput{
			Blob:       blobName,
			LocalPath:  localPath,
			Offset:     offset,
			TotalBytes: length,
			Workers:    workers,
		})
	}

	statusf("Downloaded %s (%s) to %s\n", blobName, formatSize(length), localPath)

	return nil
}
