package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/azblob-go/internal/journal"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [transfer-id]",
		Short: "Show past transfers from the journal",
		Long: `List recorded transfers, newest first. With a transfer ID, show the
per-block outcomes of that transfer instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().IntP("limit", "n", 20, "maximum number of transfers to list (0 = all)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := buildLogger()

	jnl, err := journal.Open(resolvedCfg.Transfers.JournalPath, logger)
	if err != nil {
		return err
	}
	defer jnl.Close()

	ctx := cmd.Context()

	if len(args) == 1 {
		id, parseErr := strconv.ParseInt(args[0], 10, 64)
		if parseErr != nil {
			return fmt.Errorf("invalid transfer ID %q", args[0])
		}

		return showBlocks(ctx, jnl, id)
	}

	limit, _ := cmd.Flags().GetInt("limit")

	records, err := jnl.ListTransfers(ctx, limit)
	if err != nil {
		return err
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(records)
	}

	if len(records) == 0 {
		statusf("No transfers recorded\n")
		return nil
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			string(r.Kind),
			r.Container + "/" + r.BlobName,
			formatSize(r.TotalBytes),
			r.Status,
			formatTime(r.FinishedAt),
		}
	}

	printTable(os.Stdout, []string{"ID", "KIND", "BLOB", "SIZE", "STATUS", "FINISHED"}, rows)

	return nil
}

func showBlocks(ctx context.Context, jnl *journal.Journal, id int64) error {
	blocks, err := jnl.ListBlocks(ctx, id)
	if err != nil {
		return err
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(blocks)
	}

	if len(blocks) == 0 {
		statusf("No blocks recorded for transfer %d\n", id)
		return nil
	}

	rows := make([][]string, len(blocks))
	for i, b := range blocks {
		rows[i] = []string{
			strconv.Itoa(b.ChunkIndex),
			b.BlockID,
			strconv.FormatInt(b.Offset, 10),
			formatSize(b.Length),
			strconv.Itoa(b.Attempts),
			strconv.Itoa(b.Transport),
			strconv.Itoa(b.HTTP),
		}
	}

	printTable(os.Stdout,
		[]string{"CHUNK", "BLOCK ID", "OFFSET", "SIZE", "ATTEMPTS", "TRANSPORT", "HTTP"}, rows)

	return nil
}
