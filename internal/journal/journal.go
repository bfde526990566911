// Package journal persists transfer history in SQLite so interrupted
// or failed transfers can be inspected after the fact. It is the sole
// writer to its database (SetMaxOpenConns(1)) and applies its schema
// with embedded goose migrations.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".

	"github.com/tonimelisma/azblob-go/internal/azure"
	"github.com/tonimelisma/azblob-go/internal/transfer"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Transfer status constants for the transfers.status column.
const (
	statusRunning = "running"
	statusDone    = "done"
	statusFailed  = "failed"
)

// Kind identifies the direction of a journaled transfer.
type Kind string

// Transfer kinds.
const (
	KindUpload   Kind = "upload"
	KindDownload Kind = "download"
)

// Record is one transfer from the transfers table.
type Record struct {
	ID         int64
	Kind       Kind
	Account    string
	Container  string
	BlobName   string
	TotalBytes int64
	Chunks     int
	Workers    int
	Status     string
	Transport  int
	HTTP       int
	ErrorMsg   string
	StartedAt  time.Time
	FinishedAt time.Time
}

// BlockRecord is one chunk outcome from the blocks table.
type BlockRecord struct {
	TransferID int64
	ChunkIndex int
	BlockID    string
	Offset     int64
	Length     int64
	Attempts   int
	Transport  int
	HTTP       int
}

// Journal records transfer outcomes in a SQLite database.
type Journal struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time // injectable for deterministic tests
}

// Open opens (creating if needed) the journal database at dbPath and
// applies pending migrations. The database uses WAL mode with a single
// writer connection.
func Open(dbPath string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// First run: the state directory does not exist yet.
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("journal: creating database directory: %w", err)
	}

	// DSN parameters ensure pragmas apply to every connection.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
		dbPath,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: opening database %s: %w", dbPath, err)
	}

	// Sole-writer pattern: only one connection writes at a time.
	db.SetMaxOpenConns(1)

	if err := runMigrations(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("journal opened", slog.String("db_path", dbPath))

	return &Journal{db: db, logger: logger, nowFunc: time.Now}, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// runMigrations applies all pending schema migrations using the goose
// v3 Provider API (no global state, context-aware).
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("journal: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("journal: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("journal: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Info("applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}

// StartTransfer inserts a running transfer row and returns its ID.
func (j *Journal) StartTransfer(
	ctx context.Context, kind Kind, blob azure.BlobRef, totalBytes int64, chunks, workers int,
) (int64, error) {
	result, err := j.db.ExecContext(ctx,
		`INSERT INTO transfers
			(kind, account, container, blob_name, total_bytes, chunks, workers, started_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(kind), blob.Account, blob.Container, blob.Name,
		totalBytes, chunks, workers, j.nowFunc().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("journal: start transfer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal: start transfer ID: %w", err)
	}

	return id, nil
}

// FinishTransfer marks a running transfer done or failed, recording the
// aggregate status and any error text.
func (j *Journal) FinishTransfer(ctx context.Context, id int64, st azure.Status, transferErr error) error {
	status := statusDone

	var errMsg sql.NullString

	if !st.OK() || transferErr != nil {
		status = statusFailed
	}

	if transferErr != nil {
		errMsg = sql.NullString{String: transferErr.Error(), Valid: true}
	}

	result, err := j.db.ExecContext(ctx,
		`UPDATE transfers
			SET status = ?, transport_code = ?, http_code = ?, error_msg = ?, finished_at = ?
			WHERE id = ? AND status = '`+statusRunning+`'`,
		status, st.Transport, st.HTTP, errMsg, j.nowFunc().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("journal: finish transfer %d: %w", id, err)
	}

	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		return fmt.Errorf("journal: finish transfer %d rows affected: %w", id, rowsErr)
	}

	if rows == 0 {
		return fmt.Errorf("journal: finish transfer %d: transfer not %s", id, statusRunning)
	}

	return nil
}

// RecordBlocks inserts the per-chunk outcomes of a transfer in a single
// transaction.
func (j *Journal) RecordBlocks(ctx context.Context, transferID int64, results []transfer.ChunkResult) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin record blocks: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO blocks
			(transfer_id, chunk_index, block_id, offset, length, attempts, transport_code, http_code)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("journal: prepare record blocks: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		var blockID sql.NullString
		if r.BlockID != "" {
			blockID = sql.NullString{String: r.BlockID, Valid: true}
		}

		_, execErr := stmt.ExecContext(ctx,
			transferID, r.Index, blockID, r.Offset, r.Length,
			r.Attempts, r.Status.Transport, r.Status.HTTP)
		if execErr != nil {
			return fmt.Errorf("journal: record block %d: %w", r.Index, execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit record blocks: %w", err)
	}

	return nil
}

// ListTransfers returns the most recent transfers, newest first.
// limit <= 0 means no limit.
func (j *Journal) ListTransfers(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, kind, account, container, blob_name, total_bytes,
			chunks, workers, status, transport_code, http_code, error_msg,
			started_at, finished_at
		FROM transfers ORDER BY id DESC`

	var args []any

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: list transfers: %w", err)
	}
	defer rows.Close()

	var result []Record

	for rows.Next() {
		r, scanErr := scanTransferRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		result = append(result, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterating transfer rows: %w", err)
	}

	return result, nil
}

// ListBlocks returns the chunk outcomes for one transfer, in chunk order.
func (j *Journal) ListBlocks(ctx context.Context, transferID int64) ([]BlockRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT transfer_id, chunk_index, block_id, offset, length,
			attempts, transport_code, http_code
		FROM blocks WHERE transfer_id = ? ORDER BY chunk_index`, transferID)
	if err != nil {
		return nil, fmt.Errorf("journal: list blocks: %w", err)
	}
	defer rows.Close()

	var result []BlockRecord

	for rows.Next() {
		var (
			b       BlockRecord
			blockID sql.NullString
		)

		if err := rows.Scan(
			&b.TransferID, &b.ChunkIndex, &blockID, &b.Offset, &b.Length,
			&b.Attempts, &b.Transport, &b.HTTP,
		); err != nil {
			return nil, fmt.Errorf("journal: scanning block row: %w", err)
		}

		b.BlockID = blockID.String
		result = append(result, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterating block rows: %w", err)
	}

	return result, nil
}

// scanTransferRow scans a single transfers row, handling nullable
// completion columns.
func scanTransferRow(rows *sql.Rows) (*Record, error) {
	var (
		r          Record
		kind       string
		transport  sql.NullInt64
		httpCode   sql.NullInt64
		errorMsg   sql.NullString
		startedAt  int64
		finishedAt sql.NullInt64
	)

	err := rows.Scan(
		&r.ID, &kind, &r.Account, &r.Container, &r.BlobName, &r.TotalBytes,
		&r.Chunks, &r.Workers, &r.Status, &transport, &httpCode, &errorMsg,
		&startedAt, &finishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: scanning transfer row: %w", err)
	}

	r.Kind = Kind(kind)
	r.ErrorMsg = errorMsg.String
	r.StartedAt = time.Unix(0, startedAt)

	if transport.Valid {
		r.Transport = int(transport.Int64)
	}

	if httpCode.Valid {
		r.HTTP = int(httpCode.Int64)
	}

	if finishedAt.Valid {
		r.FinishedAt = time.Unix(0, finishedAt.Int64)
	}

	return &r, nil
}
