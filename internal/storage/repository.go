// Package storage keeps a local SQLite mirror of upstream transactions so
// comparisons can run offline.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"confronto/internal/core"
	"confronto/internal/sources"

	_ "modernc.org/sqlite"
)

// timestampFormat has a fixed width so stored timestamps sort as text.
const timestampFormat = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ sources.TransactionSource = (*SQLiteRepository)(nil)
	_ sources.TransactionWriter = (*SQLiteRepository)(nil)
)

// SyncRun records one mirror refresh of a date range.
type SyncRun struct {
	ID         uuid.UUID
	Start      core.Date
	End        core.Date
	Fetched    int
	Stored     int
	StartedAt  time.Time
	FinishedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite mirror ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FetchTransactions implements sources.TransactionSource.
func (r *SQLiteRepository) FetchTransactions(ctx context.Context, start, end core.Date) ([]core.RawTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source_id, date, amount, payee, currency, exclude_from_totals, is_income
		FROM transactions
		WHERE date BETWEEN ? AND ?
		ORDER BY date, row_id`,
		start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.RawTransaction
	for rows.Next() {
		var (
			id              sql.NullInt64
			tx              core.RawTransaction
			amount          string
			exclude, income bool
		)
		if err := rows.Scan(&id, &tx.Date, &amount, &tx.Payee, &tx.Currency, &exclude, &income); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("%w: stored amount %q", core.ErrMalformedRecord, amount)
		}
		tx.ID = id.Int64
		tx.ExcludeFromTotals = core.Flag(exclude)
		tx.IsIncome = core.Flag(income)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// ReplaceRange implements sources.TransactionWriter. The stored rows dated
// within [start, end] are swapped for txs in one transaction; records of
// txs dated outside the range are skipped.
func (r *SQLiteRepository) ReplaceRange(ctx context.Context, start, end core.Date, txs []core.RawTransaction) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbtx.Rollback()

	res, err := dbtx.ExecContext(ctx, `DELETE FROM transactions WHERE date BETWEEN ? AND ?`, start.String(), end.String())
	if err != nil {
		return fmt.Errorf("delete range: %w", err)
	}
	deleted, _ := res.RowsAffected()

	stmt, err := dbtx.PrepareContext(ctx, `
		INSERT INTO transactions (source_id, date, amount, payee, currency, exclude_from_totals, is_income, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	syncedAt := r.now().UTC().Format(time.RFC3339)
	inserted, skipped := 0, 0
	for i, tx := range txs {
		d, err := core.ParseRecordDate(tx.Date)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if d.Before(start) || d.After(end) {
			skipped++
			continue
		}
		var id sql.NullInt64
		if tx.ID != 0 {
			id = sql.NullInt64{Int64: tx.ID, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, d.String(), tx.Amount.String(), tx.Payee, tx.Currency,
			bool(tx.ExcludeFromTotals), bool(tx.IsIncome), syncedAt); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
		inserted++
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transactions mirrored to SQLite",
		"start", start.String(),
		"end", end.String(),
		"deleted", deleted,
		"inserted", inserted,
		"skipped_out_of_range", skipped)
	return nil
}

// RecordSync stores a completed sync run.
func (r *SQLiteRepository) RecordSync(ctx context.Context, run SyncRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, range_start, range_end, fetched, stored, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Start.String(), run.End.String(), run.Fetched, run.Stored,
		run.StartedAt.UTC().Format(timestampFormat), run.FinishedAt.UTC().Format(timestampFormat))
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

// LastSync returns the most recently finished sync run, or nil when the
// mirror has never been synced.
func (r *SQLiteRepository) LastSync(ctx context.Context) (*SyncRun, error) {
	var (
		run                  SyncRun
		id, start, end       string
		startedAt, finishedAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, range_start, range_end, fetched, stored, started_at, finished_at
		FROM sync_runs
		ORDER BY finished_at DESC
		LIMIT 1`).Scan(&id, &start, &end, &run.Fetched, &run.Stored, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last sync: %w", err)
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse sync id: %w", err)
	}
	if run.Start, err = core.ParseDate(start); err != nil {
		return nil, fmt.Errorf("parse sync start: %w", err)
	}
	if run.End, err = core.ParseDate(end); err != nil {
		return nil, fmt.Errorf("parse sync end: %w", err)
	}
	if run.StartedAt, err = time.Parse(timestampFormat, startedAt); err != nil {
		return nil, fmt.Errorf("parse sync start time: %w", err)
	}
	if run.FinishedAt, err = time.Parse(timestampFormat, finishedAt); err != nil {
		return nil, fmt.Errorf("parse sync finish time: %w", err)
	}
	return &run, nil
}

// Count returns the number of mirrored transactions.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}
