package state

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	dbutil "github.com/llehouerou/waveplug/internal/db"
	"github.com/llehouerou/waveplug/internal/meta"
	"github.com/llehouerou/waveplug/internal/queue"
)

// ErrBatchNotFound is returned when no batch has the requested ID.
var ErrBatchNotFound = errors.New("queue batch not found")

// BatchInfo describes a saved queue.
type BatchInfo struct {
	ID        string
	Source    string
	CreatedAt time.Time
	Count     int
}

// Batch is a saved queue with its entries.
type Batch struct {
	BatchInfo
	Entries []queue.Entry
}

// SaveBatch stores entries as a new batch and returns its ID.
func (m *Manager) SaveBatch(ctx context.Context, source string, entries []queue.Entry) (string, error) {
	id := uuid.NewString()
	err := dbutil.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO queue_batches (id, source, created_at) VALUES (?, ?, ?)
		`, id, dbutil.NullString(source), time.Now().UnixMilli())
		if err != nil {
			return err
		}

		entryStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO queue_entries (batch_id, position, url, from_ms, to_ms, duration_ms, finalized)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer entryStmt.Close()

		metaStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO queue_meta (batch_id, position, seq, name, value) VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer metaStmt.Close()

		for i, e := range entries {
			_, err = entryStmt.ExecContext(ctx, id, i, e.URL,
				dbutil.NullInt64(e.From.Milliseconds()),
				dbutil.NullInt64(e.To.Milliseconds()),
				dbutil.NullInt64(e.Duration.Milliseconds()),
				e.Finalized)
			if err != nil {
				return err
			}
			for j, p := range e.Meta {
				if _, err := metaStmt.ExecContext(ctx, id, i, j, p.Name, p.Value); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// LoadBatch returns the batch with the given ID.
func (m *Manager) LoadBatch(ctx context.Context, id string) (*Batch, error) {
	var b Batch
	row := m.db.QueryRowContext(ctx, `
		SELECT b.id, b.source, b.created_at,
			(SELECT COUNT(*) FROM queue_entries e WHERE e.batch_id = b.id)
		FROM queue_batches b WHERE b.id = ?
	`, id)
	info, err := scanBatchInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}
	b.BatchInfo = info

	entries, err := loadEntries(ctx, m.db, id, b.Count)
	if err != nil {
		return nil, err
	}
	if err := loadMeta(ctx, m.db, id, entries); err != nil {
		return nil, err
	}
	b.Entries = entries
	return &b, nil
}

func loadEntries(ctx context.Context, db *sql.DB, id string, count int) ([]queue.Entry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT url, from_ms, to_ms, duration_ms, finalized
		FROM queue_entries
		WHERE batch_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]queue.Entry, 0, count)
	for rows.Next() {
		var e queue.Entry
		var from, to, dur sql.NullInt64
		if err := rows.Scan(&e.URL, &from, &to, &dur, &e.Finalized); err != nil {
			return nil, err
		}
		e.From = time.Duration(dbutil.NullInt64Value(from)) * time.Millisecond
		e.To = time.Duration(dbutil.NullInt64Value(to)) * time.Millisecond
		e.Duration = time.Duration(dbutil.NullInt64Value(dur)) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func loadMeta(ctx context.Context, db *sql.DB, id string, entries []queue.Entry) error {
	rows, err := db.QueryContext(ctx, `
		SELECT position, name, value
		FROM queue_meta
		WHERE batch_id = ?
		ORDER BY position, seq
	`, id)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var pos int
		var p meta.Pair
		if err := rows.Scan(&pos, &p.Name, &p.Value); err != nil {
			return err
		}
		if pos >= 0 && pos < len(entries) {
			entries[pos].Meta = append(entries[pos].Meta, p)
		}
	}
	return rows.Err()
}

// Batches lists saved batches, newest first.
func (m *Manager) Batches(ctx context.Context) ([]BatchInfo, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT b.id, b.source, b.created_at,
			(SELECT COUNT(*) FROM queue_entries e WHERE e.batch_id = b.id)
		FROM queue_batches b
		ORDER BY b.created_at DESC, b.rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []BatchInfo
	for rows.Next() {
		b, err := scanBatchInfo(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// scanBatchInfo reads the id, source, created_at and count columns.
func scanBatchInfo(row interface{ Scan(...any) error }) (BatchInfo, error) {
	var b BatchInfo
	var source sql.NullString
	var created int64
	if err := row.Scan(&b.ID, &source, &created, &b.Count); err != nil {
		return BatchInfo{}, err
	}
	b.Source = dbutil.NullStringValue(source)
	b.CreatedAt = time.UnixMilli(created)
	return b, nil
}

// DeleteBatch removes a batch and its entries.
func (m *Manager) DeleteBatch(ctx context.Context, id string) error {
	return dbutil.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM queue_batches WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrBatchNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM queue_meta WHERE batch_id = ?`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM queue_entries WHERE batch_id = ?`, id)
		return err
	})
}
