package state

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/llehouerou/waveplug/internal/meta"
	"github.com/llehouerou/waveplug/internal/queue"
)

// setupTestDB creates an in-memory SQLite database with the schema initialized.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to set pragma: %v", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		t.Fatalf("failed to init schema: %v", err)
	}

	return db
}

func openTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func sampleEntries() []queue.Entry {
	return []queue.Entry{
		{
			URL: "/music/album.flac",
			Meta: []meta.Pair{
				{Name: meta.Album, Value: "Album"},
				{Name: meta.Title, Value: "One"},
			},
			To:        4 * time.Minute,
			Duration:  4 * time.Minute,
			Finalized: true,
		},
		{
			URL:       "/music/album.flac",
			Meta:      []meta.Pair{{Name: meta.Title, Value: "Two"}},
			From:      4 * time.Minute,
			Finalized: true,
		},
		{URL: "http://radio.example/stream"},
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := initSchema(db); err != nil {
		t.Fatalf("second initSchema() error = %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		t.Fatalf("query schema_version: %v", err)
	}
	if count != 1 {
		t.Errorf("schema_version rows = %d, want 1", count)
	}
}

func TestSaveAndLoadBatch(t *testing.T) {
	m := openTestManager(t)
	ctx := context.Background()
	entries := sampleEntries()

	id, err := m.SaveBatch(ctx, "album.cue", entries)
	if err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}
	if id == "" {
		t.Fatal("SaveBatch() returned empty id")
	}

	b, err := m.LoadBatch(ctx, id)
	if err != nil {
		t.Fatalf("LoadBatch() error = %v", err)
	}
	if b.Source != "album.cue" {
		t.Errorf("Source = %q, want album.cue", b.Source)
	}
	if b.Count != 3 {
		t.Errorf("Count = %d, want 3", b.Count)
	}
	if len(b.Entries) != len(entries) {
		t.Fatalf("len(Entries) = %d, want %d", len(b.Entries), len(entries))
	}
	for i := range entries {
		got, want := b.Entries[i], entries[i]
		if got.URL != want.URL || got.From != want.From || got.To != want.To ||
			got.Duration != want.Duration || got.Finalized != want.Finalized {
			t.Errorf("Entries[%d] = %+v, want %+v", i, got, want)
		}
		if len(got.Meta) != len(want.Meta) {
			t.Errorf("Entries[%d].Meta = %v, want %v", i, got.Meta, want.Meta)
			continue
		}
		for j := range want.Meta {
			if got.Meta[j] != want.Meta[j] {
				t.Errorf("Entries[%d].Meta[%d] = %v, want %v", i, j, got.Meta[j], want.Meta[j])
			}
		}
	}
}

func TestSaveBatch_Empty(t *testing.T) {
	m := openTestManager(t)
	ctx := context.Background()

	id, err := m.SaveBatch(ctx, "empty.m3u", nil)
	if err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}
	b, err := m.LoadBatch(ctx, id)
	if err != nil {
		t.Fatalf("LoadBatch() error = %v", err)
	}
	if len(b.Entries) != 0 {
		t.Errorf("len(Entries) = %d, want 0", len(b.Entries))
	}
}

func TestSaveBatch_EmptySourceIsNull(t *testing.T) {
	m := openTestManager(t)
	ctx := context.Background()

	id, err := m.SaveBatch(ctx, "", sampleEntries()[:1])
	if err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}

	var isNull bool
	if err := m.DB().QueryRow("SELECT source IS NULL FROM queue_batches WHERE id = ?", id).Scan(&isNull); err != nil {
		t.Fatalf("query source: %v", err)
	}
	if !isNull {
		t.Error("empty source should be stored as NULL")
	}

	b, err := m.LoadBatch(ctx, id)
	if err != nil {
		t.Fatalf("LoadBatch() error = %v", err)
	}
	if b.Source != "" {
		t.Errorf("Source = %q, want empty", b.Source)
	}
	batches, err := m.Batches(ctx)
	if err != nil {
		t.Fatalf("Batches() error = %v", err)
	}
	if len(batches) != 1 || batches[0].Source != "" {
		t.Errorf("Batches() = %+v, want one batch with empty source", batches)
	}
}

func TestLoadBatch_NotFound(t *testing.T) {
	m := openTestManager(t)

	_, err := m.LoadBatch(context.Background(), "missing")
	if !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("LoadBatch() error = %v, want ErrBatchNotFound", err)
	}
}

func TestBatches_NewestFirst(t *testing.T) {
	m := openTestManager(t)
	ctx := context.Background()

	first, err := m.SaveBatch(ctx, "a.m3u", sampleEntries()[:1])
	if err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}
	second, err := m.SaveBatch(ctx, "b.cue", sampleEntries())
	if err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}

	batches, err := m.Batches(ctx)
	if err != nil {
		t.Fatalf("Batches() error = %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("len(Batches()) = %d, want 2", len(batches))
	}
	if batches[0].ID != second || batches[1].ID != first {
		t.Errorf("Batches() order = [%s %s], want [%s %s]", batches[0].ID, batches[1].ID, second, first)
	}
	if batches[0].Count != 3 || batches[1].Count != 1 {
		t.Errorf("counts = [%d %d], want [3 1]", batches[0].Count, batches[1].Count)
	}
}

func TestDeleteBatch(t *testing.T) {
	m := openTestManager(t)
	ctx := context.Background()

	id, err := m.SaveBatch(ctx, "a.cue", sampleEntries())
	if err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}
	if err := m.DeleteBatch(ctx, id); err != nil {
		t.Fatalf("DeleteBatch() error = %v", err)
	}

	if _, err := m.LoadBatch(ctx, id); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("LoadBatch() after delete error = %v, want ErrBatchNotFound", err)
	}
	var rows int
	if err := m.DB().QueryRow("SELECT COUNT(*) FROM queue_meta").Scan(&rows); err != nil {
		t.Fatalf("count queue_meta: %v", err)
	}
	if rows != 0 {
		t.Errorf("queue_meta rows = %d, want 0", rows)
	}
	if err := m.DeleteBatch(ctx, id); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("second DeleteBatch() error = %v, want ErrBatchNotFound", err)
	}
}

func TestSaveBatch_CancelledContext(t *testing.T) {
	m := openTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.SaveBatch(ctx, "a.cue", sampleEntries()); err == nil {
		t.Fatal("SaveBatch() with cancelled context should fail")
	}

	batches, err := m.Batches(context.Background())
	if err != nil {
		t.Fatalf("Batches() error = %v", err)
	}
	if len(batches) != 0 {
		t.Errorf("len(Batches()) = %d, want 0", len(batches))
	}
}

func TestMock(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	a, _ := m.SaveBatch(ctx, "a", sampleEntries()[:1])
	b, _ := m.SaveBatch(ctx, "b", sampleEntries())

	batches, _ := m.Batches(ctx)
	if len(batches) != 2 || batches[0].ID != b || batches[1].ID != a {
		t.Errorf("Batches() = %+v, want newest first", batches)
	}
	got, err := m.LoadBatch(ctx, b)
	if err != nil || len(got.Entries) != 3 {
		t.Errorf("LoadBatch() = %+v, %v", got, err)
	}
	if err := m.DeleteBatch(ctx, a); err != nil {
		t.Errorf("DeleteBatch() error = %v", err)
	}
	if _, err := m.LoadBatch(ctx, a); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("LoadBatch() error = %v, want ErrBatchNotFound", err)
	}
	_ = m.Close()
	if !m.Closed() {
		t.Error("Closed() = false after Close()")
	}
}
