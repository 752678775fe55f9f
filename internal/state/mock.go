package state

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/llehouerou/waveplug/internal/queue"
)

// Mock is an in-memory test double for Manager.
type Mock struct {
	mu      sync.Mutex
	batches []*Batch
	nextID  int
	closed  bool
}

var _ Interface = (*Mock)(nil)

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) DB() *sql.DB { return nil }

func (m *Mock) SaveBatch(_ context.Context, source string, entries []queue.Entry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b := &Batch{
		BatchInfo: BatchInfo{
			ID:        fmt.Sprintf("batch-%d", m.nextID),
			Source:    source,
			CreatedAt: time.Now(),
			Count:     len(entries),
		},
		Entries: append([]queue.Entry(nil), entries...),
	}
	m.batches = append(m.batches, b)
	return b.ID, nil
}

func (m *Mock) LoadBatch(_ context.Context, id string) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.batches {
		if b.ID == id {
			c := *b
			c.Entries = append([]queue.Entry(nil), b.Entries...)
			return &c, nil
		}
	}
	return nil, ErrBatchNotFound
}

func (m *Mock) Batches(_ context.Context) ([]BatchInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]BatchInfo, 0, len(m.batches))
	for i := len(m.batches) - 1; i >= 0; i-- {
		out = append(out, m.batches[i].BatchInfo)
	}
	return out, nil
}

func (m *Mock) DeleteBatch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.batches {
		if b.ID == id {
			m.batches = append(m.batches[:i], m.batches[i+1:]...)
			return nil
		}
	}
	return ErrBatchNotFound
}

func (m *Mock) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	return m.closed
}
