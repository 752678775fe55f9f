package state

import (
	"context"
	"database/sql"

	"github.com/llehouerou/waveplug/internal/queue"
)

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	DB() *sql.DB
	SaveBatch(ctx context.Context, source string, entries []queue.Entry) (string, error)
	LoadBatch(ctx context.Context, id string) (*Batch, error)
	Batches(ctx context.Context) ([]BatchInfo, error)
	DeleteBatch(ctx context.Context, id string) error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
