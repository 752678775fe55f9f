package state

import (
	"database/sql"
)

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS queue_batches (
			id TEXT PRIMARY KEY,
			source TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_queue_batches_created ON queue_batches(created_at DESC);

		CREATE TABLE IF NOT EXISTS queue_entries (
			batch_id TEXT NOT NULL REFERENCES queue_batches(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			url TEXT NOT NULL,
			from_ms INTEGER,
			to_ms INTEGER,
			duration_ms INTEGER,
			finalized INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (batch_id, position)
		);

		CREATE TABLE IF NOT EXISTS queue_meta (
			batch_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (batch_id, position, seq),
			FOREIGN KEY (batch_id, position) REFERENCES queue_entries(batch_id, position) ON DELETE CASCADE
		);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
