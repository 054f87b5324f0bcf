package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ErrSnapshotNotFound is returned when no snapshot is stored under a key
var ErrSnapshotNotFound = errors.New("database: snapshot not found")

// SnapshotRepository stores serialized progress snapshots by key
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository creates a new repository instance
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// GetSnapshot returns the raw snapshot stored under key
func (r *SnapshotRepository) GetSnapshot(ctx context.Context, key string) ([]byte, error) {
	var data string
	err := r.db.GetContext(ctx, &data, r.db.Rebind("SELECT data FROM progress_snapshots WHERE snapshot_key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get snapshot %q", key)
	}
	return []byte(data), nil
}

// PutSnapshot replaces the snapshot stored under key
func (r *SnapshotRepository) PutSnapshot(ctx context.Context, key string, data []byte) error {
	query := r.db.Rebind(`
		INSERT INTO progress_snapshots (snapshot_key, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (snapshot_key) DO UPDATE SET
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := r.db.ExecContext(ctx, query, key, string(data)); err != nil {
		return errors.Wrapf(err, "failed to put snapshot %q", key)
	}
	return nil
}

// DeleteSnapshot removes the snapshot stored under key
func (r *SnapshotRepository) DeleteSnapshot(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM progress_snapshots WHERE snapshot_key = ?"), key)
	return errors.Wrapf(err, "failed to delete snapshot %q", key)
}
