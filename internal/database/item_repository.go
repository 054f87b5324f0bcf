package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/lettersbot/pkg/models"
)

// ErrItemNotFound is returned when an item id is unknown
var ErrItemNotFound = errors.New("database: item not found")

// ItemRepository handles database operations for items
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// GetAll returns all items ordered by id
func (r *ItemRepository) GetAll(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, "SELECT * FROM items ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "failed to get items")
	}
	return items, nil
}

// GetByID returns an item by id
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	err := r.db.GetContext(ctx, &item, r.db.Rebind("SELECT * FROM items WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get item %q", id)
	}
	return &item, nil
}

// Count returns the number of stored items
func (r *ItemRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM items"); err != nil {
		return 0, errors.Wrap(err, "failed to count items")
	}
	return n, nil
}

// Upsert creates the item or updates the stored one with the same id.
// It reports whether a new row was created.
func (r *ItemRepository) Upsert(ctx context.Context, item *models.Item) (bool, error) {
	_, err := r.GetByID(ctx, item.ID)
	switch {
	case errors.Is(err, ErrItemNotFound):
		return true, r.create(ctx, item)
	case err != nil:
		return false, err
	default:
		return false, r.update(ctx, item)
	}
}

func (r *ItemRepository) create(ctx context.Context, item *models.Item) error {
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO items (id, letter, sound, example, item_group, created_at, updated_at)
		VALUES (:id, :letter, :sound, :example, :item_group, :created_at, :updated_at)
	`, item)
	return errors.Wrapf(err, "failed to create item %q", item.ID)
}

func (r *ItemRepository) update(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE items SET
			letter = :letter,
			sound = :sound,
			example = :example,
			item_group = :item_group,
			updated_at = :updated_at
		WHERE id = :id
	`, item)
	return errors.Wrapf(err, "failed to update item %q", item.ID)
}
