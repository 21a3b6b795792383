package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"klaus/internal/domain/keepsake/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS keepsakes (
	user_id       TEXT NOT NULL,
	item_id       TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	full_text     TEXT NOT NULL DEFAULT '',
	type          TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL DEFAULT '',
	author        TEXT NOT NULL DEFAULT '',
	year          TEXT NOT NULL DEFAULT '',
	views         INTEGER NOT NULL DEFAULT 0,
	likes         INTEGER NOT NULL DEFAULT 0,
	thumbnail_url TEXT NOT NULL DEFAULT '',
	video_url     TEXT NOT NULL DEFAULT '',
	external_link TEXT NOT NULL DEFAULT '',
	saved_at      TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, item_id)
);
CREATE INDEX IF NOT EXISTS idx_keepsakes_saved_at ON keepsakes (user_id, saved_at DESC);
`

const upsertStmt = `
	INSERT INTO keepsakes (
		user_id, item_id, title, description, full_text, type, source, author, year,
		views, likes, thumbnail_url, video_url, external_link, saved_at
	) VALUES (
		:user_id, :item_id, :title, :description, :full_text, :type, :source, :author, :year,
		:views, :likes, :thumbnail_url, :video_url, :external_link, :saved_at
	)
	ON CONFLICT (user_id, item_id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		full_text = excluded.full_text,
		type = excluded.type,
		source = excluded.source,
		author = excluded.author,
		year = excluded.year,
		views = excluded.views,
		likes = excluded.likes,
		thumbnail_url = excluded.thumbnail_url,
		video_url = excluded.video_url,
		external_link = excluded.external_link,
		saved_at = excluded.saved_at`

// KeepsakeRepository persists keepsakes in the local store.
type KeepsakeRepository interface {
	Save(ctx context.Context, k model.Keepsake) error
	Remove(ctx context.Context, userID, itemID string) error
	Exists(ctx context.Context, userID, itemID string) (bool, error)
	ListAll(ctx context.Context, userID string) ([]model.Keepsake, error)
	Random(ctx context.Context, userID string) (*model.Keepsake, error)
	Count(ctx context.Context, userID string) (int64, error)
	UpsertAll(ctx context.Context, userID string, items []model.Keepsake) error
}

type keepsakeRepository struct {
	db *sqlx.DB
}

// NewKeepsakeRepository creates the repository and bootstraps the schema.
func NewKeepsakeRepository(db *sqlx.DB) KeepsakeRepository {
	db.MustExec(schema)
	return &keepsakeRepository{db: db}
}

func (r *keepsakeRepository) Save(ctx context.Context, k model.Keepsake) error {
	if _, err := r.db.NamedExecContext(ctx, upsertStmt, k); err != nil {
		return fmt.Errorf("saving keepsake: %w", err)
	}
	return nil
}

func (r *keepsakeRepository) Remove(ctx context.Context, userID, itemID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM keepsakes WHERE user_id = ? AND item_id = ?`, userID, itemID)
	if err != nil {
		return fmt.Errorf("removing keepsake: %w", err)
	}
	return nil
}

func (r *keepsakeRepository) Exists(ctx context.Context, userID, itemID string) (bool, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM keepsakes WHERE user_id = ? AND item_id = ?`, userID, itemID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *keepsakeRepository) ListAll(ctx context.Context, userID string) ([]model.Keepsake, error) {
	var items []model.Keepsake
	err := r.db.SelectContext(ctx, &items,
		`SELECT * FROM keepsakes WHERE user_id = ? ORDER BY saved_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *keepsakeRepository) Random(ctx context.Context, userID string) (*model.Keepsake, error) {
	var k model.Keepsake
	err := r.db.GetContext(ctx, &k,
		`SELECT * FROM keepsakes WHERE user_id = ? ORDER BY RANDOM() LIMIT 1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &k, nil
}

func (r *keepsakeRepository) Count(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM keepsakes WHERE user_id = ?`, userID)
	return count, err
}

// UpsertAll writes a batch of items in one transaction, last write wins
// per id. It is the import path: items already saved but absent from the
// batch are kept, and a failed batch leaves the store untouched.
func (r *keepsakeRepository) UpsertAll(ctx context.Context, userID string, items []model.Keepsake) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting import: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		item.UserID = userID
		if _, err := tx.NamedExecContext(ctx, upsertStmt, item); err != nil {
			return fmt.Errorf("importing keepsake %s: %w", item.ItemID, err)
		}
	}

	return tx.Commit()
}
