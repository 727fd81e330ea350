package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

var _ domain.BlobStore = (*PostgresBlobStore)(nil)

type PostgresBlobStore struct {
	db   *sqlx.DB
	urls BlobURLs
}

func NewPostgresBlobStore(db *sqlx.DB, urls BlobURLs) *PostgresBlobStore {
	return &PostgresBlobStore{db: db, urls: urls}
}

func (s *PostgresBlobStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if !ValidBlobKey(key) {
		return "", domain.ErrInvalidBlobRef
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `
		INSERT INTO photo_blobs (key, uid, content_type, data, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (key) DO UPDATE
		SET content_type = EXCLUDED.content_type, data = EXCLUDED.data
	`
	if _, err := s.db.ExecContext(ctx, query, key, BlobOwner(key), contentType, data); err != nil {
		return "", fmt.Errorf("repository: put blob: %w", classify(err))
	}
	return s.urls.URL(key), nil
}

func (s *PostgresBlobStore) Open(ctx context.Context, key string) (*domain.Blob, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var b domain.Blob
	row := s.db.QueryRowxContext(ctx, `SELECT key, content_type, data, created_at FROM photo_blobs WHERE key = $1`, key)
	if err := row.Scan(&b.Key, &b.ContentType, &b.Data, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("repository: open blob: %w", classify(err))
	}
	return &b, nil
}

// Delete is idempotent: deleting a missing blob succeeds. The owner check
// happens on the key, before the database is touched.
func (s *PostgresBlobStore) Delete(ctx context.Context, owner, url string) error {
	key, err := s.urls.OwnedKey(owner, url)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM photo_blobs WHERE key = $1`, key); err != nil {
		return fmt.Errorf("repository: delete blob: %w", classify(err))
	}
	return nil
}
