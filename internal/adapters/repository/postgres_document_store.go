package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

var _ domain.DocumentStore = (*PostgresDocumentStore)(nil)

// PostgresDocumentStore keeps one jsonb document per user. Merges use the
// jsonb concatenation operator so that only top-level fields in the patch
// are replaced.
type PostgresDocumentStore struct {
	db       *sqlx.DB
	notifier ChangeNotifier
	logger   *zap.Logger
}

func NewPostgresDocumentStore(db *sqlx.DB, notifier ChangeNotifier, logger *zap.Logger) *PostgresDocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresDocumentStore{
		db:       db,
		notifier: notifier,
		logger:   logger.With(zap.String("component", "document_store")),
	}
}

func (s *PostgresDocumentStore) Get(ctx context.Context, uid string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var doc []byte
	err := s.db.GetContext(ctx, &doc, `SELECT doc FROM challenge_documents WHERE uid = $1`, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("repository: get document: %w", classify(err))
	}
	return doc, nil
}

func (s *PostgresDocumentStore) Merge(ctx context.Context, uid string, patch domain.DocumentPatch) error {
	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("repository: encode patch: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO challenge_documents (uid, doc, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (uid) DO UPDATE
		SET doc = challenge_documents.doc || EXCLUDED.doc,
		    updated_at = NOW()
	`
	if _, err := s.db.ExecContext(writeCtx, query, uid, string(data)); err != nil {
		return fmt.Errorf("repository: merge document: %w", classify(err))
	}

	if err := s.notifier.Publish(ctx, uid); err != nil {
		s.logger.Warn("failed to publish document change", zap.String("uid", uid), zap.Error(err))
	}
	return nil
}

func (s *PostgresDocumentStore) Subscribe(ctx context.Context, uid string) (<-chan domain.DocumentEvent, error) {
	read := func(ctx context.Context) ([]byte, error) { return s.Get(ctx, uid) }
	return subscribe(ctx, uid, s.notifier, read, read)
}
