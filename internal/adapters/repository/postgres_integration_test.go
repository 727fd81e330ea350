package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupTestDB(t *testing.T) *sqlx.DB {
	_ = godotenv.Load("../../../.env")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "kanso_user"),
		getEnv("DB_PASSWORD", "secret"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "kanso_db"))

	db, err := Connect(context.Background(), getEnv("DB_DRIVER", "pgx"), dsn)
	if err != nil {
		t.Skipf("Skipping integration tests: database connection failed: %v", err)
	}
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func createTestUser(t *testing.T, repo *PostgresUserRepository) *domain.User {
	t.Helper()
	user, err := domain.NewUser(uuid.NewString(), fmt.Sprintf("test_%s@example.com", uuid.NewString()), "Ada")
	require.NoError(t, err)
	require.NoError(t, user.SetPassword("passwordStrong123"))
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestPostgresUserRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	t.Run("Success: Should create and read back a user", func(t *testing.T) {
		user := createTestUser(t, repo)

		byEmail, err := repo.GetByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, "Ada", byEmail.DisplayName)
		assert.False(t, byEmail.CreatedAt.IsZero())

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
	})

	t.Run("Fail: Duplicate email", func(t *testing.T) {
		user := createTestUser(t, repo)
		dup, err := domain.NewUser(uuid.NewString(), user.Email, "")
		require.NoError(t, err)
		require.NoError(t, dup.SetPassword("passwordStrong123"))

		assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrEmailAlreadyExists)
	})

	t.Run("Fail: Unknown user", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		_, err = repo.GetByEmail(ctx, "nonexistent@ghost.com")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestPostgresDocumentStore_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, NewPostgresUserRepository(db))
	store := NewPostgresDocumentStore(db, NewLocalNotifier(), nil)
	ctx := context.Background()

	t.Run("Success: Merge keeps fields outside the patch", func(t *testing.T) {
		_, err := store.Get(ctx, user.ID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

		require.NoError(t, store.Merge(ctx, user.ID, mustPatch(t, "userName", "Ada")))
		require.NoError(t, store.Merge(ctx, user.ID, mustPatch(t, "startDate", "2025-03-01")))

		data, err := store.Get(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"userName": "Ada", "startDate": "2025-03-01"}, decodeFields(t, data))
	})

	t.Run("Success: Subscribers see committed changes", func(t *testing.T) {
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		events, err := store.Subscribe(subCtx, user.ID)
		require.NoError(t, err)
		first := <-events
		require.True(t, first.Exists)

		require.NoError(t, store.Merge(ctx, user.ID, mustPatch(t, "userName", "Grace")))

		select {
		case ev := <-events:
			require.True(t, ev.Exists)
			assert.Equal(t, "Grace", decodeFields(t, ev.Data)["userName"])
		case <-time.After(3 * time.Second):
			t.Fatal("expected a change event")
		}
	})
}

func TestPostgresBlobStore_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, NewPostgresUserRepository(db))
	store := NewPostgresBlobStore(db, NewBlobURLs("http://localhost:8080"))
	ctx := context.Background()
	key := domain.PhotoKey(user.ID, "2025-03-10", "1_abc_a.jpg")

	url, err := store.Put(ctx, key, "image/jpeg", []byte("img"))
	require.NoError(t, err)

	b, err := store.Open(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), b.Data)
	assert.Equal(t, "image/jpeg", b.ContentType)

	assert.ErrorIs(t, store.Delete(ctx, "someone-else", url), domain.ErrBlobNotFound)
	_, err = store.Open(ctx, key)
	require.NoError(t, err, "a foreign delete must not remove the blob")

	require.NoError(t, store.Delete(ctx, user.ID, url))
	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
	assert.NoError(t, store.Delete(ctx, user.ID, url))
}
