package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/localstore"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/config"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

// application is the fully wired server. Close releases everything in
// reverse order of acquisition.
type application struct {
	router   *gin.Engine
	sessions *services.SessionManager
	closers  []func() error
}

func (a *application) Close() error {
	if a.sessions != nil {
		a.sessions.CloseAll()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

type backends struct {
	users     domain.UserRepository
	documents domain.DocumentStore
	blobs     domain.BlobStore
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *application, err error) {
	app := &application{}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	rdb := connectRedis(ctx, cfg, logger)
	if rdb != nil {
		app.closers = append(app.closers, rdb.Close)
	}

	var db *sqlx.DB
	urls := repository.NewBlobURLs(cfg.PublicBaseURL)

	var b backends
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err = repository.Connect(ctx, cfg.DB.Driver, cfg.DB.DSN())
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, db.Close)

		if err = repository.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		b = postgresBackends(db, rdb, urls, logger)
		logger.Info("database connected", zap.String("driver", cfg.DB.Driver))

	case config.StorageMemory:
		b = backends{
			users:     repository.NewInMemoryUserRepository(),
			documents: repository.NewMemoryDocumentStore(),
			blobs:     repository.NewMemoryBlobStore(urls),
		}
		logger.Warn("using in-memory storage, data is lost on restart")
	}

	local, err := localstore.OpenSQLite(cfg.LocalStore)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, local.Close)

	calendar := domain.NewCalendar(nil)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL, b.users)

	app.sessions = services.NewSessionManager(context.Background(), services.SyncDeps{
		Store:    b.documents,
		Blobs:    b.blobs,
		Local:    local,
		Calendar: calendar,
		Logger:   logger,
	})

	app.router = adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:      adapterHTTP.NewAuthHandler(services.NewAuthService(b.users), tokens, app.sessions),
		ChallengeHandler: adapterHTTP.NewChallengeHandler(),
		HabitHandler:     adapterHTTP.NewHabitHandler(),
		StatsHandler:     adapterHTTP.NewStatsHandler(calendar),
		BlobHandler:      adapterHTTP.NewBlobHandler(b.blobs),
		TokenService:     tokens,
		Sessions:         app.sessions,
		DB:               db,
		Redis:            rdb,
		RateLimit:        cfg.RateLimit,
		Logger:           logger,
		StartTime:        time.Now(),
	})

	return app, nil
}

// postgresBackends layers the Redis cache and pub/sub over Postgres when
// Redis is available. Without it, change notifications stay in-process.
func postgresBackends(db *sqlx.DB, rdb *redis.Client, urls repository.BlobURLs, logger *zap.Logger) backends {
	var documents domain.DocumentStore
	if rdb != nil {
		notifier := cache.NewRedisNotifier(rdb, logger)
		documents = repository.NewCachedDocumentStore(
			repository.NewPostgresDocumentStore(db, notifier, logger), rdb, notifier, logger)
	} else {
		documents = repository.NewPostgresDocumentStore(db, repository.NewLocalNotifier(), logger)
	}

	return backends{
		users:     repository.NewPostgresUserRepository(db),
		documents: documents,
		blobs:     repository.NewPostgresBlobStore(db, urls),
	}
}

// connectRedis returns nil when Redis is disabled or unreachable; the cache,
// cross-instance notifications and the rate limiter are then off.
func connectRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	rdb, err := cache.NewRedisClient(ctx, cache.Options{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("redis unavailable, continuing without cache and rate limiting", zap.Error(err))
		return nil
	}
	logger.Info("redis connected", zap.String("addr", rdb.Options().Addr))
	return rdb
}
