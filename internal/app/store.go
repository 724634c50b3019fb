package app

import (
	"context"
	"fmt"
	"time"

	"todolist/internal/config"
	"todolist/internal/repo"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/description"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const defaultMongoDatabase = "todoapp"

// newMongo connects and pings. Operations against an unreachable server fail
// after cfg.Timeout (server selection) instead of hanging.
func newMongo(cfg config.MongoConfig, logger *log.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout.Duration()).
		SetRetryWrites(true).
		SetServerMonitor(mongoMonitor(logger))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout.Duration())
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// mongoMonitor logs connection state transitions reported by the driver.
func mongoMonitor(logger *log.Logger) *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerDescriptionChanged: func(e *event.ServerDescriptionChangedEvent) {
			prev, next := e.PreviousDescription.Kind, e.NewDescription.Kind
			switch {
			case prev == description.Unknown && next != description.Unknown:
				logger.Info("mongo: connected", "addr", e.Address.String(), "kind", next.String())
			case prev != description.Unknown && next == description.Unknown:
				logger.Warn("mongo: disconnected", "addr", e.Address.String(), "err", e.NewDescription.LastError)
			}
		},
		ServerClosed: func(e *event.ServerClosedEvent) {
			logger.Info("mongo: server closed", "addr", e.Address.String())
		},
	}
}

// mongoDatabaseName prefers MONGODB_DATABASE, then the URI path.
func mongoDatabaseName(cfg config.MongoConfig) string {
	if cfg.Database != "" {
		return cfg.Database
	}
	cs, err := connstring.ParseAndValidate(cfg.URI)
	if err == nil && cs.Database != "" {
		return cs.Database
	}
	return defaultMongoDatabase
}

func newPostgres(dsn string, logger *log.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		logger.Debug("pg: connection opened", "pid", conn.PgConn().PID())
		return nil
	}
	cfg.BeforeClose = func(conn *pgx.Conn) {
		logger.Debug("pg: connection closed", "pid", conn.PgConn().PID())
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

// runMigrations creates the todos table from the embedded goose files.
func runMigrations(dsn string, logger *log.Logger) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(repo.Migrations)
	goose.SetLogger(logger)
	if err := goose.Up(db, repo.MigrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
