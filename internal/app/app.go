package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"todolist/internal/cache"
	"todolist/internal/config"
	"todolist/internal/handlers"
	"todolist/internal/middleware"
	"todolist/internal/repo"
	"todolist/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type App struct {
	cfg    config.Config
	logger *log.Logger
	mongo  *mongo.Client
	db     *pgxpool.Pool
	redis  *redis.Client
	router *gin.Engine
}

// New connects the configured store (and Redis, when enabled) before any
// request is accepted, then builds the router.
func New(cfg config.Config, logger *log.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	todoRepo, err := a.openStore()
	if err != nil {
		return nil, err
	}

	var todoCache *cache.TodoCache
	if cfg.Redis.Enabled() {
		rdb, err := newRedis(cfg.Redis)
		if err != nil {
			_ = a.Close(context.Background())
			return nil, err
		}
		a.redis = rdb
		todoCache = cache.NewTodoCache(rdb, cfg.Redis.DefaultTTL.Duration())
		logger.Info("redis list cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.DefaultTTL.Duration())
	}

	a.router = NewRouter(cfg, logger, todoRepo, todoCache)
	return a, nil
}

func (a *App) openStore() (repo.TodoRepo, error) {
	switch a.cfg.Store.Driver {
	case config.DriverPostgres:
		if err := runMigrations(a.cfg.PG.DSN, a.logger); err != nil {
			return nil, err
		}
		db, err := newPostgres(a.cfg.PG.DSN, a.logger)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.logger.Info("store ready", "driver", "postgres")
		return repo.NewPGTodoRepo(db), nil
	case config.DriverMemory:
		a.logger.Warn("store ready", "driver", "memory", "note", "data is lost on restart")
		return repo.NewMemoryTodoRepo(), nil
	default:
		client, err := newMongo(a.cfg.Mongo, a.logger)
		if err != nil {
			return nil, err
		}
		a.mongo = client
		dbName := mongoDatabaseName(a.cfg.Mongo)
		r := repo.NewMongoTodoRepo(client.Database(dbName).Collection(a.cfg.Mongo.Collection))
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Mongo.Timeout.Duration())
		defer cancel()
		if err := r.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			a.mongo = nil
			return nil, err
		}
		a.logger.Info("store ready", "driver", "mongo", "database", dbName, "collection", a.cfg.Mongo.Collection)
		return r, nil
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			return fmt.Errorf("mongo disconnect: %w", err)
		}
	}
	return nil
}

// NewRouter builds the HTTP surface over any TodoRepo. todoCache may be nil.
func NewRouter(cfg config.Config, logger *log.Logger, todoRepo repo.TodoRepo, todoCache *cache.TodoCache) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		cors.New(corsConfig(cfg.CORS)),
	)

	todoSvc := service.NewTodoService(todoRepo, todoCache)
	todoHandler := handlers.NewTodoHandler(todoSvc, logger, !cfg.App.IsProduction())
	Setup(r, cfg, todoHandler)
	return r
}

func corsConfig(c config.CORSConfig) cors.Config {
	allowAll := c.AllowAll()
	allowed := make(map[string]bool)
	for _, o := range c.Origins() {
		allowed[o] = true
	}
	return cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowAll || allowed[strings.TrimRight(origin, "/")]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
