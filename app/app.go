package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"toolbank/config"
	"toolbank/db"
	"toolbank/locker"
	"toolbank/ports"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client // nil without REDIS_ADDR
	Locker ports.Locker
	Config *config.Config
	Log    *slog.Logger
}

// New connects the database (and redis when configured), migrates, and
// builds the router with the shared middleware chain.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	dbConn, err := db.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(dbConn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("database connected", "driver", cfg.Database.Driver)

	a := &App{DB: dbConn, Config: cfg, Log: log}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.RDB = rdb
		a.Locker = locker.NewRedisLocker(rdb, cfg.Redis.LockTTL)
		log.Info("redis locks enabled", "addr", cfg.Redis.Addr)
	} else {
		a.Locker = locker.NewLocalLocker()
		log.Info("redis not configured, using in-process locks")
	}

	a.Router = NewRouter(cfg, log)
	return a, nil
}

func MustNew(ctx context.Context, cfg *config.Config, log *slog.Logger) *App {
	a, err := New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		panic(err)
	}
	return a
}

// NewRouter builds the gin engine with recovery, request ids, access logs,
// CORS and the optional rate limit.
func NewRouter(cfg *config.Config, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(log))
	useCORS(r, cfg.HTTP.CORSOrigins)
	if cfg.RateLimit.RPS > 0 {
		r.Use(RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	return r
}

func (a *App) Close() {
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
