package app

import (
	"context"
	"log"
	"log/slog"
	"time"

	"Gin_postgres_redis_tickets/config"
	"Gin_postgres_redis_tickets/db"

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
	RDB    *redis.Client // 未配置 REDIS_ADDR 时为 nil
	Config config.Config
	Log    *slog.Logger
}

func MustNew(cfg config.Config, logger *slog.Logger) *App {
	// --- DB: Postgres ---
	dbConn := db.ConnectDB(cfg.DB)

	// --- Redis ---
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: 0})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
	} else {
		logger.Info("REDIS_ADDR not set, qr cache disabled")
	}

	return &App{
		Router: NewRouter(cfg.WebOrigin, logger),
		DB:     dbConn, RDB: rdb, Config: cfg, Log: logger,
	}
}

// NewRouter builds the gin engine with recovery, request logging and CORS.
func NewRouter(webOrigin string, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))
	useCORS(r, webOrigin)
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
