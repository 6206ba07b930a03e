// Package database 提供 PostgreSQL 连接池管理。
//
// 使用 pgxpool 直接管理连接，裸写 SQL (不使用 ORM)。
package database

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comment-utils/delete-spam-comments/internal/config"
	apperrors "github.com/comment-utils/delete-spam-comments/pkg/errors"
	"github.com/comment-utils/delete-spam-comments/pkg/logger"
)

// NewPool 按 settings 创建 PostgreSQL 连接池并 ping 验证。
func NewPool(ctx context.Context, cfg config.DatabaseSettings) (*pgxpool.Pool, error) {
	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperrors.Wrap(err, "Database.NewPool", "create pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeoutSec)*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(err, "Database.NewPool", "ping postgres")
	}

	logger.Debug("postgres pool created",
		logger.FieldMinConns, poolCfg.MinConns,
		logger.FieldMaxConns, poolCfg.MaxConns,
		logger.FieldSchema, cfg.Schema,
	)
	return pool, nil
}

// PoolConfig 把 settings 转为 pgxpool.Config (不建立连接)。
func PoolConfig(cfg config.DatabaseSettings) (*pgxpool.Config, error) {
	if cfg.DSN == "" {
		return nil, apperrors.New("Database.NewPool", "dsn is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, apperrors.Wrap(err, "Database.NewPool", "parse postgres config")
	}

	poolCfg.MinConns = safeInt32(cfg.PoolMinSize, "PoolMinSize")
	poolCfg.MaxConns = safeInt32(cfg.PoolMaxSize, "PoolMaxSize")
	if poolCfg.MaxConns < 1 {
		poolCfg.MaxConns = 1
	}
	if cfg.ConnectTimeoutSec > 0 {
		poolCfg.ConnConfig.ConnectTimeout = time.Duration(cfg.ConnectTimeoutSec) * time.Second
	}

	// AfterConnect: 设置 search_path (Identifier.Sanitize 防止 SQL 注入)
	schema := cfg.Schema
	if schema != "" && schema != "public" {
		poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
	}
	return poolCfg, nil
}

// safeInt32 将 int 安全转为 int32，超出范围时 clamp 并记录警告。
func safeInt32(v int, name string) int32 {
	if v > math.MaxInt32 {
		logger.Warn("pool config overflow, clamped to MaxInt32", logger.FieldField, name, logger.FieldValue, v)
		return math.MaxInt32
	}
	if v < 0 {
		logger.Warn("pool config negative, clamped to 0", logger.FieldField, name, logger.FieldValue, v)
		return 0
	}
	return int32(v)
}
