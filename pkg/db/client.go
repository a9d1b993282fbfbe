// Package db opens the receipt database, postgres in deployed environments
// and sqlite for local runs and tests.
package db

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/flashmarket/storefront/pkg/config"
	"github.com/flashmarket/storefront/pkg/logger"
)

// Client owns the gorm handle and its pool.
type Client struct {
	conn    *gorm.DB
	dialect string
}

// New opens the database described by cfg and applies the pool limits.
// Queries slower than cfg.SlowQuery are logged through logg.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}
	dialect := config.DBDriverPostgres
	if cfg.Driver == config.DBDriverSQLite {
		dialect = config.DBDriverSQLite
	}

	conn, err := gorm.Open(openDialector(dialect, cfg.DSN), &gorm.Config{
		Logger:                 newQueryLogger(logg, cfg.SlowQuery),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	c := &Client{conn: conn, dialect: dialect}
	if err := c.configurePool(cfg); err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"db_driver":      dialect,
			"max_open_conns": cfg.MaxOpenConns,
		}), "db.connected")
	}
	return c, nil
}

// NewFromGorm wraps an open connection; tests use it with in-memory sqlite.
func NewFromGorm(conn *gorm.DB) *Client {
	return &Client{conn: conn, dialect: conn.Dialector.Name()}
}

func openDialector(dialect, dsn string) gorm.Dialector {
	if dialect == config.DBDriverSQLite {
		return sqlite.Open(dsn)
	}
	// pgbouncer in transaction mode cannot hold prepared statements.
	return postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true})
}

func (c *Client) configurePool(cfg config.DBConfig) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	if c.dialect == config.DBDriverSQLite {
		// One writer at a time; extra connections only produce SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
		return nil
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return nil
}

func (c *Client) Dialect() string { return c.dialect }

func (c *Client) DB() *gorm.DB { return c.conn }

// Ping backs the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
