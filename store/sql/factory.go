package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-twitter-token/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const defaultPingTimeout = 5 * time.Second

// PersistenceConfig satisfies the go-persistence-bun client config contract.
type PersistenceConfig struct {
	Driver         string
	DSN            string
	Debug          bool
	PingTimeout    time.Duration
	OtelIdentifier string
}

func (c PersistenceConfig) GetDebug() bool    { return c.Debug }
func (c PersistenceConfig) GetDriver() string { return normalizeDriver(c.Driver) }
func (c PersistenceConfig) GetServer() string { return c.DSN }

func (c PersistenceConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return defaultPingTimeout
	}
	return c.PingTimeout
}

func (c PersistenceConfig) GetOtelIdentifier() string {
	if strings.TrimSpace(c.OtelIdentifier) == "" {
		return "go-twitter-token"
	}
	return c.OtelIdentifier
}

// OpenDB opens a bun DB for the postgres or sqlite3 driver.
func OpenDB(driver string, dsn string) (*bun.DB, error) {
	sqlDB, dialect, err := openSQL(driver, dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqlDB, dialect), nil
}

// OpenPersistence opens a go-persistence-bun client, registers the attempt
// ledger migrations for the driver's dialect and applies them.
func OpenPersistence(ctx context.Context, cfg PersistenceConfig) (*persistence.Client, error) {
	sqlDB, dialect, err := openSQL(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.GetDriver() == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}

	target := migrations.DialectPostgres
	if cfg.GetDriver() == DriverSQLite {
		target = migrations.DialectSQLite
	}
	_, err = migrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != target {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, migrations.WithValidationTargets(target))
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return client, nil
}

// NewAttemptStoreFromPersistence accepts a *bun.DB or anything exposing DB() *bun.DB.
func NewAttemptStoreFromPersistence(client any) (*AttemptStore, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewAttemptStore(db)
}

func openSQL(driver string, dsn string) (*sql.DB, schema.Dialect, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, nil, fmt.Errorf("sqlstore: dsn is required")
	}
	var dialect schema.Dialect
	switch normalizeDriver(driver) {
	case DriverPostgres:
		dialect = pgdialect.New()
	case DriverSQLite:
		dialect = sqlitedialect.New()
	default:
		return nil, nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
	sqlDB, err := sql.Open(normalizeDriver(driver), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	return sqlDB, dialect, nil
}

func normalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pg":
		return DriverPostgres
	case "sqlite", "sqlite3":
		return DriverSQLite
	default:
		return strings.ToLower(strings.TrimSpace(driver))
	}
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
