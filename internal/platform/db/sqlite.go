package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database; it lives as long as the
// single pooled connection does.
const MemoryDSN = "file::memory:?_pragma=foreign_keys(1)"

// OpenSQLite returns a bun handle over modernc's pure Go driver. SQLite allows
// one writer at a time, so the pool is pinned to a single connection and
// transactions queue behind each other instead of failing with SQLITE_BUSY.
func OpenSQLite(ctx context.Context, dsn string) (*bun.DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	bdb := bun.NewDB(sqlDB, sqlitedialect.New())
	if err := bdb.PingContext(ctx); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return bdb, nil
}

func MigrateSQLite(ctx context.Context, bdb *bun.DB) error {
	if _, err := bdb.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)"); err != nil {
		return err
	}

	migrations, err := loadMigrations("sqlite")
	if err != nil {
		return err
	}

	for _, m := range migrations {
		var count int
		if err := bdb.NewRaw("SELECT COUNT(1) FROM schema_migrations WHERE version = ?", m.Version).Scan(ctx, &count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		err := bdb.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				return fmt.Errorf("migration %s failed: %w", m.Version, err)
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.Version)
			return err
		})
		if err != nil {
			return err
		}
		slog.Info("migration applied", "version", m.Version, "driver", "sqlite")
	}
	return nil
}

// OpenTestSQLite opens a migrated in-memory database for package tests.
func OpenTestSQLite(ctx context.Context) (*bun.DB, error) {
	bdb, err := OpenSQLite(ctx, MemoryDSN)
	if err != nil {
		return nil, err
	}
	if err := MigrateSQLite(ctx, bdb); err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return bdb, nil
}
