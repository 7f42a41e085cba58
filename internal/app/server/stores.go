package server

import (
	"context"
	"fmt"

	"hrledger/internal/domain/attendance"
	"hrledger/internal/domain/employee"
	"hrledger/internal/domain/leave"
	"hrledger/internal/platform/config"
	"hrledger/internal/platform/db"
)

// stores bundles the per-driver store implementations behind the domain
// interfaces so nothing above this file knows which database is in use.
type stores struct {
	Employees  employee.Store
	Leaves     leave.Store
	Attendance attendance.Store
	ping       func(ctx context.Context) error
	close      func()
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return stores{}, fmt.Errorf("db connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				pool.Close()
				return stores{}, fmt.Errorf("migrations: %w", err)
			}
		}
		return stores{
			Employees:  employee.NewPGStore(pool),
			Leaves:     leave.NewPGStore(pool),
			Attendance: attendance.NewPGStore(pool),
			ping:       pool.Ping,
			close:      pool.Close,
		}, nil

	case config.DriverSQLite:
		bdb, err := db.OpenSQLite(ctx, cfg.DSN())
		if err != nil {
			return stores{}, err
		}
		if cfg.RunMigrations {
			if err := db.MigrateSQLite(ctx, bdb); err != nil {
				_ = bdb.Close()
				return stores{}, fmt.Errorf("migrations: %w", err)
			}
		}
		return stores{
			Employees:  employee.NewBunStore(bdb),
			Leaves:     leave.NewBunStore(bdb),
			Attendance: attendance.NewBunStore(bdb),
			ping:       bdb.PingContext,
			close:      func() { _ = bdb.Close() },
		}, nil
	}
	return stores{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
}
