// Package store opens the configured database, applies its schema and
// returns the matching task repository.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"scheduled-tasks/internal/store/postgres"
	"scheduled-tasks/internal/store/sqlite"
	"scheduled-tasks/internal/task"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Repository is a task.Repository that can also report database liveness.
type Repository interface {
	task.Repository
	Ping(ctx context.Context) error
}

type Store struct {
	DB    *sql.DB
	Tasks Repository
}

// Open connects, pings and migrates. Any failure closes the pool; callers
// treat it as fatal.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
	case DriverSQLite:
		db, err = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	s := &Store{DB: db}
	switch driver {
	case DriverPostgres:
		db.SetMaxOpenConns(5)
		err = postgres.Migrate(ctx, db)
		s.Tasks = postgres.NewTaskRepo(db, nil)
	case DriverSQLite:
		err = sqlite.Migrate(ctx, db)
		s.Tasks = sqlite.NewTaskRepo(db, nil)
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}
