package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/podushkina/taskflow/internal/task"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

const sqlitePrefix = "sqlite://"

type Store struct {
	db *bun.DB
}

// Open connects to the database named by dsn. postgres:// and postgresql:// URLs use
// pgx, sqlite://<path> (including sqlite://:memory:) uses the pure-Go SQLite driver.
func Open(ctx context.Context, dsn string) (*Store, error) {
	var db *bun.DB

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		sqldb.SetMaxOpenConns(10)
		sqldb.SetMaxIdleConns(2)
		sqldb.SetConnMaxIdleTime(5 * time.Minute)
		sqldb.SetConnMaxLifetime(30 * time.Minute)
		db = bun.NewDB(sqldb, pgdialect.New())

	case strings.HasPrefix(dsn, sqlitePrefix):
		path := strings.TrimPrefix(dsn, sqlitePrefix)
		sqldb, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// one connection keeps :memory: databases alive and serializes writers
		sqldb.SetMaxOpenConns(1)
		sqldb.SetConnMaxLifetime(0)
		if path != ":memory:" {
			if _, err := sqldb.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
				sqldb.Close()
				return nil, fmt.Errorf("enable WAL mode: %w", err)
			}
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())

	default:
		return nil, fmt.Errorf("unsupported database url %q", dsn)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tasks table and its filter indexes if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*task.Task)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}

	for _, col := range []string{"status", "priority"} {
		if _, err := s.db.NewCreateIndex().
			Model((*task.Task)(nil)).
			Index("tasks_" + col + "_idx").
			Column(col).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create %s index: %w", col, err)
		}
	}

	return nil
}

func (s *Store) Tasks() *TaskRepository {
	return &TaskRepository{db: s.db, root: s.db}
}
