// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, and the
// JSON1 functions (json_each, json_group_array) are built in. The links
// table relies on them for folder membership.
//
// One *DB owns the connection pool; Users(), Links() and Folders() return
// thin per-table views over it that implement the repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/chankruze/liber/internal/apperror"
	"github.com/chankruze/liber/internal/repository"
	"github.com/chankruze/liber/internal/repository/sqlite/migrations"
)

// DB wraps a sql.DB connection pool.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New opens the SQLite database at dbPath and runs the embedded migrations.
//
// dbPath examples:
//   - "data/liber.db" → file-based database (persistent)
//   - ":memory:"      → in-memory database (tests; lost on close)
func New(ctx context.Context, dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite serialises writers anyway. A single connection also keeps a
	// ":memory:" database alive and shared for the lifetime of the pool.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return newFromConn(conn), nil
}

// newFromConn wraps an already-open pool without migrating it. Tests use it
// with go-sqlmock.
func newFromConn(conn *sql.DB) *DB {
	return &DB{
		conn: conn,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// migrate applies the goose migrations embedded in the migrations package.
func migrate(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.UpContext(ctx, conn, ".")
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the users table view.
func (db *DB) Users() *UserDB { return &UserDB{db} }

// Links returns the links table view.
func (db *DB) Links() *LinkDB { return &LinkDB{db} }

// Folders returns the folders table view.
func (db *DB) Folders() *FolderDB { return &FolderDB{db} }

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// acknowledged turns a zero-row insert into repository.ErrNotAcknowledged.
func acknowledged(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotAcknowledged
	}
	return nil
}

// affectedOrNotFound maps a zero-row update or delete to a NotFound error.
func affectedOrNotFound(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// limitOffset converts ListOptions to SQLite LIMIT/OFFSET arguments.
// LIMIT -1 means no limit.
func limitOffset(opts repository.ListOptions) (int, int) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
