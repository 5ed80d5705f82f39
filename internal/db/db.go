package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavour spoken by the underlying driver.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
}

// Options configures the connection pool.
type Options struct {
	Dialect Dialect
	// DSN is a file path (or ":memory:") for SQLite and a connection URL for Postgres.
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// DB is the shared storage client. It owns the connection pool; callers
// construct it once with Open and release it with Close.
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// Open opens a pooled database connection and verifies it is reachable.
func Open(ctx context.Context, opts Options) (*DB, error) {
	var (
		driver string
		dsn    string
	)
	switch opts.Dialect {
	case SQLite, "":
		opts.Dialect = SQLite
		driver = "sqlite"
		dsn = sqliteDSN(opts.DSN)
	case Postgres:
		driver = "pgx"
		dsn = opts.DSN
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", opts.Dialect)
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if opts.Dialect == SQLite && isMemory(opts.DSN) {
		// Every connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
	} else if opts.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxIdleTime > 0 && !isMemory(opts.DSN) {
		conn.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
	if opts.ConnMaxLifetime > 0 && !isMemory(opts.DSN) {
		conn.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{DB: conn, Dialect: opts.Dialect}, nil
}

// OpenSQLite opens a SQLite database at path with default pool settings.
func OpenSQLite(path string) (*DB, error) {
	return Open(context.Background(), Options{Dialect: SQLite, DSN: path})
}

func sqliteDSN(path string) string {
	params := make([]string, 0, len(sqlitePragmas)+1)
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+p)
	}
	params = append(params, "_time_format=sqlite")
	return path + "?" + strings.Join(params, "&")
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
