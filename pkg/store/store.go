// Package store keeps feed entries in an append-only table and assigns
// them dense sequence numbers. Writers insert rows without offsets,
// Index numbers them later in one transaction, right before reads that
// depend on offset order.
package store

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // postgres statement dialect
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // sqlite statement dialect
	"github.com/go-pkgz/lgr"
	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

//go:embed schema/*.sql
var schemaFS embed.FS

const defaultTableName = "entries"

// supported database flavors
const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

const (
	colPK          = "id"
	colEntryID     = "entry_id"
	colSeq         = "seq"
	colUpdated     = "updated"
	colContentType = "content_type"
	colContent     = "content"
	colDraft       = "draft"
	colEdited      = "edited"
)

var (
	// ErrEmptyTableName returned for an empty table name option
	ErrEmptyTableName = errors.New("empty table name")
	// ErrInvalidTableName returned for a table name which is not a plain identifier
	ErrInvalidTableName = errors.New("invalid table name")
	// ErrDuplicateID returned when an entry with the same id is already stored
	ErrDuplicateID = errors.New("duplicate entry id")
	// ErrNotFound returned when no entry has the requested id
	ErrNotFound = errors.New("entry not found")

	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Config represents database configuration
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Option defines a functional option for the Store
type Option func(*Store) error

// WithTableName sets the entries table name
func WithTableName(name string) Option {
	return func(s *Store) error {
		if name == "" {
			return ErrEmptyTableName
		}
		if !identRe.MatchString(name) {
			return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
		}
		s.table = name
		return nil
	}
}

// WithRetry sets the number of attempts for operations failing on locked database
func WithRetry(attempts int, delay, maxDelay time.Duration) Option {
	return func(s *Store) error {
		s.retryAttempts, s.retryDelay, s.retryMaxDelay = attempts, delay, maxDelay
		return nil
	}
}

// Store is an append-only entry store with a sequence indexer
type Store struct {
	db      *sqlx.DB
	dialect string
	builder goqu.DialectWrapper
	table   string

	retryAttempts int
	retryDelay    time.Duration
	retryMaxDelay time.Duration

	indexMu sync.Mutex // one Index call in flight per store
}

// New opens the database, applies connection settings and creates the schema.
// DSN with postgres:// or postgresql:// scheme selects postgres, anything else is sqlite.
func New(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{
		table:         defaultTableName,
		retryAttempts: 5,
		retryDelay:    50 * time.Millisecond,
		retryMaxDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if cfg.DSN == "" {
		cfg.DSN = "file:pagefeed.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	driver := "sqlite"
	s.dialect = DialectSQLite
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		driver, s.dialect = "pgx", DialectPostgres
	}
	s.builder = goqu.Dialect(s.dialect)

	dsn := cfg.DSN
	if s.dialect == DialectSQLite {
		dsn = sqliteDSN(cfg.DSN)
		if strings.Contains(cfg.DSN, ":memory:") {
			cfg.MaxOpenConns = 1 // every connection to :memory: is a separate database
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	s.db = db

	if s.dialect == DialectSQLite {
		pragmas := []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
			"PRAGMA temp_store = MEMORY",
		}
		for _, pragma := range pragmas {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("execute %s: %w", pragma, err)
			}
		}
	}

	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	lgr.Printf("[DEBUG] store opened, dialect %s, table %s", s.dialect, s.table)
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect returns the database flavor, DialectSQLite or DialectPostgres
func (s *Store) Dialect() string {
	return s.dialect
}

// DB returns the underlying sqlx.DB connection for direct access if needed
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// initSchema creates the entries table if it doesn't exist
func (s *Store) initSchema(ctx context.Context) error {
	name := "schema/sqlite.sql"
	if s.dialect == DialectPostgres {
		name = "schema/postgres.sql"
	}
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	tmpl, err := template.New("schema").Parse(string(data))
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}
	// table name is validated against identRe, quoting keeps it a single identifier
	var buf bytes.Buffer
	params := struct{ Table, Unindexed string }{Table: quoteIdent(s.table), Unindexed: quoteIdent(s.table + "_unindexed")}
	if err := tmpl.Execute(&buf, params); err != nil {
		return fmt.Errorf("render schema: %w", err)
	}

	for _, stmt := range splitStatements(buf.String()) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

// inTransaction executes a function within a database transaction
func (s *Store) inTransaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w (rollback also failed: %s)", err, rbErr.Error())
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// sqliteDSN adds a busy timeout and immediate write transactions unless the DSN sets them
func sqliteDSN(dsn string) string {
	params := []string{}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_txlock") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// splitStatements splits SQL script by semicolons, dropping comment-only lines
func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			statements = append(statements, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}
