package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"NewsRanker/internal/freshness"
	"NewsRanker/internal/ports"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	seenTable = "seen_urls"

	// Rows per INSERT statement; keeps sqlite well under its variable limit.
	insertBatch = 300
)

const createSeenTable = `CREATE TABLE IF NOT EXISTS seen_urls (
	vertical    TEXT NOT NULL,
	report_date TEXT NOT NULL,
	url         TEXT NOT NULL,
	PRIMARY KEY (vertical, report_date, url)
)`

// SQLSeenStore persists seen state in a relational database, one row per
// reported URL.
type SQLSeenStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.SeenStore = (*SQLSeenStore)(nil)

// OpenSQLSeenStore connects to driver/dsn and ensures the schema exists.
// For sqlite the dsn is a file path whose directory is created if needed.
func OpenSQLSeenStore(ctx context.Context, driver, dsn string) (*SQLSeenStore, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported state driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	store := NewSQLSeenStore(db, driver)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLSeenStore wraps an existing connection. driver selects the
// placeholder style.
func NewSQLSeenStore(db *sql.DB, driver string) *SQLSeenStore {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &SQLSeenStore{db: db, builder: sq.StatementBuilder.PlaceholderFormat(format)}
}

// Migrate creates the seen_urls table when missing.
func (s *SQLSeenStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSeenTable); err != nil {
		return fmt.Errorf("create %s: %w", seenTable, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQLSeenStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns every stored date of vertical.
func (s *SQLSeenStore) Load(ctx context.Context, vertical string) (freshness.SeenState, error) {
	query, args, err := s.builder.
		Select("report_date", "url").
		From(seenTable).
		Where(sq.Eq{"vertical": vertical}).
		OrderBy("report_date", "url").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seen urls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	state := freshness.SeenState{}
	for rows.Next() {
		var date, url string
		if err := rows.Scan(&date, &url); err != nil {
			return nil, fmt.Errorf("scan seen url: %w", err)
		}
		day := state[date]
		day.URLs = append(day.URLs, url)
		state[date] = day
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return state, nil
}

// Save replaces the stored state of vertical in one transaction.
func (s *SQLSeenStore) Save(ctx context.Context, vertical string, state freshness.SeenState) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	query, args, err := s.builder.Delete(seenTable).Where(sq.Eq{"vertical": vertical}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear seen urls: %w", err)
	}

	insert := s.newInsert()
	pending := 0
	flush := func() error {
		if pending == 0 {
			return nil
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert seen urls: %w", err)
		}
		insert, pending = s.newInsert(), 0
		return nil
	}

	for _, date := range state.Dates() {
		written := make(map[string]struct{}, len(state[date].URLs))
		for _, url := range state[date].URLs {
			if _, dup := written[url]; dup || url == "" {
				continue
			}
			written[url] = struct{}{}
			insert = insert.Values(vertical, date, url)
			pending++
			if pending == insertBatch {
				if err = flush(); err != nil {
					return err
				}
			}
		}
	}
	if err = flush(); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLSeenStore) newInsert() sq.InsertBuilder {
	return s.builder.Insert(seenTable).Columns("vertical", "report_date", "url")
}
