// Package store persists a journal of service calls and a small response
// cache. Postgres is used through pgx, everything else through SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "modernc.org/sqlite"             // sqlite driver
)

var ErrNotFound = sql.ErrNoRows

type Dialect string

const (
	Postgres Dialect = "pgx"
	SQLite   Dialect = "sqlite"
)

// DialectFor picks the driver from the DSN shape.
func DialectFor(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects, pings and creates the tables if needed. ":memory:" gives a
// private in-memory SQLite database.
func Open(ctx context.Context, dsn string) (*DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("database url is required")
	}
	d := DialectFor(dsn)
	if d == SQLite && dsn != ":memory:" {
		dsn = filepath.Clean(dsn) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	sqlDB, err := sql.Open(string(d), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", d, err)
	}
	if d == SQLite {
		// One connection keeps :memory: a single database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s db: %w", d, err)
	}
	db := &DB{DB: sqlDB, Dialect: d}
	if err := db.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	idCol := "integer primary key autoincrement"
	if db.Dialect == Postgres {
		idCol = "bigserial primary key"
	}
	stmts := []string{
		`create table if not exists call_journal (
			id ` + idCol + `,
			created_ms bigint not null,
			source text not null,
			service text not null,
			operation text not null,
			input text not null default '',
			output text not null default '',
			error text not null default '',
			duration_ms bigint not null default 0
		)`,
		`create index if not exists call_journal_service on call_journal(service, created_ms)`,
		`create table if not exists response_cache (
			service text not null,
			cache_key text not null,
			body text not null,
			created_ms bigint not null,
			primary key (service, cache_key)
		)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// rebind turns ? placeholders into $n for Postgres.
func (db *DB) rebind(q string) string {
	if db.Dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
