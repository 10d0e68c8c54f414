package store

import (
	"context"
	"time"
)

// Entry is one journaled call.
type Entry struct {
	ID        int64
	CreatedAt time.Time
	Source    string // cli, gateway or bot
	Service   string
	Operation string
	Input     string
	Output    string
	Error     string
	Duration  time.Duration
}

type JournalRepo struct{ DB *DB }

func NewJournalRepo(db *DB) *JournalRepo { return &JournalRepo{DB: db} }

// Insert stores e and returns its id. A zero CreatedAt means now.
func (r *JournalRepo) Insert(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	const q = `insert into call_journal(created_ms, source, service, operation, input, output, error, duration_ms)
values (?,?,?,?,?,?,?,?)`
	args := []any{e.CreatedAt.UnixMilli(), e.Source, e.Service, e.Operation, e.Input, e.Output, e.Error, e.Duration.Milliseconds()}

	if r.DB.Dialect == Postgres {
		var id int64
		err := r.DB.QueryRowContext(ctx, r.DB.rebind(q+" returning id"), args...).Scan(&id)
		return id, err
	}
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const entryCols = `id, created_ms, source, service, operation, input, output, error, duration_ms`

type scanner interface{ Scan(dest ...any) error }

func scanEntry(s scanner) (Entry, error) {
	var (
		e          Entry
		createdMS  int64
		durationMS int64
	)
	if err := s.Scan(&e.ID, &createdMS, &e.Source, &e.Service, &e.Operation, &e.Input, &e.Output, &e.Error, &durationMS); err != nil {
		return Entry{}, err
	}
	e.CreatedAt = time.UnixMilli(createdMS)
	e.Duration = time.Duration(durationMS) * time.Millisecond
	return e, nil
}

func (r *JournalRepo) Get(ctx context.Context, id int64) (*Entry, error) {
	row := r.DB.QueryRowContext(ctx, r.DB.rebind(`select `+entryCols+` from call_journal where id = ?`), id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Recent lists the newest entries first. An empty service matches all.
func (r *JournalRepo) Recent(ctx context.Context, service string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `select ` + entryCols + ` from call_journal`
	args := []any{}
	if service != "" {
		q += ` where service = ?`
		args = append(args, service)
	}
	q += ` order by created_ms desc, id desc limit ?`
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, r.DB.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
