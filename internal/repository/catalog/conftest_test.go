package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/moviemind/moviemind/internal/db/postgres"
)

// fakeRows implements pgx.Rows over in-memory values.
type fakeRows struct {
	fields  []pgconn.FieldDescription
	data    [][]any
	pos     int
	closed  bool
	err     error
	scanned int
}

func newFakeRows(columns []string, data ...[]any) *fakeRows {
	fields := make([]pgconn.FieldDescription, len(columns))
	for i, c := range columns {
		fields[i] = pgconn.FieldDescription{Name: c}
	}
	return &fakeRows{fields: fields, data: data}
}

func (f *fakeRows) Close()                                       { f.closed = true }
func (f *fakeRows) Err() error                                   { return f.err }
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return f.fields }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func (f *fakeRows) Next() bool {
	if f.closed || f.pos >= len(f.data) {
		return false
	}
	f.pos++
	f.scanned++
	return true
}

func (f *fakeRows) Scan(_ ...any) error {
	return errors.New("fakeRows: Scan not supported")
}

func (f *fakeRows) Values() ([]any, error) {
	return f.data[f.pos-1], nil
}

// fakeQuerier records statements and serves canned rows.
type fakeQuerier struct {
	rows     *fakeRows
	queryErr error
	execErr  error
	queries  []string
	execs    []string
}

func (q *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.queries = append(q.queries, sql)
	if q.queryErr != nil {
		return nil, q.queryErr
	}
	return q.rows, nil
}

func (q *fakeQuerier) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return nil
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	q.execs = append(q.execs, sql)
	return pgconn.CommandTag{}, q.execErr
}

// fakeStore hands the querier to read-only transactions and counts them.
type fakeStore struct {
	q           *fakeQuerier
	readOnlyTxs int
	beginErr    error
}

func (s *fakeStore) Querier() postgres.Querier { return s.q }

func (s *fakeStore) WithReadOnlyTx(_ context.Context, fn func(q postgres.Querier) error) error {
	if s.beginErr != nil {
		return s.beginErr
	}
	s.readOnlyTxs++
	return fn(s.q)
}
