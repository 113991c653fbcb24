package catalog

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/moviemind/moviemind/internal/db"
	"github.com/moviemind/moviemind/internal/domain/movie"
)

var summaryColumnNames = []string{
	"movie_id", "rank", "cn_title", "original_title", "year",
	"rating", "poster_url", "directors", "actors",
}

func TestRunReadOnly_MapsColumnsByName(t *testing.T) {
	rows := newFakeRows(
		[]string{"Rating", "cn_title", "movie_id", "extra_column", "directors"},
		[]any{pgtype.Numeric{Int: big.NewInt(97), Exp: -1, Valid: true}, "肖申克的救赎", int32(1), "ignored", "弗兰克·德拉邦特"},
	)
	s := &fakeStore{q: &fakeQuerier{rows: rows}}
	r := New(s)

	got, err := r.RunReadOnly(context.Background(), "SELECT ...", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}

	want := movie.Summary{MovieID: 1, CNTitle: "肖申克的救赎", Rating: 9.7, Directors: "弗兰克·德拉邦特"}
	if got[0] != want {
		t.Errorf("got %+v, want %+v", got[0], want)
	}
	if s.readOnlyTxs != 1 {
		t.Errorf("expected statement to run in a read-only tx, got %d", s.readOnlyTxs)
	}
}

func TestRunReadOnly_CapsRows(t *testing.T) {
	data := make([][]any, 80)
	for i := range data {
		data[i] = []any{int64(i + 1), int32(i + 1), "t", nil, int32(1994), 9.0, nil, nil, nil}
	}
	rows := newFakeRows(summaryColumnNames, data...)
	r := New(&fakeStore{q: &fakeQuerier{rows: rows}})

	got, err := r.RunReadOnly(context.Background(), "SELECT * FROM movie", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("expected 50 rows, got %d", len(got))
	}
	if rows.scanned != 50 {
		t.Errorf("expected iteration to stop at 50, advanced %d", rows.scanned)
	}
	if !rows.closed {
		t.Error("expected rows to be closed")
	}
}

func TestRunReadOnly_EmptyResult(t *testing.T) {
	r := New(&fakeStore{q: &fakeQuerier{rows: newFakeRows(summaryColumnNames)}})

	got, err := r.RunReadOnly(context.Background(), "SELECT * FROM movie WHERE 1=0", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestRunReadOnly_QueryError(t *testing.T) {
	q := &fakeQuerier{queryErr: errors.New(`column "foo" does not exist`)}
	r := New(&fakeStore{q: q})

	_, err := r.RunReadOnly(context.Background(), "SELECT foo FROM movie", 50)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected *db.Error, got %v", err)
	}
	if dbErr.Op != db.OpQuery {
		t.Errorf("op = %q, want %q", dbErr.Op, db.OpQuery)
	}
}

func TestRunReadOnly_RowsError(t *testing.T) {
	rows := newFakeRows(summaryColumnNames)
	rows.err = errors.New("canceling statement due to statement timeout")
	r := New(&fakeStore{q: &fakeQuerier{rows: rows}})

	if _, err := r.RunReadOnly(context.Background(), "SELECT * FROM movie", 50); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunReadOnly_StatementTimeout(t *testing.T) {
	q := &fakeQuerier{rows: newFakeRows(summaryColumnNames)}
	r := New(&fakeStore{q: q}).WithStatementTimeout(5 * time.Second)

	if _, err := r.RunReadOnly(context.Background(), "SELECT 1", 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.execs) != 1 || !strings.Contains(q.execs[0], "statement_timeout = 5000") {
		t.Errorf("expected SET LOCAL statement_timeout, got %v", q.execs)
	}
}

func TestRunReadOnly_BeginError(t *testing.T) {
	r := New(&fakeStore{q: &fakeQuerier{}, beginErr: &db.Error{Op: db.OpBegin, Err: errors.New("pool closed")}})

	if _, err := r.RunReadOnly(context.Background(), "SELECT 1", 50); err == nil {
		t.Fatal("expected error")
	}
}

func TestSummaryFromValues_Conversions(t *testing.T) {
	cols := columnIndex(newFakeRows(summaryColumnNames).FieldDescriptions())
	got := summaryFromValues(cols, []any{
		"42", int16(3), []byte("霸王别姬"), nil, float64(1993),
		"9.6", "https://img/poster.jpg", []any{"陈凯歌"}, []string{"张国荣", "张丰毅"},
	})

	want := movie.Summary{
		MovieID: 42, Rank: 3, CNTitle: "霸王别姬", Year: 1993, Rating: 9.6,
		PosterURL: "https://img/poster.jpg", Directors: "陈凯歌", Actors: "张国荣, 张丰毅",
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestColumnIndex_FirstOccurrenceWins(t *testing.T) {
	cols := columnIndex(newFakeRows([]string{"movie_id", "MOVIE_ID"}).FieldDescriptions())
	if cols["movie_id"] != 0 {
		t.Errorf("expected first occurrence, got %d", cols["movie_id"])
	}
}
