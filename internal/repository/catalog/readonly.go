package catalog

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/moviemind/moviemind/internal/db"
	"github.com/moviemind/moviemind/internal/db/postgres"
	"github.com/moviemind/moviemind/internal/domain/movie"
)

// RunReadOnly executes a single validated SELECT inside a READ ONLY transaction
// and maps at most limit rows onto movie.Summary by column name.
// The statement is sent without arguments over the extended protocol, which
// refuses multiple commands in one string.
func (r *Repo) RunReadOnly(ctx context.Context, sql string, limit int) ([]movie.Summary, error) {
	out := make([]movie.Summary, 0, limit)

	err := r.store.WithReadOnlyTx(ctx, func(q postgres.Querier) error {
		if r.statementTimeout > 0 {
			setTimeout := fmt.Sprintf("SET LOCAL statement_timeout = %d", r.statementTimeout.Milliseconds())
			if _, err := q.Exec(ctx, setTimeout); err != nil {
				return &db.Error{Op: db.OpQuery, Err: err}
			}
		}

		rows, err := q.Query(ctx, sql)
		if err != nil {
			return &db.Error{Op: db.OpQuery, Err: err}
		}
		defer rows.Close()

		cols := columnIndex(rows.FieldDescriptions())
		for len(out) < limit && rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return &db.Error{Op: db.OpQuery, Err: err}
			}
			out = append(out, summaryFromValues(cols, values))
		}
		if err := rows.Err(); err != nil {
			return &db.Error{Op: db.OpQuery, Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // *db.Error carries the op
	}
	return out, nil
}

// columnIndex maps lower-cased result column names to their position. First occurrence wins.
func columnIndex(fields []pgconn.FieldDescription) map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.ToLower(f.Name)
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

// summaryFromValues copies known columns into a Summary. Unknown columns are ignored,
// missing or NULL ones stay zero.
func summaryFromValues(cols map[string]int, values []any) movie.Summary {
	get := func(name string) any {
		if i, ok := cols[name]; ok && i < len(values) {
			return values[i]
		}
		return nil
	}

	return movie.Summary{
		MovieID:       toInt64(get("movie_id")),
		Rank:          int(toInt64(get("rank"))),
		CNTitle:       toString(get("cn_title")),
		OriginalTitle: toString(get("original_title")),
		Year:          int(toInt64(get("year"))),
		Rating:        toFloat64(get("rating")),
		PosterURL:     toString(get("poster_url")),
		Directors:     toString(get("directors")),
		Actors:        toString(get("actors")),
	}
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int:
		return int64(x)
	case uint32:
		return int64(x)
	case float64:
		return int64(x)
	case float32:
		return int64(x)
	case pgtype.Numeric:
		f := numericFloat(x)
		if math.IsNaN(f) {
			return 0
		}
		return int64(f)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int16:
		return float64(x)
	case int:
		return float64(x)
	case pgtype.Numeric:
		f := numericFloat(x)
		if math.IsNaN(f) {
			return 0
		}
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f
	default:
		return 0
	}
}

func numericFloat(n pgtype.Numeric) float64 {
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return math.NaN()
	}
	return f.Float64
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			if s := toString(p); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
