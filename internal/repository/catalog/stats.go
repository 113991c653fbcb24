package catalog

import (
	"context"
	"fmt"

	"github.com/moviemind/moviemind/internal/domain/movie"
)

// Statistics returns decade, top-10 genre and rating distributions.
func (r *Repo) Statistics(ctx context.Context) (movie.Statistics, error) {
	var st movie.Statistics
	var err error

	if st.YearDistribution, err = r.buckets(ctx, decadeSQL); err != nil {
		return movie.Statistics{}, fmt.Errorf("year distribution: %w", err)
	}
	if st.GenreDistribution, err = r.buckets(ctx, genreTopSQL); err != nil {
		return movie.Statistics{}, fmt.Errorf("genre distribution: %w", err)
	}
	if st.RatingDistribution, err = r.buckets(ctx, ratingBucketsSQL); err != nil {
		return movie.Statistics{}, fmt.Errorf("rating distribution: %w", err)
	}
	return st, nil
}

// buckets runs a two-column (label, count) query.
func (r *Repo) buckets(ctx context.Context, query string) ([]movie.Bucket, error) {
	rows, err := r.store.Querier().Query(ctx, query)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by Statistics
	}
	defer rows.Close()

	out := []movie.Bucket{}
	for rows.Next() {
		var b movie.Bucket
		if err := rows.Scan(&b.Label, &b.Count); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err() //nolint:wrapcheck // wrapped by Statistics
}
