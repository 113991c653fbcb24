package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/moviemind/moviemind/internal/domain"
	"github.com/moviemind/moviemind/internal/domain/movie"
)

// CountMovies returns the number of movies matching the filter.
func (r *Repo) CountMovies(ctx context.Context, f movie.Filter) (int, error) {
	where, args := buildFilter(f)

	var total int
	if err := r.store.Querier().QueryRow(ctx, fmt.Sprintf(countMoviesSQL, where), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return total, nil
}

// ListMovies returns one page of movies matching the filter, ordered by rank.
func (r *Repo) ListMovies(ctx context.Context, f movie.Filter, limit, offset int) ([]movie.ListItem, error) {
	where, args := buildFilter(f)
	query := fmt.Sprintf(listMoviesSQL, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.store.Querier().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	items := make([]movie.ListItem, 0, limit)
	for rows.Next() {
		var it movie.ListItem
		if err := rows.Scan(summaryDest(&it.Summary, &it.Description)...); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return items, nil
}

// GetMovie returns a movie with its genres, people and review count.
func (r *Repo) GetMovie(ctx context.Context, id int64) (movie.Detail, error) {
	var d movie.Detail
	err := r.store.Querier().QueryRow(ctx, movieDetailSQL, id).Scan(
		&d.MovieID, &d.DoubanID, &d.Rank, &d.CNTitle,
		&d.OriginalTitle, &d.Year, &d.Rating,
		&d.CommentCount, &d.PosterURL, &d.Description,
		&d.Countries, &d.Languages, &d.Durations,
		&d.ReleaseDate, &d.IMDbID,
		&d.Genres, &d.Directors, &d.Actors,
		&d.ReviewCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return movie.Detail{}, domain.ErrNotFound
		}
		return movie.Detail{}, fmt.Errorf("get movie %d: %w", id, err)
	}
	return d, nil
}

// KeywordSearch matches text as a case-insensitive substring of titles, director and actor names.
func (r *Repo) KeywordSearch(ctx context.Context, text string, limit int) ([]movie.Summary, error) {
	rows, err := r.store.Querier().Query(ctx, keywordSearchSQL, containsPattern(text), limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	out := make([]movie.Summary, 0, limit)
	for rows.Next() {
		var s movie.Summary
		if err := rows.Scan(summaryDest(&s)...); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return out, nil
}

// summaryDest returns scan targets in summaryColumns order, followed by extra.
func summaryDest(s *movie.Summary, extra ...any) []any {
	dest := []any{
		&s.MovieID, &s.Rank, &s.CNTitle, &s.OriginalTitle, &s.Year,
		&s.Rating, &s.PosterURL, &s.Directors, &s.Actors,
	}
	return append(dest, extra...)
}
