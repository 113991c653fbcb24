package catalog

import (
	"context"
	"fmt"

	"github.com/moviemind/moviemind/internal/domain/movie"
)

// CountReviews returns the number of reviews of a movie.
func (r *Repo) CountReviews(ctx context.Context, movieID int64) (int, error) {
	var total int
	if err := r.store.Querier().QueryRow(ctx, countReviewsSQL, movieID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return total, nil
}

// Reviews returns one page of a movie's reviews, newest source id first.
func (r *Repo) Reviews(ctx context.Context, movieID int64, limit, offset int) ([]movie.Review, error) {
	rows, err := r.store.Querier().Query(ctx, reviewsSQL, movieID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]movie.Review, 0, limit)
	for rows.Next() {
		var rv movie.Review
		if err := rows.Scan(
			&rv.ReviewID, &rv.CommentID, &rv.UserID, &rv.Username,
			&rv.UserRating, &rv.Comment, &rv.UsefulCount, &rv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}
