package catalog

import (
	"context"

	"github.com/moviemind/moviemind/internal/domain/movie"
)

// Repository defines the read-only catalog storage contract.
type Repository interface {
	CountMovies(ctx context.Context, f movie.Filter) (int, error)
	ListMovies(ctx context.Context, f movie.Filter, limit, offset int) ([]movie.ListItem, error)
	GetMovie(ctx context.Context, id int64) (movie.Detail, error)
	KeywordSearch(ctx context.Context, text string, limit int) ([]movie.Summary, error)
	Genres(ctx context.Context) ([]movie.Genre, error)
	Celebrities(ctx context.Context, role movie.Role) ([]movie.Celebrity, error)
	CelebrityByName(ctx context.Context, name string) (movie.CelebrityDetail, error)
	CountReviews(ctx context.Context, movieID int64) (int, error)
	Reviews(ctx context.Context, movieID int64, limit, offset int) ([]movie.Review, error)
	Statistics(ctx context.Context) (movie.Statistics, error)
}

// IntroLookup resolves a long-form introduction by douban id.
type IntroLookup interface {
	Lookup(doubanID string) string
}
