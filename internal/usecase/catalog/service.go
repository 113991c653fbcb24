// Package catalog serves movie listings, details, people, reviews and statistics.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/moviemind/moviemind/internal/domain"
	"github.com/moviemind/moviemind/internal/domain/movie"
	"github.com/moviemind/moviemind/internal/domain/page"
)

// Defaults for paginated endpoints.
const (
	DefaultPerPage       = 20
	DefaultMaxPerPage    = 100
	DefaultReviewPerPage = 10
	SearchLimit          = 50
)

// Service handles read-only catalog queries.
type Service struct {
	repo          Repository
	intro         IntroLookup
	perPage       int
	maxPerPage    int
	reviewPerPage int
}

// New creates a catalog service. intro may be nil.
func New(repo Repository, intro IntroLookup) *Service {
	return &Service{
		repo:          repo,
		intro:         intro,
		perPage:       DefaultPerPage,
		maxPerPage:    DefaultMaxPerPage,
		reviewPerPage: DefaultReviewPerPage,
	}
}

// WithPageSizes overrides the default and maximum listing page sizes.
func (s *Service) WithPageSizes(perPage, maxPerPage int) *Service {
	if perPage > 0 {
		s.perPage = perPage
	}
	if maxPerPage > 0 {
		s.maxPerPage = maxPerPage
	}
	return s
}

// ListMovies returns one page of movies matching f, ordered by rank.
func (s *Service) ListMovies(
	ctx context.Context, f movie.Filter, pageNum, perPage int,
) ([]movie.ListItem, page.Info, error) {
	if f.YearStart > 0 && f.YearEnd > 0 && f.YearStart > f.YearEnd {
		return nil, page.Info{}, fmt.Errorf("%w: year_start %d is after year_end %d",
			domain.ErrInvalidRequest, f.YearStart, f.YearEnd)
	}
	f.Genre = strings.TrimSpace(f.Genre)

	req := page.New(pageNum, perPage, s.perPage, s.maxPerPage)

	total, err := s.repo.CountMovies(ctx, f)
	if err != nil {
		return nil, page.Info{}, fmt.Errorf("count movies: %w", err)
	}

	items, err := s.repo.ListMovies(ctx, f, req.PerPage(), req.Offset())
	if err != nil {
		return nil, page.Info{}, fmt.Errorf("list movies: %w", err)
	}
	return items, page.InfoFor(req, total), nil
}

// GetMovie returns a movie with its introduction, falling back to the short description.
func (s *Service) GetMovie(ctx context.Context, id int64) (movie.Detail, error) {
	d, err := s.repo.GetMovie(ctx, id)
	if err != nil {
		return movie.Detail{}, fmt.Errorf("get movie: %w", err)
	}

	d.Introduction = d.Description
	if s.intro != nil && d.DoubanID != 0 {
		if intro := s.intro.Lookup(strconv.FormatInt(d.DoubanID, 10)); intro != "" {
			d.Introduction = intro
		}
	}
	return d, nil
}

// Search matches keyword against titles and people.
func (s *Service) Search(ctx context.Context, keyword string) ([]movie.Summary, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required", domain.ErrInvalidRequest)
	}

	rows, err := s.repo.KeywordSearch(ctx, keyword, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	return rows, nil
}

// Genres lists genres with their movie counts.
func (s *Service) Genres(ctx context.Context) ([]movie.Genre, error) {
	genres, err := s.repo.Genres(ctx)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return genres, nil
}

// Celebrities lists directors, actors, or both when role is empty or unrecognized.
func (s *Service) Celebrities(ctx context.Context, role string) ([]movie.Celebrity, error) {
	r, _ := movie.ParseRole(role)

	people, err := s.repo.Celebrities(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("list celebrities: %w", err)
	}
	return people, nil
}

// Celebrity returns a person's roles and filmography.
func (s *Service) Celebrity(ctx context.Context, name string) (movie.CelebrityDetail, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return movie.CelebrityDetail{}, fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}

	detail, err := s.repo.CelebrityByName(ctx, name)
	if err != nil {
		return movie.CelebrityDetail{}, fmt.Errorf("celebrity %q: %w", name, err)
	}
	return detail, nil
}

// Reviews returns one page of a movie's reviews, newest first.
func (s *Service) Reviews(
	ctx context.Context, movieID int64, pageNum, perPage int,
) ([]movie.Review, page.Info, error) {
	req := page.New(pageNum, perPage, s.reviewPerPage, s.maxPerPage)

	total, err := s.repo.CountReviews(ctx, movieID)
	if err != nil {
		return nil, page.Info{}, fmt.Errorf("count reviews: %w", err)
	}

	reviews, err := s.repo.Reviews(ctx, movieID, req.PerPage(), req.Offset())
	if err != nil {
		return nil, page.Info{}, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, page.InfoFor(req, total), nil
}

// Statistics returns the chart distributions.
func (s *Service) Statistics(ctx context.Context) (movie.Statistics, error) {
	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		return movie.Statistics{}, fmt.Errorf("statistics: %w", err)
	}
	return stats, nil
}
