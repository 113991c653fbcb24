package catalog

import (
	"context"
	"fmt"

	"github.com/moviemind/moviemind/internal/domain"
	"github.com/moviemind/moviemind/internal/domain/movie"
)

const (
	celebrityRoleLimit  = 100
	celebrityMixedLimit = 50
)

// Genres returns every genre with its movie count, most used first.
func (r *Repo) Genres(ctx context.Context) ([]movie.Genre, error) {
	rows, err := r.store.Querier().Query(ctx, genresSQL)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	var out []movie.Genre
	for rows.Next() {
		var g movie.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.MovieCount); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return out, nil
}

// Celebrities lists directors and/or actors by name.
// An empty role returns up to 50 of each; a specific role returns up to 100.
func (r *Repo) Celebrities(ctx context.Context, role movie.Role) ([]movie.Celebrity, error) {
	query, limit := celebritiesSQL, celebrityMixedLimit
	switch role {
	case movie.RoleDirector:
		query, limit = directorsSQL, celebrityRoleLimit
	case movie.RoleActor:
		query, limit = actorsSQL, celebrityRoleLimit
	}

	rows, err := r.store.Querier().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list celebrities: %w", err)
	}
	defer rows.Close()

	var out []movie.Celebrity
	for rows.Next() {
		var c movie.Celebrity
		var roleName string
		if err := rows.Scan(&c.ID, &c.Name, &roleName); err != nil {
			return nil, fmt.Errorf("scan celebrity: %w", err)
		}
		c.Role = movie.Role(roleName)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list celebrities: %w", err)
	}
	return out, nil
}

// CelebrityByName returns a person's roles and filmography ordered by rank.
func (r *Repo) CelebrityByName(ctx context.Context, name string) (movie.CelebrityDetail, error) {
	rows, err := r.store.Querier().Query(ctx, filmographySQL, name)
	if err != nil {
		return movie.CelebrityDetail{}, fmt.Errorf("celebrity %q: %w", name, err)
	}
	defer rows.Close()

	detail := movie.CelebrityDetail{Name: name}
	seen := make(map[movie.Role]bool, 2)
	for rows.Next() {
		var cm movie.CelebrityMovie
		var roleName string
		if err := rows.Scan(summaryDest(&cm.Summary, &roleName)...); err != nil {
			return movie.CelebrityDetail{}, fmt.Errorf("scan filmography: %w", err)
		}
		cm.Role = movie.Role(roleName)
		if !seen[cm.Role] {
			seen[cm.Role] = true
			detail.Roles = append(detail.Roles, cm.Role)
		}
		detail.Movies = append(detail.Movies, cm)
	}
	if err := rows.Err(); err != nil {
		return movie.CelebrityDetail{}, fmt.Errorf("celebrity %q: %w", name, err)
	}

	if len(detail.Movies) == 0 {
		return movie.CelebrityDetail{}, domain.ErrNotFound
	}
	return detail, nil
}
