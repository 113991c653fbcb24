package catalog

import (
	"fmt"
	"strings"

	"github.com/moviemind/moviemind/internal/domain/movie"
)

// summaryColumns is the MovieSummary projection over "movie m" joined to directors d and actors a.
const summaryColumns = `m.movie_id, m.rank, m.cn_title,
	COALESCE(m.original_title, '') AS original_title,
	COALESCE(m.year, 0) AS year,
	COALESCE(m.rating, 0)::FLOAT8 AS rating,
	COALESCE(m.poster_url, '') AS poster_url,
	COALESCE(STRING_AGG(DISTINCT d.name, ', '), '') AS directors,
	COALESCE(STRING_AGG(DISTINCT a.name, ', '), '') AS actors`

const peopleJoins = `LEFT JOIN movie_director md ON m.movie_id = md.movie_id
	LEFT JOIN director d ON md.director_id = d.director_id
	LEFT JOIN movie_actor ma ON m.movie_id = ma.movie_id
	LEFT JOIN actor a ON ma.actor_id = a.actor_id`

const countMoviesSQL = `SELECT COUNT(*) FROM movie m WHERE %s`

const listMoviesSQL = `SELECT ` + summaryColumns + `,
	COALESCE(m.description, '') AS description
FROM movie m
	` + peopleJoins + `
WHERE %s
GROUP BY m.movie_id
ORDER BY m.rank
LIMIT $%d OFFSET $%d`

const movieDetailSQL = `SELECT m.movie_id, m.douban_id, m.rank, m.cn_title,
	COALESCE(m.original_title, ''), COALESCE(m.year, 0), COALESCE(m.rating, 0)::FLOAT8,
	COALESCE(m.comment_count, 0), COALESCE(m.poster_url, ''), COALESCE(m.description, ''),
	COALESCE(m.countries, ''), COALESCE(m.languages, ''), COALESCE(m.durations, ''),
	COALESCE(m.release_date, ''), COALESCE(m.imdb_id, ''),
	COALESCE(ARRAY_AGG(DISTINCT g.name::TEXT) FILTER (WHERE g.name IS NOT NULL), ARRAY[]::TEXT[]),
	COALESCE(ARRAY_AGG(DISTINCT d.name::TEXT) FILTER (WHERE d.name IS NOT NULL), ARRAY[]::TEXT[]),
	COALESCE(ARRAY_AGG(DISTINCT a.name::TEXT) FILTER (WHERE a.name IS NOT NULL), ARRAY[]::TEXT[]),
	COUNT(DISTINCT r.review_id)
FROM movie m
	LEFT JOIN movie_genre mg ON m.movie_id = mg.movie_id
	LEFT JOIN genre g ON mg.genre_id = g.genre_id
	` + peopleJoins + `
	LEFT JOIN review r ON m.movie_id = r.movie_id
WHERE m.movie_id = $1
GROUP BY m.movie_id`

const keywordSearchSQL = `SELECT ` + summaryColumns + `
FROM movie m
	` + peopleJoins + `
WHERE m.cn_title ILIKE $1
	OR m.original_title ILIKE $1
	OR EXISTS (
		SELECT 1 FROM movie_director md2
		JOIN director d2 ON md2.director_id = d2.director_id
		WHERE md2.movie_id = m.movie_id AND d2.name ILIKE $1
	)
	OR EXISTS (
		SELECT 1 FROM movie_actor ma2
		JOIN actor a2 ON ma2.actor_id = a2.actor_id
		WHERE ma2.movie_id = m.movie_id AND a2.name ILIKE $1
	)
GROUP BY m.movie_id
ORDER BY m.rank
LIMIT $2`

const genresSQL = `SELECT g.genre_id, g.name, COUNT(mg.movie_id)
FROM genre g
	LEFT JOIN movie_genre mg ON g.genre_id = mg.genre_id
GROUP BY g.genre_id, g.name
ORDER BY COUNT(mg.movie_id) DESC, g.name`

const directorsSQL = `SELECT director_id, name, 'director' FROM director ORDER BY name LIMIT $1`

const actorsSQL = `SELECT actor_id, name, 'actor' FROM actor ORDER BY name LIMIT $1`

const celebritiesSQL = `SELECT * FROM (
	SELECT director_id, name, 'director' AS role FROM director ORDER BY name LIMIT $1
) d
UNION ALL
SELECT * FROM (
	SELECT actor_id, name, 'actor' AS role FROM actor ORDER BY name LIMIT $1
) a`

const filmographySQL = `WITH credits AS (
	SELECT md.movie_id, 'director' AS role
	FROM movie_director md JOIN director p ON md.director_id = p.director_id
	WHERE p.name = $1
	UNION ALL
	SELECT ma.movie_id, 'actor' AS role
	FROM movie_actor ma JOIN actor p ON ma.actor_id = p.actor_id
	WHERE p.name = $1
)
SELECT m.movie_id, m.rank, m.cn_title,
	COALESCE(m.original_title, ''), COALESCE(m.year, 0), COALESCE(m.rating, 0)::FLOAT8,
	COALESCE(m.poster_url, ''),
	COALESCE((SELECT STRING_AGG(d.name, ', ' ORDER BY d.name) FROM movie_director md
		JOIN director d ON md.director_id = d.director_id WHERE md.movie_id = m.movie_id), ''),
	COALESCE((SELECT STRING_AGG(a.name, ', ' ORDER BY a.name) FROM movie_actor ma
		JOIN actor a ON ma.actor_id = a.actor_id WHERE ma.movie_id = m.movie_id), ''),
	c.role
FROM credits c JOIN movie m ON m.movie_id = c.movie_id
ORDER BY m.rank, c.role DESC`

const countReviewsSQL = `SELECT COUNT(*) FROM review WHERE movie_id = $1`

const reviewsSQL = `SELECT r.review_id,
	COALESCE(NULLIF(r.douban_review_id, ''), r.review_id::TEXT) AS comment_id,
	u.user_id, u.username,
	COALESCE(r.user_rating, 0)::FLOAT8,
	COALESCE(r.comment, ''),
	COALESCE(r.useful_count, 0),
	r.created_at
FROM review r
	JOIN "user" u ON r.user_id = u.user_id
WHERE r.movie_id = $1
ORDER BY CASE
	WHEN r.douban_review_id ~ '^\d+$' THEN r.douban_review_id::BIGINT
	ELSE r.review_id
END DESC
LIMIT $2 OFFSET $3`

const decadeSQL = `SELECT
	CASE
		WHEN year < 1950 THEN '1950年前'
		WHEN year < 1960 THEN '1950s'
		WHEN year < 1970 THEN '1960s'
		WHEN year < 1980 THEN '1970s'
		WHEN year < 1990 THEN '1980s'
		WHEN year < 2000 THEN '1990s'
		WHEN year < 2010 THEN '2000s'
		WHEN year < 2020 THEN '2010s'
		ELSE '2020s'
	END AS decade,
	COUNT(*)
FROM movie
WHERE year IS NOT NULL
GROUP BY decade
ORDER BY MIN(year)`

const genreTopSQL = `SELECT g.name, COUNT(mg.movie_id)
FROM genre g
	JOIN movie_genre mg ON g.genre_id = mg.genre_id
GROUP BY g.genre_id, g.name
ORDER BY COUNT(mg.movie_id) DESC
LIMIT 10`

const ratingBucketsSQL = `SELECT FLOOR(rating)::INT::TEXT AS rating_group, COUNT(*)
FROM movie
WHERE rating IS NOT NULL
GROUP BY FLOOR(rating)
ORDER BY FLOOR(rating)`

// buildFilter renders a movie.Filter as a WHERE clause over "movie m" with positional args.
func buildFilter(f movie.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Genre != "" {
		add(`EXISTS (SELECT 1 FROM movie_genre mg JOIN genre g ON mg.genre_id = g.genre_id
		WHERE mg.movie_id = m.movie_id AND g.name = $%d)`, f.Genre)
	}
	if f.YearStart > 0 {
		add("m.year >= $%d", f.YearStart)
	}
	if f.YearEnd > 0 {
		add("m.year <= $%d", f.YearEnd)
	}
	if f.MinRating > 0 {
		add("m.rating >= $%d", f.MinRating)
	}

	if len(conds) == 0 {
		return "1=1", nil
	}
	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s as a literal substring.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
