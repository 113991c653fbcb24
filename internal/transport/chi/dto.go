package chi

import (
	"strconv"
	"time"

	"github.com/moviemind/moviemind/internal/domain/movie"
	"github.com/moviemind/moviemind/internal/domain/page"
	domusage "github.com/moviemind/moviemind/internal/domain/usage"
)

type successResponse struct {
	Success    bool            `json:"success"`
	Data       any             `json:"data"`
	Pagination *paginationJSON `json:"pagination,omitempty"`
	QueryInfo  *queryInfoJSON  `json:"query_info,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// Error codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeUnauthorized     = "unauthorized"
	codeNotFound         = "not_found"
	codeRateLimited      = "rate_limited"
	codeBudgetExceeded   = "budget_exceeded"
	codeModelUnavailable = "model_unavailable"
	codeInternalError    = "internal_error"
)

type paginationJSON struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type queryInfoJSON struct {
	OriginalQuery  string `json:"original_query"`
	GeneratedSQL   string `json:"generated_sql"`
	Interpretation string `json:"interpretation"`
}

type aiSearchRequest struct {
	Query string `json:"query" validate:"notblank,max=4096"`
}

type movieSummaryJSON struct {
	MovieID       int64   `json:"movie_id"`
	Rank          int     `json:"rank"`
	CNTitle       string  `json:"cn_title"`
	OriginalTitle string  `json:"original_title"`
	Year          int     `json:"year"`
	Rating        float64 `json:"rating"`
	PosterURL     string  `json:"poster_url"`
	Directors     string  `json:"directors"`
	Actors        string  `json:"actors"`
}

type movieListItemJSON struct {
	movieSummaryJSON
	Description string `json:"description"`
}

type movieDetailJSON struct {
	MovieID       int64    `json:"movie_id"`
	DoubanID      int64    `json:"douban_id"`
	Rank          int      `json:"rank"`
	CNTitle       string   `json:"cn_title"`
	OriginalTitle string   `json:"original_title"`
	Year          int      `json:"year"`
	Rating        float64  `json:"rating"`
	CommentCount  int      `json:"comment_count"`
	PosterURL     string   `json:"poster_url"`
	Description   string   `json:"description"`
	Countries     string   `json:"countries"`
	Languages     string   `json:"languages"`
	Durations     string   `json:"durations"`
	ReleaseDate   string   `json:"release_date"`
	IMDbID        string   `json:"imdb_id"`
	Genres        []string `json:"genres"`
	Directors     []string `json:"directors"`
	Actors        []string `json:"actors"`
	ReviewCount   int      `json:"review_count"`
	Introduction  string   `json:"introduction"`
}

type genreJSON struct {
	GenreID    int64  `json:"genre_id"`
	Name       string `json:"name"`
	MovieCount int    `json:"movie_count"`
}

type celebrityJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type celebrityMovieJSON struct {
	movieSummaryJSON
	Role string `json:"role"`
}

type celebrityDetailJSON struct {
	Name   string               `json:"name"`
	Roles  []string             `json:"roles"`
	Movies []celebrityMovieJSON `json:"movies"`
}

type reviewJSON struct {
	ReviewID    int64      `json:"review_id"`
	CommentID   string     `json:"comment_id"`
	UserID      int64      `json:"user_id"`
	Username    string     `json:"username"`
	UserRating  float64    `json:"user_rating"`
	Comment     string     `json:"comment"`
	UsefulCount int        `json:"useful_count"`
	CreatedAt   *time.Time `json:"created_at"`
}

type decadeJSON struct {
	Decade string `json:"decade"`
	Count  int    `json:"count"`
}

type genreCountJSON struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type ratingGroupJSON struct {
	RatingGroup float64 `json:"rating_group"`
	Count       int     `json:"count"`
}

type statisticsJSON struct {
	YearDistribution   []decadeJSON      `json:"year_distribution"`
	GenreDistribution  []genreCountJSON  `json:"genre_distribution"`
	RatingDistribution []ratingGroupJSON `json:"rating_distribution"`
}

type usageJSON struct {
	Period        string     `json:"period"`
	PeriodStartAt *time.Time `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time `json:"period_end_at,omitempty"`
	TokensUsed    int64      `json:"tokens_used"`
	Budget        budgetJSON `json:"budget"`
}

type budgetJSON struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

type healthJSON struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func paginationToJSON(info page.Info) *paginationJSON {
	return &paginationJSON{
		Page:       info.Page,
		PerPage:    info.PerPage,
		Total:      info.Total,
		TotalPages: info.TotalPages,
	}
}

func summaryToJSON(s movie.Summary) movieSummaryJSON {
	return movieSummaryJSON{
		MovieID:       s.MovieID,
		Rank:          s.Rank,
		CNTitle:       s.CNTitle,
		OriginalTitle: s.OriginalTitle,
		Year:          s.Year,
		Rating:        s.Rating,
		PosterURL:     s.PosterURL,
		Directors:     s.Directors,
		Actors:        s.Actors,
	}
}

func summariesToJSON(rows []movie.Summary) []movieSummaryJSON {
	out := make([]movieSummaryJSON, len(rows))
	for i, s := range rows {
		out[i] = summaryToJSON(s)
	}
	return out
}

func listItemsToJSON(items []movie.ListItem) []movieListItemJSON {
	out := make([]movieListItemJSON, len(items))
	for i, it := range items {
		out[i] = movieListItemJSON{movieSummaryJSON: summaryToJSON(it.Summary), Description: it.Description}
	}
	return out
}

func detailToJSON(d *movie.Detail) movieDetailJSON {
	return movieDetailJSON{
		MovieID:       d.MovieID,
		DoubanID:      d.DoubanID,
		Rank:          d.Rank,
		CNTitle:       d.CNTitle,
		OriginalTitle: d.OriginalTitle,
		Year:          d.Year,
		Rating:        d.Rating,
		CommentCount:  d.CommentCount,
		PosterURL:     d.PosterURL,
		Description:   d.Description,
		Countries:     d.Countries,
		Languages:     d.Languages,
		Durations:     d.Durations,
		ReleaseDate:   d.ReleaseDate,
		IMDbID:        d.IMDbID,
		Genres:        nonNil(d.Genres),
		Directors:     nonNil(d.Directors),
		Actors:        nonNil(d.Actors),
		ReviewCount:   d.ReviewCount,
		Introduction:  d.Introduction,
	}
}

func genresToJSON(genres []movie.Genre) []genreJSON {
	out := make([]genreJSON, len(genres))
	for i, g := range genres {
		out[i] = genreJSON{GenreID: g.ID, Name: g.Name, MovieCount: g.MovieCount}
	}
	return out
}

func celebritiesToJSON(people []movie.Celebrity) []celebrityJSON {
	out := make([]celebrityJSON, len(people))
	for i, c := range people {
		out[i] = celebrityJSON{ID: c.ID, Name: c.Name, Role: string(c.Role)}
	}
	return out
}

func celebrityDetailToJSON(d *movie.CelebrityDetail) celebrityDetailJSON {
	out := celebrityDetailJSON{
		Name:   d.Name,
		Roles:  make([]string, len(d.Roles)),
		Movies: make([]celebrityMovieJSON, len(d.Movies)),
	}
	for i, r := range d.Roles {
		out.Roles[i] = string(r)
	}
	for i, m := range d.Movies {
		out.Movies[i] = celebrityMovieJSON{movieSummaryJSON: summaryToJSON(m.Summary), Role: string(m.Role)}
	}
	return out
}

func reviewsToJSON(reviews []movie.Review) []reviewJSON {
	out := make([]reviewJSON, len(reviews))
	for i, r := range reviews {
		out[i] = reviewJSON{
			ReviewID:    r.ReviewID,
			CommentID:   r.CommentID,
			UserID:      r.UserID,
			Username:    r.Username,
			UserRating:  r.UserRating,
			Comment:     r.Comment,
			UsefulCount: r.UsefulCount,
			CreatedAt:   r.CreatedAt,
		}
	}
	return out
}

func statisticsToJSON(st *movie.Statistics) statisticsJSON {
	out := statisticsJSON{
		YearDistribution:   make([]decadeJSON, len(st.YearDistribution)),
		GenreDistribution:  make([]genreCountJSON, len(st.GenreDistribution)),
		RatingDistribution: make([]ratingGroupJSON, len(st.RatingDistribution)),
	}
	for i, b := range st.YearDistribution {
		out.YearDistribution[i] = decadeJSON{Decade: b.Label, Count: b.Count}
	}
	for i, b := range st.GenreDistribution {
		out.GenreDistribution[i] = genreCountJSON{Name: b.Label, Count: b.Count}
	}
	for i, b := range st.RatingDistribution {
		group, _ := strconv.ParseFloat(b.Label, 64)
		out.RatingDistribution[i] = ratingGroupJSON{RatingGroup: group, Count: b.Count}
	}
	return out
}

func usageToJSON(report *domusage.Report) usageJSON {
	b := report.Budget()
	out := usageJSON{
		Period:     string(report.Period()),
		TokensUsed: report.TokensUsed(),
		Budget: budgetJSON{
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
		},
	}
	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		out.PeriodStartAt = &start
		out.PeriodEndAt = &end
	}
	if !b.ResetsAt().IsZero() {
		resetsAt := b.ResetsAt().UTC()
		out.Budget.ResetsAt = &resetsAt
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
