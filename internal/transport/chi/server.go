package chi

import (
	"context"
	"errors"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/moviemind/moviemind/internal/domain"
	"github.com/moviemind/moviemind/internal/domain/movie"
	"github.com/moviemind/moviemind/internal/domain/page"
	domusage "github.com/moviemind/moviemind/internal/domain/usage"
	"github.com/moviemind/moviemind/internal/logger"
	healthuc "github.com/moviemind/moviemind/internal/usecase/health"
	"github.com/moviemind/moviemind/internal/usecase/nlsearch"
	"github.com/moviemind/moviemind/internal/validation"
	"github.com/moviemind/moviemind/internal/version"
)

// maxBodyBytes bounds request bodies; the only body is an AI search query.
const maxBodyBytes = 64 << 10

// CatalogService serves read-only catalog queries.
type CatalogService interface {
	ListMovies(ctx context.Context, f movie.Filter, page, perPage int) ([]movie.ListItem, page.Info, error)
	GetMovie(ctx context.Context, id int64) (movie.Detail, error)
	Search(ctx context.Context, keyword string) ([]movie.Summary, error)
	Genres(ctx context.Context) ([]movie.Genre, error)
	Celebrities(ctx context.Context, role string) ([]movie.Celebrity, error)
	Celebrity(ctx context.Context, name string) (movie.CelebrityDetail, error)
	Reviews(ctx context.Context, movieID int64, page, perPage int) ([]movie.Review, page.Info, error)
	Statistics(ctx context.Context) (movie.Statistics, error)
}

// SearchService answers natural-language queries.
type SearchService interface {
	Interpret(ctx context.Context, text string) nlsearch.Result
}

// UsageService reports model token usage.
type UsageService interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthService aggregates component checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	catalog       CatalogService
	search        SearchService
	usage         UsageService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	catalog CatalogService,
	search SearchService,
	usage UsageService,
	health HealthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		catalog: catalog,
		search:  search,
		usage:   usage,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrBudgetExceeded, http.StatusPaymentRequired, codeBudgetExceeded),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusBadGateway, codeModelUnavailable),
	}
	return s
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to MovieMind API",
		"version": version.Version,
		"endpoints": map[string]string{
			"movies":       "/api/movies",
			"movie_detail": "/api/movies/<id>",
			"search":       "/api/search",
			"ai_search":    "/api/ai-search",
			"genres":       "/api/genres",
			"celebrities":  "/api/celebrities",
			"reviews":      "/api/reviews/<movie_id>",
			"stats":        "/api/stats",
			"usage":        "/api/usage",
		},
	})
}

// ListMovies handles GET /api/movies.
func (s *Server) ListMovies(w http.ResponseWriter, r *http.Request, params ListMoviesParams) {
	f := movie.Filter{
		Genre:     deref(params.Genre),
		YearStart: deref(params.YearStart),
		YearEnd:   deref(params.YearEnd),
		MinRating: deref(params.MinRating),
	}

	items, info, err := s.catalog.ListMovies(r.Context(), f, deref(params.Page), deref(params.PerPage))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success:    true,
		Data:       listItemsToJSON(items),
		Pagination: paginationToJSON(info),
	})
}

// GetMovie handles GET /api/movies/{id}.
func (s *Server) GetMovie(w http.ResponseWriter, r *http.Request, id int64) {
	d, err := s.catalog.GetMovie(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: detailToJSON(&d)})
}

// SearchMovies handles GET /api/search.
func (s *Server) SearchMovies(w http.ResponseWriter, r *http.Request, params SearchMoviesParams) {
	rows, err := s.catalog.Search(r.Context(), deref(params.Keyword))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: summariesToJSON(rows)})
}

// AISearch handles POST /api/ai-search.
func (s *Server) AISearch(w http.ResponseWriter, r *http.Request) {
	var req aiSearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validation.Struct(&req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res := s.search.Interpret(r.Context(), req.Query)
	logger.FromContext(r.Context()).Info("AI search served",
		zap.String("source", string(res.Source)),
		zap.Int("rows", len(res.Rows)),
	)

	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Data:    summariesToJSON(res.Rows),
		QueryInfo: &queryInfoJSON{
			OriginalQuery:  req.Query,
			GeneratedSQL:   res.GeneratedSQL,
			Interpretation: res.Interpretation,
		},
	})
}

// ListGenres handles GET /api/genres.
func (s *Server) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.catalog.Genres(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: genresToJSON(genres)})
}

// ListCelebrities handles GET /api/celebrities.
func (s *Server) ListCelebrities(w http.ResponseWriter, r *http.Request, params ListCelebritiesParams) {
	people, err := s.catalog.Celebrities(r.Context(), deref(params.Role))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: celebritiesToJSON(people)})
}

// GetCelebrity handles GET /api/celebrities/{name}.
func (s *Server) GetCelebrity(w http.ResponseWriter, r *http.Request, name string) {
	d, err := s.catalog.Celebrity(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: celebrityDetailToJSON(&d)})
}

// ListReviews handles GET /api/reviews/{movie_id}.
func (s *Server) ListReviews(w http.ResponseWriter, r *http.Request, movieID int64, params ListReviewsParams) {
	reviews, info, err := s.catalog.Reviews(r.Context(), movieID, deref(params.Page), deref(params.PerPage))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success:    true,
		Data:       reviewsToJSON(reviews),
		Pagination: paginationToJSON(info),
	})
}

// GetStatistics handles GET /api/stats.
func (s *Server) GetStatistics(w http.ResponseWriter, r *http.Request) {
	st, err := s.catalog.Statistics(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: statisticsToJSON(&st)})
}

// GetUsage handles GET /api/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams) {
	period, ok := domusage.ParsePeriod(deref(params.Period))
	if !ok {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "period must be one of [day month]")
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: usageToJSON(&report)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthJSON{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ParamErrorHandler answers binding and validation failures with a 400 envelope.
func ParamErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, verr.Error())
		return
	}
	writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message, Code: code})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidRequest,
		domain.ErrRateLimited,
		domain.ErrBudgetExceeded,
		domain.ErrModelUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler reports field-level validation messages, which are safe to echo.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return false
	}
	writeError(w, http.StatusBadRequest, codeValidationFailed, verr.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(
		zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
	)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
