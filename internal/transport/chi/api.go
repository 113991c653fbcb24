package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/moviemind/moviemind/internal/validation"
)

// ServerInterface is the HTTP API surface.
type ServerInterface interface {
	// (GET /)
	Index(w http.ResponseWriter, r *http.Request)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
	// (GET /api/movies)
	ListMovies(w http.ResponseWriter, r *http.Request, params ListMoviesParams)
	// (GET /api/movies/{id})
	GetMovie(w http.ResponseWriter, r *http.Request, id int64)
	// (GET /api/search)
	SearchMovies(w http.ResponseWriter, r *http.Request, params SearchMoviesParams)
	// (POST /api/ai-search)
	AISearch(w http.ResponseWriter, r *http.Request)
	// (GET /api/genres)
	ListGenres(w http.ResponseWriter, r *http.Request)
	// (GET /api/celebrities)
	ListCelebrities(w http.ResponseWriter, r *http.Request, params ListCelebritiesParams)
	// (GET /api/celebrities/{name})
	GetCelebrity(w http.ResponseWriter, r *http.Request, name string)
	// (GET /api/reviews/{movie_id})
	ListReviews(w http.ResponseWriter, r *http.Request, movieID int64, params ListReviewsParams)
	// (GET /api/stats)
	GetStatistics(w http.ResponseWriter, r *http.Request)
	// (GET /api/usage)
	GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams)
}

// ListMoviesParams defines parameters for ListMovies.
type ListMoviesParams struct {
	Page      *int     `query:"page" validate:"omitempty,gte=1"`
	PerPage   *int     `query:"per_page" validate:"omitempty,gte=1"`
	Genre     *string  `query:"genre"`
	YearStart *int     `query:"year_start" validate:"omitempty,gte=1800,lte=2200"`
	YearEnd   *int     `query:"year_end" validate:"omitempty,gte=1800,lte=2200"`
	MinRating *float64 `query:"min_rating" validate:"omitempty,gte=0,lte=10"`
}

// SearchMoviesParams defines parameters for SearchMovies.
type SearchMoviesParams struct {
	Keyword *string `query:"keyword" validate:"required,notblank,max=200"`
}

// ListCelebritiesParams defines parameters for ListCelebrities.
type ListCelebritiesParams struct {
	Role *string `query:"role"`
}

// ListReviewsParams defines parameters for ListReviews.
type ListReviewsParams struct {
	Page    *int `query:"page" validate:"omitempty,gte=1"`
	PerPage *int `query:"per_page" validate:"omitempty,gte=1"`
}

// GetUsageParams defines parameters for GetUsage.
type GetUsageParams struct {
	Period *string `query:"period" validate:"omitempty,oneof=day month"`
}

// InvalidParamFormatError reports a parameter that could not be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// MiddlewareFunc wraps a single route handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// ServerInterfaceWrapper binds path and query parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.HandlerFunc) {
	var handler http.Handler = h
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

// bindQuery binds an optional form-style query parameter.
func bindQuery(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return &InvalidParamFormatError{ParamName: name, Err: err}
	}
	return nil
}

// bindPath binds a required simple-style path parameter.
func bindPath(r *http.Request, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return &InvalidParamFormatError{ParamName: name, Err: err}
	}
	return nil
}

// Index operation middleware.
func (siw *ServerInterfaceWrapper) Index(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.Index)
}

// HealthCheck operation middleware.
func (siw *ServerInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.HealthCheck)
}

// Metrics operation middleware.
func (siw *ServerInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.Metrics)
}

// ListMovies operation middleware.
func (siw *ServerInterfaceWrapper) ListMovies(w http.ResponseWriter, r *http.Request) {
	var params ListMoviesParams
	for _, p := range []struct {
		name string
		dest any
	}{
		{"page", &params.Page},
		{"per_page", &params.PerPage},
		{"genre", &params.Genre},
		{"year_start", &params.YearStart},
		{"year_end", &params.YearEnd},
		{"min_rating", &params.MinRating},
	} {
		if err := bindQuery(r, p.name, p.dest); err != nil {
			siw.ErrorHandlerFunc(w, r, err)
			return
		}
	}
	if err := validation.Struct(&params); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListMovies(w, r, params)
	})
}

// GetMovie operation middleware.
func (siw *ServerInterfaceWrapper) GetMovie(w http.ResponseWriter, r *http.Request) {
	var id int64
	if err := bindPath(r, "id", &id); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetMovie(w, r, id)
	})
}

// SearchMovies operation middleware.
func (siw *ServerInterfaceWrapper) SearchMovies(w http.ResponseWriter, r *http.Request) {
	var params SearchMoviesParams
	if err := bindQuery(r, "keyword", &params.Keyword); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}
	if err := validation.Struct(&params); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SearchMovies(w, r, params)
	})
}

// AISearch operation middleware.
func (siw *ServerInterfaceWrapper) AISearch(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.AISearch)
}

// ListGenres operation middleware.
func (siw *ServerInterfaceWrapper) ListGenres(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListGenres)
}

// ListCelebrities operation middleware.
func (siw *ServerInterfaceWrapper) ListCelebrities(w http.ResponseWriter, r *http.Request) {
	var params ListCelebritiesParams
	if err := bindQuery(r, "role", &params.Role); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListCelebrities(w, r, params)
	})
}

// GetCelebrity operation middleware.
func (siw *ServerInterfaceWrapper) GetCelebrity(w http.ResponseWriter, r *http.Request) {
	var name string
	if err := bindPath(r, "name", &name); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetCelebrity(w, r, name)
	})
}

// ListReviews operation middleware.
func (siw *ServerInterfaceWrapper) ListReviews(w http.ResponseWriter, r *http.Request) {
	var movieID int64
	if err := bindPath(r, "movie_id", &movieID); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}

	var params ListReviewsParams
	if err := bindQuery(r, "page", &params.Page); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}
	if err := bindQuery(r, "per_page", &params.PerPage); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}
	if err := validation.Struct(&params); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListReviews(w, r, movieID, params)
	})
}

// GetStatistics operation middleware.
func (siw *ServerInterfaceWrapper) GetStatistics(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetStatistics)
}

// GetUsage operation middleware.
func (siw *ServerInterfaceWrapper) GetUsage(w http.ResponseWriter, r *http.Request) {
	var params GetUsageParams
	if err := bindQuery(r, "period", &params.Period); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}
	if err := validation.Struct(&params); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetUsage(w, r, params)
	})
}

// HandlerWithOptions mounts si on a chi router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	base := options.BaseURL
	r.Get(base+"/", wrapper.Index)
	r.Get(base+"/health", wrapper.HealthCheck)
	r.Get(base+"/metrics", wrapper.Metrics)
	r.Group(func(r chi.Router) {
		r.Get(base+"/api/movies", wrapper.ListMovies)
		r.Get(base+"/api/movies/{id}", wrapper.GetMovie)
		r.Get(base+"/api/search", wrapper.SearchMovies)
		r.Post(base+"/api/ai-search", wrapper.AISearch)
		r.Get(base+"/api/genres", wrapper.ListGenres)
		r.Get(base+"/api/celebrities", wrapper.ListCelebrities)
		r.Get(base+"/api/celebrities/{name}", wrapper.GetCelebrity)
		r.Get(base+"/api/reviews/{movie_id}", wrapper.ListReviews)
		r.Get(base+"/api/stats", wrapper.GetStatistics)
		r.Get(base+"/api/usage", wrapper.GetUsage)
	})
	return r
}
