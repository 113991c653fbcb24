package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/moviemind/moviemind/internal/domain"
	"github.com/moviemind/moviemind/internal/domain/movie"
	"github.com/moviemind/moviemind/internal/domain/page"
	domusage "github.com/moviemind/moviemind/internal/domain/usage"
	"github.com/moviemind/moviemind/internal/domain/usage/budget"
	healthuc "github.com/moviemind/moviemind/internal/usecase/health"
	"github.com/moviemind/moviemind/internal/usecase/nlsearch"
)

// --- Mocks ---

type mockCatalog struct {
	err        error
	filter     movie.Filter
	page       int
	perPage    int
	keyword    string
	role       string
	name       string
	movieID    int64
	items      []movie.ListItem
	detail     movie.Detail
	summaries  []movie.Summary
	celebrity  movie.CelebrityDetail
	statistics movie.Statistics
}

func (m *mockCatalog) ListMovies(_ context.Context, f movie.Filter, p, pp int) ([]movie.ListItem, page.Info, error) {
	m.filter, m.page, m.perPage = f, p, pp
	if m.err != nil {
		return nil, page.Info{}, m.err
	}
	return m.items, page.InfoFor(page.New(p, pp, 20, 100), 45), nil
}

func (m *mockCatalog) GetMovie(_ context.Context, id int64) (movie.Detail, error) {
	m.movieID = id
	return m.detail, m.err
}

func (m *mockCatalog) Search(_ context.Context, keyword string) ([]movie.Summary, error) {
	m.keyword = keyword
	return m.summaries, m.err
}

func (m *mockCatalog) Genres(_ context.Context) ([]movie.Genre, error) {
	return []movie.Genre{{ID: 1, Name: "剧情", MovieCount: 180}}, m.err
}

func (m *mockCatalog) Celebrities(_ context.Context, role string) ([]movie.Celebrity, error) {
	m.role = role
	return []movie.Celebrity{{ID: 7, Name: "宫崎骏", Role: movie.RoleDirector}}, m.err
}

func (m *mockCatalog) Celebrity(_ context.Context, name string) (movie.CelebrityDetail, error) {
	m.name = name
	return m.celebrity, m.err
}

func (m *mockCatalog) Reviews(_ context.Context, id int64, p, pp int) ([]movie.Review, page.Info, error) {
	m.movieID, m.page, m.perPage = id, p, pp
	return []movie.Review{{ReviewID: 1, Username: "u"}}, page.InfoFor(page.New(p, pp, 10, 100), 1), m.err
}

func (m *mockCatalog) Statistics(_ context.Context) (movie.Statistics, error) {
	return m.statistics, m.err
}

type mockSearch struct {
	result nlsearch.Result
	query  string
}

func (m *mockSearch) Interpret(_ context.Context, text string) nlsearch.Result {
	m.query = text
	return m.result
}

type mockUsage struct {
	period domusage.Period
}

func (m *mockUsage) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	m.period = period
	return domusage.NewReport(period, 1_700_000_000_000, 1_700_086_400_000, 1200,
		budget.New(10000, 1200, time.UnixMilli(1_700_086_400_000)))
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *paginationJSON `json:"pagination"`
	QueryInfo  *queryInfoJSON  `json:"query_info"`
	Error      string          `json:"error"`
	Code       string          `json:"code"`
}

type fixture struct {
	catalog *mockCatalog
	search  *mockSearch
	usage   *mockUsage
	health  *mockHealth
	handler http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		catalog: &mockCatalog{},
		search:  &mockSearch{},
		usage:   &mockUsage{},
		health:  &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK}}},
	}
	srv := NewServer(f.catalog, f.search, f.usage, f.health, zap.NewNop())
	f.handler = HandlerWithOptions(srv, ChiServerOptions{ErrorHandlerFunc: ParamErrorHandler})
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return rr, env
}

// --- Tests ---

func TestListMovies_BindsParams(t *testing.T) {
	f := newFixture()
	f.catalog.items = []movie.ListItem{{Summary: movie.Summary{MovieID: 1, CNTitle: "肖申克的救赎"}, Description: "希望"}}

	rr, env := f.do(t, "GET", "/api/movies?page=2&per_page=10&genre="+url.QueryEscape("剧情")+"&year_start=1990&year_end=2000&min_rating=9.1", "")

	if rr.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected 200 success, got %d %+v", rr.Code, env)
	}
	want := movie.Filter{Genre: "剧情", YearStart: 1990, YearEnd: 2000, MinRating: 9.1}
	if f.catalog.filter != want || f.catalog.page != 2 || f.catalog.perPage != 10 {
		t.Errorf("unexpected binding: %+v page=%d per_page=%d", f.catalog.filter, f.catalog.page, f.catalog.perPage)
	}
	if env.Pagination == nil || env.Pagination.Total != 45 || env.Pagination.TotalPages != 5 {
		t.Errorf("unexpected pagination: %+v", env.Pagination)
	}

	var items []movieListItemJSON
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(items) != 1 || items[0].CNTitle != "肖申克的救赎" || items[0].Description != "希望" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestListMovies_EmptyDataIsArray(t *testing.T) {
	f := newFixture()
	f.catalog.items = nil

	_, env := f.do(t, "GET", "/api/movies", "")
	if string(env.Data) != "[]" {
		t.Errorf("expected empty array, got %s", env.Data)
	}
}

func TestListMovies_BadParams(t *testing.T) {
	f := newFixture()

	tests := []struct {
		query string
		code  string
	}{
		{"page=abc", codeBadRequest},
		{"page=0", codeValidationFailed},
		{"min_rating=11", codeValidationFailed},
		{"year_start=99999", codeValidationFailed},
	}
	for _, tt := range tests {
		rr, env := f.do(t, "GET", "/api/movies?"+tt.query, "")
		if rr.Code != http.StatusBadRequest || env.Success || env.Code != tt.code {
			t.Errorf("%s: got %d %+v, want 400 %s", tt.query, rr.Code, env, tt.code)
		}
	}
}

func TestListMovies_DomainValidationError(t *testing.T) {
	f := newFixture()
	f.catalog.err = errors.Join(domain.ErrInvalidRequest, errors.New("year_start is after year_end"))

	rr, env := f.do(t, "GET", "/api/movies?year_start=2000&year_end=1990", "")
	if rr.Code != http.StatusBadRequest || env.Code != codeValidationFailed {
		t.Errorf("got %d %+v", rr.Code, env)
	}
}

func TestGetMovie(t *testing.T) {
	f := newFixture()
	f.catalog.detail = movie.Detail{MovieID: 3, CNTitle: "霸王别姬", Introduction: "简介"}

	rr, env := f.do(t, "GET", "/api/movies/3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if f.catalog.movieID != 3 {
		t.Errorf("expected id 3, got %d", f.catalog.movieID)
	}

	var d movieDetailJSON
	if err := json.Unmarshal(env.Data, &d); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if d.Introduction != "简介" || d.Genres == nil || d.Directors == nil || d.Actors == nil {
		t.Errorf("unexpected detail: %+v", d)
	}
}

func TestGetMovie_NotFound(t *testing.T) {
	f := newFixture()
	f.catalog.err = domain.ErrNotFound

	rr, env := f.do(t, "GET", "/api/movies/999", "")
	if rr.Code != http.StatusNotFound || env.Success || env.Code != codeNotFound {
		t.Errorf("got %d %+v", rr.Code, env)
	}
}

func TestGetMovie_BadID(t *testing.T) {
	rr, env := newFixture().do(t, "GET", "/api/movies/abc", "")
	if rr.Code != http.StatusBadRequest || env.Code != codeBadRequest {
		t.Errorf("got %d %+v", rr.Code, env)
	}
}

func TestGetMovie_InternalErrorIsMasked(t *testing.T) {
	f := newFixture()
	f.catalog.err = errors.New("pq: password authentication failed for user gaussdb")

	rr, env := f.do(t, "GET", "/api/movies/1", "")
	if rr.Code != http.StatusInternalServerError || env.Error != "internal error" || env.Code != codeInternalError {
		t.Errorf("got %d %+v", rr.Code, env)
	}
}

func TestSearchMovies(t *testing.T) {
	f := newFixture()
	f.catalog.summaries = []movie.Summary{{MovieID: 9}}

	rr, env := f.do(t, "GET", "/api/search?keyword="+url.QueryEscape("诺兰"), "")
	if rr.Code != http.StatusOK || f.catalog.keyword != "诺兰" {
		t.Errorf("got %d keyword=%q", rr.Code, f.catalog.keyword)
	}
	var rows []movieSummaryJSON
	if err := json.Unmarshal(env.Data, &rows); err != nil || len(rows) != 1 || rows[0].MovieID != 9 {
		t.Errorf("unexpected rows: %s (%v)", env.Data, err)
	}
}

func TestSearchMovies_MissingKeyword(t *testing.T) {
	f := newFixture()
	for _, target := range []string{"/api/search", "/api/search?keyword=", "/api/search?keyword=%20%20"} {
		rr, env := f.do(t, "GET", target, "")
		if rr.Code != http.StatusBadRequest || env.Success {
			t.Errorf("%s: got %d %+v", target, rr.Code, env)
		}
	}
}

func TestAISearch(t *testing.T) {
	f := newFixture()
	f.search.result = nlsearch.Result{
		Rows:           []movie.Summary{{MovieID: 1, CNTitle: "星际穿越"}},
		GeneratedSQL:   "SELECT * FROM movie WHERE cn_title ILIKE '%高分科幻%'",
		Interpretation: "关键词搜索: 高分科幻",
		Source:         nlsearch.SourceKeyword,
	}

	rr, env := f.do(t, "POST", "/api/ai-search", `{"query": "高分科幻"}`)
	if rr.Code != http.StatusOK || !env.Success {
		t.Fatalf("got %d %+v", rr.Code, env)
	}
	if f.search.query != "高分科幻" {
		t.Errorf("expected query forwarded, got %q", f.search.query)
	}
	if env.QueryInfo == nil ||
		env.QueryInfo.OriginalQuery != "高分科幻" ||
		env.QueryInfo.GeneratedSQL != f.search.result.GeneratedSQL ||
		env.QueryInfo.Interpretation != f.search.result.Interpretation {
		t.Errorf("unexpected query_info: %+v", env.QueryInfo)
	}
	var rows []movieSummaryJSON
	if err := json.Unmarshal(env.Data, &rows); err != nil || len(rows) != 1 {
		t.Errorf("unexpected rows: %s (%v)", env.Data, err)
	}
}

func TestAISearch_RejectsEmptyOrInvalid(t *testing.T) {
	f := newFixture()
	for _, body := range []string{`{"query": ""}`, `{"query": "   "}`, `{}`, `not json`, `{"query": "` + strings.Repeat("长", 4097) + `"}`} {
		rr, env := f.do(t, "POST", "/api/ai-search", body)
		if rr.Code != http.StatusBadRequest || env.Success {
			t.Errorf("body %.20q: got %d %+v", body, rr.Code, env)
		}
	}
	if f.search.query != "" {
		t.Errorf("pipeline must not run for invalid requests, got %q", f.search.query)
	}
}

func TestListCelebrities_PassesRole(t *testing.T) {
	f := newFixture()

	rr, _ := f.do(t, "GET", "/api/celebrities?role="+url.QueryEscape("导演"), "")
	if rr.Code != http.StatusOK || f.catalog.role != "导演" {
		t.Errorf("got %d role=%q", rr.Code, f.catalog.role)
	}
}

func TestGetCelebrity_DecodesName(t *testing.T) {
	f := newFixture()
	f.catalog.celebrity = movie.CelebrityDetail{
		Name:   "宫崎骏",
		Roles:  []movie.Role{movie.RoleDirector},
		Movies: []movie.CelebrityMovie{{Summary: movie.Summary{MovieID: 5}, Role: movie.RoleDirector}},
	}

	rr, env := f.do(t, "GET", "/api/celebrities/"+url.PathEscape("宫崎骏"), "")
	if rr.Code != http.StatusOK || f.catalog.name != "宫崎骏" {
		t.Fatalf("got %d name=%q", rr.Code, f.catalog.name)
	}
	var d celebrityDetailJSON
	if err := json.Unmarshal(env.Data, &d); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(d.Roles) != 1 || d.Roles[0] != "director" || len(d.Movies) != 1 || d.Movies[0].Role != "director" {
		t.Errorf("unexpected detail: %+v", d)
	}
}

func TestGetCelebrity_NotFound(t *testing.T) {
	f := newFixture()
	f.catalog.err = domain.ErrNotFound

	rr, _ := f.do(t, "GET", "/api/celebrities/nobody", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestListReviews(t *testing.T) {
	f := newFixture()

	rr, env := f.do(t, "GET", "/api/reviews/12?page=3&per_page=5", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if f.catalog.movieID != 12 || f.catalog.page != 3 || f.catalog.perPage != 5 {
		t.Errorf("unexpected binding: id=%d page=%d per_page=%d", f.catalog.movieID, f.catalog.page, f.catalog.perPage)
	}
	if env.Pagination == nil || env.Pagination.Page != 3 {
		t.Errorf("unexpected pagination: %+v", env.Pagination)
	}
}

func TestGetStatistics(t *testing.T) {
	f := newFixture()
	f.catalog.statistics = movie.Statistics{
		YearDistribution:   []movie.Bucket{{Label: "1990s", Count: 40}},
		GenreDistribution:  []movie.Bucket{{Label: "剧情", Count: 180}},
		RatingDistribution: []movie.Bucket{{Label: "9", Count: 60}},
	}

	_, env := f.do(t, "GET", "/api/stats", "")

	var st statisticsJSON
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if st.YearDistribution[0].Decade != "1990s" || st.GenreDistribution[0].Name != "剧情" || st.RatingDistribution[0].RatingGroup != 9 {
		t.Errorf("unexpected statistics: %+v", st)
	}
}

func TestGetUsage(t *testing.T) {
	f := newFixture()

	rr, env := f.do(t, "GET", "/api/usage?period=month", "")
	if rr.Code != http.StatusOK || f.usage.period != domusage.PeriodMonth {
		t.Fatalf("got %d period=%q", rr.Code, f.usage.period)
	}
	var u usageJSON
	if err := json.Unmarshal(env.Data, &u); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if u.TokensUsed != 1200 || u.Budget.TokensRemaining != 8800 || u.Budget.ResetsAt == nil || u.PeriodStartAt == nil {
		t.Errorf("unexpected usage: %+v", u)
	}

	f.do(t, "GET", "/api/usage", "")
	if f.usage.period != domusage.PeriodDay {
		t.Errorf("expected default day period, got %q", f.usage.period)
	}

	rr, env = f.do(t, "GET", "/api/usage?period=year", "")
	if rr.Code != http.StatusBadRequest || env.Code != codeValidationFailed {
		t.Errorf("got %d %+v", rr.Code, env)
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture()

	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("healthy: expected 200, got %d", rr.Code)
	}

	f.health.report = healthuc.Report{Status: healthuc.Degraded, Checks: map[string]healthuc.CheckResult{"model": healthuc.CheckError}}
	rr = httptest.NewRecorder()
	f.handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("degraded: expected 200, got %d", rr.Code)
	}

	f.health.report = healthuc.Report{Status: healthuc.Unhealthy, Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError}}
	rr = httptest.NewRecorder()
	f.handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy: expected 503, got %d", rr.Code)
	}

	var h healthJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if h.Status != "error" || h.Checks["database"] != "error" {
		t.Errorf("unexpected health body: %+v", h)
	}
}

func TestIndex(t *testing.T) {
	rr := httptest.NewRecorder()
	newFixture().handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "/api/ai-search") {
		t.Errorf("unexpected index: %d %s", rr.Code, rr.Body.String())
	}
}
