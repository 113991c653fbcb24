package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moviemind/moviemind/internal/db/postgres"
	"github.com/moviemind/moviemind/internal/domain/movie"
	catalogrepo "github.com/moviemind/moviemind/internal/repository/catalog"
	openaiLLM "github.com/moviemind/moviemind/internal/transport/openai"
	"github.com/moviemind/moviemind/internal/usecase/nlsearch"
)

type askOutput struct {
	Query          string        `json:"query"`
	Source         string        `json:"source"`
	GeneratedSQL   string        `json:"generated_sql"`
	Interpretation string        `json:"interpretation"`
	Count          int           `json:"count"`
	Rows           []askMovieRow `json:"rows"`
}

type askMovieRow struct {
	MovieID   int64   `json:"movie_id"`
	Rank      int     `json:"rank"`
	CNTitle   string  `json:"cn_title"`
	Year      int     `json:"year"`
	Rating    float64 `json:"rating"`
	Directors string  `json:"directors"`
}

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Answer a natural-language query against the catalog",
	Long: `Runs the AI search pipeline once and prints the result as JSON.
Without a configured language model the keyword fallback answers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queryTimeout := time.Duration(cfg.Database.QueryTimeoutSec) * time.Second
	pg, err := postgres.New(ctx, postgres.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         2,
		MinConns:         1,
		StatementTimeout: queryTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect catalog database: %w", err)
	}
	defer pg.Close()

	completer := openaiLLM.NewCompleter(&openaiLLM.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Breaker: openaiLLM.BreakerConfig{
			FailureThreshold: cfg.LLM.Breaker.FailureThreshold,
			OpenTimeout:      time.Duration(cfg.LLM.Breaker.OpenTimeoutSec) * time.Second,
			Interval:         time.Duration(cfg.LLM.Breaker.IntervalSec) * time.Second,
			MaxHalfOpen:      cfg.LLM.Breaker.MaxHalfOpen,
		},
		Logger: logger,
	})
	repo := catalogrepo.New(pg).WithStatementTimeout(queryTimeout)
	svc := nlsearch.New(nlsearch.NewGate(cfg.LLM.APIKey, cfg.LLM.BaseURL), completer, repo, repo)

	query := strings.Join(args, " ")
	res := svc.Interpret(ctx, query)

	return printJSON(cmd.OutOrStdout(), newAskOutput(query, &res))
}

func newAskOutput(query string, res *nlsearch.Result) askOutput {
	out := askOutput{
		Query:          query,
		Source:         string(res.Source),
		GeneratedSQL:   res.GeneratedSQL,
		Interpretation: res.Interpretation,
		Count:          len(res.Rows),
		Rows:           make([]askMovieRow, len(res.Rows)),
	}
	for i, m := range res.Rows {
		out.Rows[i] = askRow(m)
	}
	return out
}

func askRow(m movie.Summary) askMovieRow {
	return askMovieRow{
		MovieID:   m.MovieID,
		Rank:      m.Rank,
		CNTitle:   m.CNTitle,
		Year:      m.Year,
		Rating:    m.Rating,
		Directors: m.Directors,
	}
}
