// Package nlsearch turns a natural-language movie request into a read-only
// catalog query, degrading to keyword search whenever the model path fails.
package nlsearch

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/moviemind/moviemind/internal/domain"
	"github.com/moviemind/moviemind/internal/domain/movie"
	"github.com/moviemind/moviemind/internal/logger"
	"github.com/moviemind/moviemind/internal/metrics"
)

// MaxRows caps every result, whatever the generated statement asks for.
const MaxRows = 50

// KeywordInterpretationPrefix starts the interpretation of fallback results.
const KeywordInterpretationPrefix = "关键词搜索: "

// Source is the path that produced a result.
type Source string

// Result sources.
const (
	SourceAI      Source = "ai"
	SourceKeyword Source = "keyword"
)

// Fallback reasons, used as metric labels.
const (
	ReasonConfigurationAbsent = "configuration_absent"
	ReasonBudgetExhausted     = "budget_exhausted"
	ReasonNetworkFailure      = "network_failure"
	ReasonUnparsableResponse  = "unparsable_response"
	ReasonRejectedStatement   = "rejected_statement"
	ReasonExecutionFailure    = "execution_failure"
	// ReasonCanceled overrides any other reason once the caller's context is done.
	ReasonCanceled = "canceled"
)

// Result is what Interpret returns. Rows is never nil.
type Result struct {
	Rows           []movie.Summary
	GeneratedSQL   string
	Interpretation string
	Source         Source
}

// Service runs the natural-language search pipeline.
type Service struct {
	gate      Gate
	completer Completer
	runner    StatementRunner
	keywords  KeywordSearcher
}

// New creates the pipeline over its collaborators.
func New(gate Gate, completer Completer, runner StatementRunner, keywords KeywordSearcher) *Service {
	return &Service{gate: gate, completer: completer, runner: runner, keywords: keywords}
}

// Interpret answers text through the model path when possible and through
// keyword search otherwise. It never fails.
func (s *Service) Interpret(ctx context.Context, text string) Result {
	log := logger.FromContext(ctx)

	if err := s.gate.Admit(ctx); err != nil {
		if errors.Is(err, domain.ErrBudgetExceeded) {
			log.Info("Token budget spent, using keyword search", zap.Error(err))
			return s.fallback(ctx, text, ReasonBudgetExhausted)
		}
		log.Debug("AI search unavailable, using keyword search", zap.Error(err))
		return s.fallback(ctx, text, ReasonConfigurationAbsent)
	}

	raw, err := s.completer.Complete(ctx, BuildPrompt(text))
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("Model call failed, using keyword search", zap.Error(err))
		}
		return s.fallback(ctx, text, ReasonNetworkFailure)
	}

	parsed := ParseResponse(raw)
	if parsed.Discarded != "" {
		log.Warn("Model returned a non-SELECT statement",
			zap.String("event", "security"),
			zap.String("statement", parsed.Discarded),
		)
	}
	if !parsed.Found {
		if parsed.Discarded != "" {
			return s.fallback(ctx, text, ReasonRejectedStatement)
		}
		log.Warn("Unparsable model response, using keyword search", zap.String("response", raw))
		return s.fallback(ctx, text, ReasonUnparsableResponse)
	}

	stmt, err := ValidateStatement(parsed.SQL)
	if err != nil {
		fields := []zap.Field{zap.String("event", "security"), zap.String("statement", parsed.SQL)}
		var rejected *domain.RejectedStatementError
		if errors.As(err, &rejected) {
			fields = append(fields, zap.String("reason", rejected.Reason))
		}
		log.Warn("Generated statement rejected", fields...)
		return s.fallback(ctx, text, ReasonRejectedStatement)
	}

	rows, err := s.runner.RunReadOnly(ctx, stmt, MaxRows)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("Generated statement failed, using keyword search",
				zap.String("statement", stmt),
				zap.Error(err),
			)
		}
		return s.fallback(ctx, text, ReasonExecutionFailure)
	}

	rows = capRows(rows)
	metrics.NLSearchRequestsTotal.WithLabelValues(string(SourceAI)).Inc()
	metrics.NLSearchRows.Observe(float64(len(rows)))
	log.Debug("AI search finished", zap.Int("rows", len(rows)), zap.String("statement", stmt))

	return Result{
		Rows:           rows,
		GeneratedSQL:   stmt,
		Interpretation: parsed.Interpretation,
		Source:         SourceAI,
	}
}

// fallback serves text by keyword search. A failing search yields no rows,
// and a caller that has gone away gets no search at all.
func (s *Service) fallback(ctx context.Context, text, reason string) Result {
	var rows []movie.Summary
	if err := ctx.Err(); err != nil {
		reason = ReasonCanceled
		logger.FromContext(ctx).Debug("Search abandoned by caller", zap.Error(err))
	} else {
		rows, err = s.keywords.KeywordSearch(ctx, text, MaxRows)
		if err != nil {
			logger.FromContext(ctx).Error("Keyword search failed", zap.Error(err))
			rows = nil
		}
	}
	metrics.NLSearchFallbackTotal.WithLabelValues(reason).Inc()
	rows = capRows(rows)

	metrics.NLSearchRequestsTotal.WithLabelValues(string(SourceKeyword)).Inc()
	metrics.NLSearchRows.Observe(float64(len(rows)))

	return Result{
		Rows:           rows,
		GeneratedSQL:   KeywordDescription(text),
		Interpretation: KeywordInterpretationPrefix + text,
		Source:         SourceKeyword,
	}
}

// KeywordDescription renders the keyword filter as display-only SQL.
// Single quotes are doubled so the literal stays well formed. It is never executed.
func KeywordDescription(text string) string {
	return "SELECT * FROM movie WHERE cn_title ILIKE '%" + strings.ReplaceAll(text, "'", "''") + "%'"
}

func capRows(rows []movie.Summary) []movie.Summary {
	if rows == nil {
		return []movie.Summary{}
	}
	if len(rows) > MaxRows {
		return rows[:MaxRows]
	}
	return rows
}
