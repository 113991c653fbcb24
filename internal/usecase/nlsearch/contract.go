package nlsearch

import (
	"context"

	"github.com/moviemind/moviemind/internal/domain/movie"
)

// Gate admits the model path for this call. The returned error says why it may not run:
// ErrModelNotConfigured, or an error matching domain.ErrBudgetExceeded.
type Gate interface {
	Admit(ctx context.Context) error
}

// Completer turns a prompt into raw model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatementRunner executes a validated read-only statement and maps at most limit rows.
type StatementRunner interface {
	RunReadOnly(ctx context.Context, sql string, limit int) ([]movie.Summary, error)
}

// KeywordSearcher is the fallback lookup over titles and people.
type KeywordSearcher interface {
	KeywordSearch(ctx context.Context, text string, limit int) ([]movie.Summary, error)
}

// BudgetChecker refuses calls once the model token budget is exhausted.
type BudgetChecker interface {
	Check(ctx context.Context) error
}
