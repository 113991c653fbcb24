package usage

import (
	domusage "github.com/moviemind/moviemind/internal/domain/usage"
	"github.com/moviemind/moviemind/internal/domain/usage/budget"
)

// BudgetReader provides read-only access to the model token budget.
type BudgetReader interface {
	Snapshot(period domusage.Period) budget.Budget
}
