package usage

import (
	"context"
	"time"

	domusage "github.com/moviemind/moviemind/internal/domain/usage"
	"github.com/moviemind/moviemind/internal/domain/usage/budget"
)

// Service reports language-model token usage.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: func() time.Time { return time.Now().UTC() }}
}

// GetReport builds a usage report for the given period. Unknown periods report the day.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	if period != domusage.PeriodMonth {
		period = domusage.PeriodDay
	}
	start, end := period.Bounds(s.now())

	b := budget.New(0, 0, end)
	if s.br != nil {
		b = s.br.Snapshot(period)
	}
	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), b.TokensUsed(), b)
}
