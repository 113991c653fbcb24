// Package catalog reads the movie catalog from PostgreSQL (or openGauss).
package catalog

import (
	"context"
	"time"

	"github.com/moviemind/moviemind/internal/db/postgres"
)

// store is the consumer interface for catalog reads (ISP).
type store interface {
	Querier() postgres.Querier
	WithReadOnlyTx(ctx context.Context, fn func(q postgres.Querier) error) error
}

// Repo implements the catalog read model and the read-only statement runner.
type Repo struct {
	store            store
	statementTimeout time.Duration
}

// New creates a catalog repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// WithStatementTimeout bounds each generated statement at the server (SET LOCAL statement_timeout).
func (r *Repo) WithStatementTimeout(d time.Duration) *Repo {
	r.statementTimeout = d
	return r
}
