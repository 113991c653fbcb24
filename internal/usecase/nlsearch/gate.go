package nlsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrModelNotConfigured means no credential or endpoint is set for the language model.
var ErrModelNotConfigured = errors.New("language model not configured")

// ConfigGate admits the model path when a credential and an endpoint are configured
// and the token budget, if any, still allows calls.
type ConfigGate struct {
	apiKey  string
	baseURL string
	budget  BudgetChecker
}

// NewGate creates a gate over the configured credential and endpoint.
func NewGate(apiKey, baseURL string) *ConfigGate {
	return &ConfigGate{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimSpace(baseURL),
	}
}

// WithBudget makes the gate consult b on every call.
func (g *ConfigGate) WithBudget(b BudgetChecker) *ConfigGate {
	g.budget = b
	return g
}

// Configured reports whether both credential and endpoint are set.
func (g *ConfigGate) Configured() bool {
	return g.apiKey != "" && g.baseURL != ""
}

// Admit returns nil when the model may be called.
func (g *ConfigGate) Admit(ctx context.Context) error {
	if !g.Configured() {
		return ErrModelNotConfigured
	}
	if g.budget != nil {
		if err := g.budget.Check(ctx); err != nil {
			return fmt.Errorf("token budget: %w", err)
		}
	}
	return nil
}
