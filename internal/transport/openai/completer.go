package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/moviemind/moviemind/internal/domain"
	"github.com/moviemind/moviemind/internal/metrics"
)

// TokenRecorder receives tokens consumed by successful completions.
type TokenRecorder interface {
	Record(tokens int64)
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Interval         time.Duration
	MaxHalfOpen      uint32
}

// Config holds the chat completion provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Breaker     BreakerConfig
	Logger      *zap.Logger
}

// Completer sends single-turn prompts to an OpenAI-compatible chat completion API (e.g. DeepSeek).
// Each call is one request, bounded by Timeout and the caller's context, never retried.
type Completer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *gobreaker.CircuitBreaker[openai.ChatCompletionResponse]
	budget      TokenRecorder
	logger      *zap.Logger
}

// NewCompleter creates a chat completion client.
func NewCompleter(cfg *Config) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	c := &Completer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}
	c.cb = newBreaker(cfg.Model, cfg.Breaker, cfg.Logger)
	return c
}

// WithBudget feeds consumed tokens to r.
func (c *Completer) WithBudget(r TokenRecorder) *Completer {
	c.budget = r
	return c
}

// Model returns the configured model id.
func (c *Completer) Model() string { return c.model }

func newBreaker(name string, cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[openai.ChatCompletionResponse] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	metrics.LLMBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[openai.ChatCompletionResponse](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxHalfOpen,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller giving up says nothing about the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.LLMBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("Model circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Complete sends prompt as a single user message and returns the first choice's content.
// Every failure wraps domain.ErrModelUnavailable.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	start := time.Now()

	resp, err := c.cb.Execute(func() (openai.ChatCompletionResponse, error) {
		return c.client.CreateChatCompletion(ctx, req)
	})

	duration := time.Since(start)

	if err != nil {
		errType := classifyError(ctx, err)
		metrics.LLMRequestsTotal.WithLabelValues(c.model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(c.model, errType).Inc()
		return "", parseAPIError(errType, err)
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))
		if c.budget != nil {
			c.budget.Record(int64(resp.Usage.TotalTokens))
		}
	}

	if len(resp.Choices) == 0 {
		metrics.LLMErrorsTotal.WithLabelValues(c.model, "empty_response").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrModelUnavailable)
	}

	c.logger.Debug("Chat completion finished",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)

	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func classifyError(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "api_error"
	}
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrModelUnavailable.
func parseAPIError(errType string, err error) error {
	wrap := domain.ErrModelUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("completion API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("completion API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed (%s): %v: %w", errType, err, wrap)
}

// extractDetail reads "detail" or "message" from a non-standard JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Message
}
