package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/moviemind/moviemind/internal/domain"
	domusage "github.com/moviemind/moviemind/internal/domain/usage"
	dombudget "github.com/moviemind/moviemind/internal/domain/usage/budget"
	"github.com/moviemind/moviemind/internal/metrics"
)

// Action defines behavior when a window's allowance is spent.
type Action string

const (
	// ActionWarn logs once per window and keeps calling the model.
	ActionWarn Action = "warn"
	// ActionReject refuses model calls until the window rolls over.
	ActionReject Action = "reject"
)

// ParseAction maps a config value to an Action. Anything but "reject" warns.
func ParseAction(s string) Action {
	if Action(s) == ActionReject {
		return ActionReject
	}
	return ActionWarn
}

const (
	syncTimeout = 2 * time.Second
	// counterGrace keeps a shared counter readable for a day after its window closes.
	counterGrace = 24 * time.Hour
)

// Limits caps model tokens per UTC window. Zero leaves a window unlimited.
type Limits struct {
	Daily   int64
	Monthly int64
}

// Store holds token counters shared by every replica of the service.
type Store interface {
	// Add charges tokens to key, arming ttl on first write, and returns the shared total.
	Add(ctx context.Context, key string, tokens int64, ttl time.Duration) (int64, error)
	Load(ctx context.Context, key string) (int64, error)
}

// ExhaustedError names the window whose allowance is spent. It matches domain.ErrBudgetExceeded.
type ExhaustedError struct {
	Period domusage.Period
	Budget dombudget.Budget
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s token budget spent: %d of %d used, resets at %s",
		e.Period, e.Budget.TokensUsed(), e.Budget.TokensLimit(), e.Budget.ResetsAt().Format(time.RFC3339))
}

func (e *ExhaustedError) Unwrap() error { return domain.ErrBudgetExceeded }

// window accounts one UTC period.
type window struct {
	period domusage.Period
	limit  int64
	used   int64
	start  time.Time
	end    time.Time
	warned bool
}

func newWindow(p domusage.Period, limit int64, now time.Time) *window {
	w := &window{period: p, limit: limit}
	w.start, w.end = p.Bounds(now)
	return w
}

// roll moves the window forward once now has left it.
func (w *window) roll(now time.Time) {
	if now.Before(w.end) {
		return
	}
	w.start, w.end = w.period.Bounds(now)
	w.used = 0
	w.warned = false
}

func (w *window) snapshot() dombudget.Budget {
	return dombudget.New(w.limit, w.used, w.end)
}

// pendingCharge is a Record waiting to reach the shared store.
type pendingCharge struct {
	w     *window
	start time.Time
	key   string
	ttl   time.Duration
}

// Tracker meters language-model tokens against daily and monthly allowances.
// Check and Snapshot never touch the store; Record writes behind and adopts
// totals charged by other replicas.
type Tracker struct {
	mu      sync.Mutex
	model   string
	action  Action
	windows []*window
	store   Store
	logger  *zap.Logger
	now     func() time.Time
}

// NewTracker creates a tracker for the given model.
func NewTracker(model string, limits Limits, action Action, logger *zap.Logger) *Tracker {
	t := &Tracker{
		model:  model,
		action: action,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	now := t.now()
	t.windows = []*window{
		newWindow(domusage.PeriodDay, limits.Daily, now),
		newWindow(domusage.PeriodMonth, limits.Monthly, now),
	}
	t.publish()
	return t
}

// WithStore attaches shared counters and seeds the current windows from them.
// A failed load leaves that window at zero.
func (t *Tracker) WithStore(ctx context.Context, store Store) *Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store = store
	for _, w := range t.windows {
		key := t.key(w)
		used, err := store.Load(ctx, key)
		if err != nil {
			t.logger.Warn("Failed to load token counter", zap.String("key", key), zap.Error(err))
			continue
		}
		w.used = used
	}
	t.publish()
	return t
}

// key names the shared counter of a window,
// e.g. moviemind:llm_tokens:deepseek-chat:day:2026-10-19.
func (t *Tracker) key(w *window) string {
	layout := "2006-01-02"
	if w.period == domusage.PeriodMonth {
		layout = "2006-01"
	}
	return fmt.Sprintf("%sllm_tokens:%s:%s:%s", domain.KeyPrefix, t.model, w.period, w.start.Format(layout))
}

// Check admits a model call. With ActionReject it returns an *ExhaustedError for the
// first spent window; with ActionWarn it logs once per spent window and admits.
func (t *Tracker) Check(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.roll()
	for _, w := range t.windows {
		snap := w.snapshot()
		if !snap.IsExhausted() {
			continue
		}
		if t.action == ActionReject {
			return &ExhaustedError{Period: w.period, Budget: snap}
		}
		if !w.warned {
			w.warned = true
			t.logger.Warn("Token budget spent, model calls continue",
				zap.String("period", string(w.period)),
				zap.Int64("used", w.used),
				zap.Int64("limit", w.limit),
				zap.Time("resets_at", w.end),
			)
		}
	}
	return nil
}

// Record charges tokens from a completed model call to every window.
func (t *Tracker) Record(tokens int64) {
	if tokens <= 0 {
		return
	}

	t.mu.Lock()
	t.roll()
	now := t.now()
	charges := make([]pendingCharge, 0, len(t.windows))
	for _, w := range t.windows {
		w.used += tokens
		charges = append(charges, pendingCharge{
			w:     w,
			start: w.start,
			key:   t.key(w),
			ttl:   w.end.Sub(now) + counterGrace,
		})
	}
	t.publish()
	store := t.store
	t.mu.Unlock()

	if store != nil {
		t.sync(store, charges, tokens)
	}
}

// sync pushes a charge to the store under its own deadline, detached from
// the caller's context.
func (t *Tracker) sync(store Store, charges []pendingCharge, tokens int64) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	for _, c := range charges {
		total, err := store.Add(ctx, c.key, tokens, c.ttl)
		if err != nil {
			t.logger.Warn("Failed to persist token counter", zap.String("key", c.key), zap.Error(err))
		}
		t.adopt(c, total)
	}
}

// adopt raises a window to the shared total when other replicas charged it too.
func (t *Tracker) adopt(c pendingCharge, total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !c.w.start.Equal(c.start) || total <= c.w.used {
		return
	}
	c.w.used = total
	t.publish()
}

// Snapshot returns the current state of the window for period.
// Periods the tracker does not meter report as unlimited.
func (t *Tracker) Snapshot(period domusage.Period) dombudget.Budget {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.roll()
	for _, w := range t.windows {
		if w.period == period {
			return w.snapshot()
		}
	}
	_, end := period.Bounds(t.now())
	return dombudget.New(0, 0, end)
}

// roll advances every window to now. Caller holds mu.
func (t *Tracker) roll() {
	now := t.now()
	for _, w := range t.windows {
		w.roll(now)
	}
}

// publish mirrors remaining tokens of capped windows to the gauge. Caller holds mu.
func (t *Tracker) publish() {
	for _, w := range t.windows {
		if w.limit > 0 {
			metrics.LLMBudgetTokensRemaining.WithLabelValues(string(w.period)).Set(float64(w.snapshot().TokensRemaining()))
		}
	}
}
