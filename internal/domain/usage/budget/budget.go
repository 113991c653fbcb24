package budget

import "time"

// Budget is a snapshot of one token allowance window. A zero limit means unlimited.
type Budget struct {
	limit    int64
	used     int64
	resetsAt time.Time
}

// New creates a Budget snapshot. resetsAt is the end of the window, zero when unknown.
func New(limit, used int64, resetsAt time.Time) Budget {
	return Budget{limit: limit, used: used, resetsAt: resetsAt}
}

// TokensLimit returns the token cap, 0 when unlimited.
func (b Budget) TokensLimit() int64 { return b.limit }

// TokensUsed returns tokens charged to the window.
func (b Budget) TokensUsed() int64 { return b.used }

// TokensRemaining returns tokens left clamped at zero, or -1 when unlimited.
func (b Budget) TokensRemaining() int64 {
	if b.limit <= 0 {
		return -1
	}
	return max(b.limit-b.used, 0)
}

// IsExhausted reports whether a capped window has nothing left.
func (b Budget) IsExhausted() bool { return b.limit > 0 && b.used >= b.limit }

// ResetsAt returns when the window closes.
func (b Budget) ResetsAt() time.Time { return b.resetsAt }
