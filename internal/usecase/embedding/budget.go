package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessmatch/internal/domain"
)

// BudgetAction defines behavior when token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs once per period and lets requests through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request. The chain treats it as a tier failure.
	BudgetActionReject BudgetAction = "reject"
)

// ParseBudgetAction maps a config value to a BudgetAction. Empty means warn.
func ParseBudgetAction(s string) BudgetAction {
	if s == string(BudgetActionReject) {
		return BudgetActionReject
	}
	return BudgetActionWarn
}

// budgetWindow counts tokens for one calendar period. A zero limit is unlimited.
type budgetWindow struct {
	period   string
	limit    int64
	used     int64
	start    time.Time
	warned   bool
	truncate func(time.Time) time.Time
}

func (w *budgetWindow) roll(now time.Time) {
	if cur := w.truncate(now); cur.After(w.start) {
		w.start = cur
		w.used = 0
		w.warned = false
	}
}

func (w *budgetWindow) exceeded() bool { return w.limit > 0 && w.used >= w.limit }

func (w *budgetWindow) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

// BudgetTracker is an in-memory token budget for the primary tier.
// Counters live for the process lifetime and reset on UTC day and month boundaries.
type BudgetTracker struct {
	mu       sync.Mutex
	daily    budgetWindow
	monthly  budgetWindow
	action   BudgetAction
	provider string
	now      func() time.Time
	logger   *zap.Logger
}

// NewBudgetTracker creates a budget tracker with the given limits. A zero limit is unlimited.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	b := &BudgetTracker{
		daily:    budgetWindow{period: "daily", limit: dailyLimit, truncate: truncateToDay},
		monthly:  budgetWindow{period: "monthly", limit: monthlyLimit, truncate: truncateToMonth},
		action:   action,
		provider: provider,
		now:      time.Now,
		logger:   logger,
	}
	now := b.now().UTC()
	b.daily.start = truncateToDay(now)
	b.monthly.start = truncateToMonth(now)
	return b
}

// Check verifies the budget allows a new request.
// With BudgetActionReject it returns an error wrapping domain.ErrEmbeddingQuotaExceeded.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()

	for _, w := range []*budgetWindow{&b.daily, &b.monthly} {
		if !w.exceeded() {
			continue
		}
		if b.action == BudgetActionReject {
			return fmt.Errorf("%s budget of %d tokens spent: %w", w.period, w.limit, domain.ErrEmbeddingQuotaExceeded)
		}
		if !w.warned {
			w.warned = true
			b.logger.Warn("Token budget exceeded, serving anyway",
				zap.String("provider", b.provider),
				zap.String("period", w.period),
				zap.Int64("used", w.used),
				zap.Int64("limit", w.limit),
			)
		}
	}
	return nil
}

// Record registers consumed tokens after a request.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	b.daily.used += tokens
	b.monthly.used += tokens
}

// RemainingDaily returns tokens left in the daily budget (-1 if unlimited).
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return b.daily.remaining()
}

// RemainingMonthly returns tokens left in the monthly budget (-1 if unlimited).
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return b.monthly.remaining()
}

// Used returns tokens consumed today and this month.
func (b *BudgetTracker) Used() (daily, monthly int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return b.daily.used, b.monthly.used
}

func (b *BudgetTracker) roll() {
	now := b.now().UTC()
	b.daily.roll(now)
	b.monthly.roll(now)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
