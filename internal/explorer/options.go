package explorer

import (
	"context"
	"log/slog"
	"time"

	"github.com/jengzang/trajectory-explorer/internal/clock"
	"github.com/jengzang/trajectory-explorer/internal/persist"
	"github.com/jengzang/trajectory-explorer/internal/units"
)

// Default timings.
const (
	DefaultDebounce   = 1000 * time.Millisecond
	DefaultRetryDelay = 1000 * time.Millisecond
	DefaultStatusTTL  = 4 * time.Second
)

// Persister saves and restores the allowlisted UI state. *persist.Store
// implements it.
type Persister interface {
	Load(ctx context.Context) (persist.State, bool, error)
	Save(ctx context.Context, state persist.State) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the real clock. Tests pass a clock.FakeClock.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithDebounce sets how long filter edits must pause before a search runs.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithRetryDelay sets the delay before the reference catalog is refetched.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Controller) { c.retryDelay = d }
}

// WithStatusTTL sets how long status notifications stay up.
func WithStatusTTL(d time.Duration) Option {
	return func(c *Controller) { c.statusTTL = d }
}

// WithScales sets the display/stored unit factors per namespaced field.
func WithScales(scales units.Scales) Option {
	return func(c *Controller) { c.scales = scales }
}

// WithPersister enables saving the filter list and tab layout.
func WithPersister(p Persister) Option {
	return func(c *Controller) { c.persister = p }
}

// WithContext sets the context used by work the controller starts on its
// own (debounced searches, the reference retry).
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.baseCtx = ctx }
}

// WithSearchListener registers fn to receive the result of every debounced
// search.
func WithSearchListener(fn func(StageResult)) Option {
	return func(c *Controller) { c.onSearch = fn }
}
