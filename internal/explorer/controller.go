// Package explorer is the controller that owns the explorer's state: it
// debounces filter edits into searches, runs the selection pipeline
// (entries, then arcs), loads the reference catalog, and handles import,
// export and persisted state.
package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jengzang/trajectory-explorer/internal/clock"
	"github.com/jengzang/trajectory-explorer/internal/filter"
	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/query"
	"github.com/jengzang/trajectory-explorer/internal/reconcile"
	"github.com/jengzang/trajectory-explorer/internal/selection"
	"github.com/jengzang/trajectory-explorer/internal/store"
	"github.com/jengzang/trajectory-explorer/internal/units"
)

// Backend is the analysis service. *client.Client implements it.
type Backend interface {
	FetchFilterFields(ctx context.Context) (models.FilterCatalog, error)
	SearchTrajectories(ctx context.Context, q models.Query) ([]models.Record, error)
	FetchEntries(ctx context.Context, trajectoryID int64) ([]models.Record, error)
	FetchArcs(ctx context.Context, targetBody int, entryIDs []int64) ([]models.Arc, error)
}

// Controller coordinates the store, the selection and the backend.
type Controller struct {
	backend   Backend
	store     *store.Store
	selection *selection.Coordinator

	clock      clock.Clock
	logger     *slog.Logger
	debounce   time.Duration
	retryDelay time.Duration
	statusTTL  time.Duration
	scales     units.Scales
	persister  Persister
	baseCtx    context.Context
	onSearch   func(StageResult)

	mu sync.Mutex
	// debounceGen invalidates pending debounce callbacks; searchGen and
	// selectGen invalidate in-flight responses.
	debounceGen  uint64
	searchGen    uint64
	selectGen    uint64
	searchTimer  *clock.Timer
	retryTimer   *clock.Timer
	selectedID   int64
	hasSelection bool
	restoring    bool
	closed       bool

	unsubscribe []func()
}

// New returns a controller for backend.
func New(backend Backend, options ...Option) *Controller {
	c := &Controller{
		backend:    backend,
		store:      store.New(),
		selection:  selection.New(),
		clock:      clock.Real(),
		logger:     slog.Default(),
		debounce:   DefaultDebounce,
		retryDelay: DefaultRetryDelay,
		statusTTL:  DefaultStatusTTL,
		baseCtx:    context.Background(),
	}
	for _, option := range options {
		option(c)
	}
	c.unsubscribe = append(c.unsubscribe,
		c.selection.Subscribe(c.selectionChanged),
		c.store.Subscribe(c.storeChanged),
	)
	return c
}

// Store returns the application state.
func (c *Controller) Store() *store.Store { return c.store }

// Selection returns the selection coordinator. Views register themselves
// on it for ResetViews.
func (c *Controller) Selection() *selection.Coordinator { return c.selection }

// Start restores persisted state and loads the reference catalog.
func (c *Controller) Start(ctx context.Context) StageResult {
	if err := c.RestoreState(ctx); err != nil {
		c.logger.Warn("failed to restore state", "error", err)
	}
	return c.LoadReferenceFields(ctx)
}

// Close cancels pending timers. In-flight responses arriving afterwards are
// discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.debounceGen++
	c.searchGen++
	c.selectGen++
	timers := []*clock.Timer{c.searchTimer, c.retryTimer}
	c.searchTimer, c.retryTimer = nil, nil
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
	for _, fn := range unsubscribe {
		fn()
	}
}

// SetFilter upserts item and schedules a search.
func (c *Controller) SetFilter(item filter.Item) {
	c.store.SetFilter(item)
	c.ScheduleSearch()
}

// SetFilterList replaces all filters and schedules a search.
func (c *Controller) SetFilterList(list filter.List) {
	c.store.SetFilterList(list)
	c.ScheduleSearch()
}

// DeleteFilter removes a filter and schedules a search.
func (c *Controller) DeleteFilter(id int) {
	c.store.DeleteFilter(id)
	c.ScheduleSearch()
}

// SetTargetBody changes the searched body and schedules a search when it
// differs from the current one.
func (c *Controller) SetTargetBody(id int) {
	if c.store.TargetBody() == id {
		return
	}
	c.store.SetTargetBody(id)
	c.ScheduleSearch()
}

// ScheduleSearch (re)starts the debounce window. The search runs once no
// further call has arrived for the debounce duration.
func (c *Controller) ScheduleSearch() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.debounceGen++
	gen := c.debounceGen
	previous := c.searchTimer
	c.searchTimer = nil
	c.mu.Unlock()

	previous.Stop()

	timer := c.clock.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		current := gen == c.debounceGen
		if current {
			c.searchTimer = nil
		}
		c.mu.Unlock()
		if !current {
			return
		}
		result := c.search(c.baseCtx)
		if c.onSearch != nil {
			c.onSearch(result)
		}
	})

	c.mu.Lock()
	if gen == c.debounceGen && c.searchTimer == nil {
		c.searchTimer = timer
	}
	c.mu.Unlock()
}

// Search cancels any pending debounced search and runs one now.
func (c *Controller) Search(ctx context.Context) StageResult {
	c.mu.Lock()
	c.debounceGen++
	pending := c.searchTimer
	c.searchTimer = nil
	c.mu.Unlock()
	pending.Stop()

	return c.search(ctx)
}

func (c *Controller) search(ctx context.Context) StageResult {
	c.selection.ResetViews()

	c.mu.Lock()
	c.searchGen++
	gen := c.searchGen
	c.mu.Unlock()

	filters := c.store.Filters()
	targetBody := c.store.TargetBody()
	trajectoryFields, _ := c.store.ReferenceFields()
	q := query.Builder{
		CatalogFields: query.CatalogFieldNames(filter.TrajectoryPrefix, trajectoryFields),
		Scales:        c.scales,
	}.Build(filters, targetBody)

	records, err := c.backend.SearchTrajectories(ctx, q)
	if !c.currentSearch(gen) {
		c.logger.Debug("discarding stale search response", "generation", gen)
		return StageResult{Stage: StageStale}
	}
	if err != nil {
		c.logger.Error("trajectory search failed", "error", err, "target_body", targetBody, "query", q)
		c.postStatus(fmt.Sprintf("Search failed: %v", err), store.LevelError)
		return StageResult{Stage: StageFailed, Err: err}
	}

	kept := reconcile.Trajectories(records, filters, c.scales)
	c.store.SetTrajectories(kept)
	c.logger.Info("trajectory search finished",
		"target_body", targetBody,
		"constraints", len(q.Filters),
		"received", len(records),
		"kept", len(kept),
	)

	state := c.selection.State()
	if id, ok := state.ID(); ok && !state.Confirmed && !reconcile.ContainsID(kept, id) {
		c.selection.Clear()
	}
	return counted(len(kept))
}

func (c *Controller) currentSearch(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.searchGen
}

func (c *Controller) currentSelection(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.selectGen
}

// SelectTrajectory is a point activation from a view. It only takes effect
// while the selection is unconfirmed; when it does, the entries and arcs of
// the new trajectory are loaded.
func (c *Controller) SelectTrajectory(ctx context.Context, t models.Record) SelectionResult {
	if t == nil || !c.selection.Offer(t) {
		return SelectionResult{Entries: skipped, Arcs: skipped}
	}
	return c.loadSelection(ctx)
}

// SetSelectedTrajectory replaces the selection even when it is confirmed.
// A nil trajectory clears it.
func (c *Controller) SetSelectedTrajectory(ctx context.Context, t models.Record) SelectionResult {
	if !c.selection.Set(t) || t == nil {
		return SelectionResult{Entries: skipped, Arcs: skipped}
	}
	return c.loadSelection(ctx)
}

// ClearSelection deselects; entries and arcs are dropped.
func (c *Controller) ClearSelection() {
	c.selection.Clear()
}

// Confirm pins or unpins the current selection.
func (c *Controller) Confirm(confirmed bool) {
	c.selection.SetConfirmed(confirmed)
}

// selectionChanged invalidates derived state whenever the selected
// trajectory changes identity.
func (c *Controller) selectionChanged(state selection.State) {
	id, ok := state.ID()
	c.mu.Lock()
	if ok == c.hasSelection && id == c.selectedID {
		c.mu.Unlock()
		return
	}
	c.selectedID, c.hasSelection = id, ok
	c.selectGen++
	c.mu.Unlock()

	c.store.SetEntries(nil)
	c.store.SetArcs(nil)
}

// loadSelection runs the entries stage and, when it produced entries, the
// arcs stage.
func (c *Controller) loadSelection(ctx context.Context) SelectionResult {
	state := c.selection.State()
	id, ok := state.ID()
	if !ok {
		return SelectionResult{Entries: skipped, Arcs: skipped}
	}

	c.mu.Lock()
	c.selectGen++
	gen := c.selectGen
	c.mu.Unlock()

	filters := c.store.Filters()
	targetBody := c.store.TargetBody()

	records, err := c.backend.FetchEntries(ctx, id)
	if !c.currentSelection(gen) {
		return SelectionResult{Entries: StageResult{Stage: StageStale}, Arcs: skipped}
	}
	if err != nil {
		c.logger.Error("entries fetch failed", "error", err, "trajectory_id", id)
		c.postStatus(fmt.Sprintf("Loading entries failed: %v", err), store.LevelError)
		return SelectionResult{Entries: StageResult{Stage: StageFailed, Err: err}, Arcs: skipped}
	}

	entries := reconcile.Entries(records, filters, c.scales)
	c.store.SetEntries(entries)
	result := SelectionResult{Entries: counted(len(entries)), Arcs: skipped}
	if len(entries) == 0 {
		c.store.SetArcs([]models.Arc{})
		return result
	}

	arcs, err := c.backend.FetchArcs(ctx, targetBody, models.IDs(entries))
	if !c.currentSelection(gen) {
		result.Arcs = StageResult{Stage: StageStale}
		return result
	}
	if err != nil {
		c.logger.Error("arcs fetch failed", "error", err, "trajectory_id", id, "entries", len(entries))
		c.postStatus(fmt.Sprintf("Loading arcs failed: %v", err), store.LevelError)
		result.Arcs = StageResult{Stage: StageFailed, Err: err}
		return result
	}
	c.store.SetArcs(arcs)
	result.Arcs = counted(len(arcs))
	return result
}

// LoadReferenceFields fetches the filter-field catalog. On failure one
// retry is scheduled after the retry delay; if that also fails both catalog
// sections are set empty.
func (c *Controller) LoadReferenceFields(ctx context.Context) StageResult {
	catalog, err := c.backend.FetchFilterFields(ctx)
	if err == nil {
		c.setCatalog(catalog)
		return counted(len(catalog.TrajectoryFilters) + len(catalog.EntryFilters))
	}

	c.logger.Warn("filter fields fetch failed, retrying", "error", err, "delay", c.retryDelay)
	timer := c.clock.AfterFunc(c.retryDelay, c.retryReferenceFields)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		timer.Stop()
		return StageResult{Stage: StageFailed, Err: err}
	}
	c.retryTimer = timer
	c.mu.Unlock()
	return StageResult{Stage: StageRetryScheduled, Err: err}
}

func (c *Controller) retryReferenceFields() {
	c.mu.Lock()
	c.retryTimer = nil
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	catalog, err := c.backend.FetchFilterFields(c.baseCtx)
	if err != nil {
		c.logger.Error("filter fields unavailable", "error", err)
		c.store.SetReferenceFields([]models.FilterField{}, []models.FilterField{})
		c.postStatus("Filter fields unavailable", store.LevelError)
		return
	}
	c.setCatalog(catalog)
}

func (c *Controller) setCatalog(catalog models.FilterCatalog) {
	trajectoryFields := catalog.TrajectoryFilters
	if trajectoryFields == nil {
		trajectoryFields = []models.FilterField{}
	}
	entryFields := catalog.EntryFilters
	if entryFields == nil {
		entryFields = []models.FilterField{}
	}
	c.store.SetReferenceFields(trajectoryFields, entryFields)
}

// postStatus shows message and dismisses it after the status TTL unless a
// newer message replaced it.
func (c *Controller) postStatus(message string, level store.Level) {
	seq := c.store.PostStatus(message, level)
	c.clock.AfterFunc(c.statusTTL, func() {
		c.store.DismissStatus(seq)
	})
}
