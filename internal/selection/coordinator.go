// Package selection tracks the trajectory the user has picked and whether
// that pick is pinned, and fans changes out to the views that depend on it.
package selection

import (
	"sort"
	"sync"

	"github.com/jengzang/trajectory-explorer/internal/models"
)

// State is the current selection. A nil Trajectory means nothing is
// selected. Confirmed pins the selection against further point activations.
type State struct {
	Trajectory models.Record
	Confirmed  bool
}

// ID returns the selected trajectory's id.
func (s State) ID() (int64, bool) {
	if s.Trajectory == nil {
		return 0, false
	}
	return s.Trajectory.ID()
}

// ViewResetter is implemented by views holding interactive highlight state
// that a fresh search must discard.
type ViewResetter interface {
	ResetView()
}

// Coordinator owns the selection state.
type Coordinator struct {
	mu        sync.Mutex
	state     State
	nextID    int
	listeners map[int]func(State)
	views     map[int]ViewResetter
}

// New returns a coordinator with nothing selected.
func New() *Coordinator {
	return &Coordinator{
		listeners: make(map[int]func(State)),
		views:     make(map[int]ViewResetter),
	}
}

// State returns the current selection.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Set replaces the selection regardless of the confirmed flag. Setting nil
// clears the selection and unpins it. Returns whether the selected
// trajectory changed.
func (c *Coordinator) Set(t models.Record) bool {
	c.mu.Lock()
	changed := !sameTrajectory(c.state.Trajectory, t)
	c.state.Trajectory = t
	if t == nil {
		changed = changed || c.state.Confirmed
		c.state.Confirmed = false
	}
	state := c.state
	c.mu.Unlock()

	if changed {
		c.notify(state)
	}
	return changed
}

// Offer is a point activation from a view. It replaces the selection only
// while the selection is unconfirmed. Returns whether the selection changed.
func (c *Coordinator) Offer(t models.Record) bool {
	c.mu.Lock()
	if c.state.Confirmed || sameTrajectory(c.state.Trajectory, t) {
		c.mu.Unlock()
		return false
	}
	c.state.Trajectory = t
	state := c.state
	c.mu.Unlock()

	c.notify(state)
	return true
}

// Clear deselects and unpins.
func (c *Coordinator) Clear() bool {
	return c.Set(nil)
}

// SetConfirmed pins or unpins the current selection.
func (c *Coordinator) SetConfirmed(confirmed bool) {
	c.mu.Lock()
	if c.state.Confirmed == confirmed {
		c.mu.Unlock()
		return
	}
	c.state.Confirmed = confirmed
	state := c.state
	c.mu.Unlock()

	c.notify(state)
}

// Subscribe registers fn to run after every selection change. The returned
// function removes the subscription.
func (c *Coordinator) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// RegisterView adds a view to the ResetViews fan-out.
func (c *Coordinator) RegisterView(v ViewResetter) (unregister func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.views[id] = v
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.views, id)
	}
}

// ResetViews clears view-scoped interactive state in every registered view.
// The stored selection is untouched.
func (c *Coordinator) ResetViews() {
	for _, v := range c.snapshotViews() {
		v.ResetView()
	}
}

func (c *Coordinator) notify(state State) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.listeners[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

func (c *Coordinator) snapshotViews() []ViewResetter {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int, 0, len(c.views))
	for id := range c.views {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	views := make([]ViewResetter, 0, len(ids))
	for _, id := range ids {
		views = append(views, c.views[id])
	}
	return views
}

func sameTrajectory(a, b models.Record) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	idA, okA := a.ID()
	idB, okB := b.ID()
	if okA && okB {
		return idA == idB
	}
	return false
}
