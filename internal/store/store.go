// Package store is the explorer's application state. Every setter replaces a
// whole field and every getter returns a copy, so a reader never observes a
// collection being modified underneath it.
package store

import (
	"sort"
	"sync"

	"github.com/jengzang/trajectory-explorer/internal/filter"
	"github.com/jengzang/trajectory-explorer/internal/models"
)

// Field identifies which part of the state a change touched.
type Field int

const (
	FieldFilters Field = iota
	FieldTargetBody
	FieldTabs
	FieldActiveTab
	FieldReference
	FieldTrajectories
	FieldEntries
	FieldArcs
	FieldStatus
)

// Level is the severity of a status notification.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Status is the transient notification shown to the user.
type Status struct {
	Message string
	Level   Level
	Seq     uint64
}

// Store holds the state shared by all views.
type Store struct {
	mu sync.RWMutex

	filters    filter.List
	targetBody int
	tabs       []models.Tab
	activeTab  int

	trajectoryFields []models.FilterField
	entryFields      []models.FilterField

	trajectories []models.Record
	entries      []models.Record
	arcs         []models.Arc

	status    Status
	statusSeq uint64

	nextID    int
	listeners map[int]func(Field)
}

// New returns an empty store.
func New() *Store {
	return &Store{listeners: make(map[int]func(Field))}
}

// Subscribe registers fn to run after every change. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(Field)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(f Field) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Field), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(f)
	}
}

// Filters returns a copy of the filter list.
func (s *Store) Filters() filter.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.Clone()
}

// SetFilter upserts item by ID.
func (s *Store) SetFilter(item filter.Item) {
	s.mu.Lock()
	s.filters = s.filters.Set(item)
	s.mu.Unlock()
	s.notify(FieldFilters)
}

// SetFilterList replaces the whole filter list.
func (s *Store) SetFilterList(list filter.List) {
	s.mu.Lock()
	s.filters = list.Clone()
	s.mu.Unlock()
	s.notify(FieldFilters)
}

// DeleteFilter removes the filter with the given ID.
func (s *Store) DeleteFilter(id int) {
	s.mu.Lock()
	s.filters = s.filters.Delete(id)
	s.mu.Unlock()
	s.notify(FieldFilters)
}

// TargetBody returns the body trajectories are searched for.
func (s *Store) TargetBody() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.targetBody
}

// SetTargetBody changes the searched body.
func (s *Store) SetTargetBody(id int) {
	s.mu.Lock()
	changed := s.targetBody != id
	s.targetBody = id
	s.mu.Unlock()
	if changed {
		s.notify(FieldTargetBody)
	}
}

// Tabs returns a copy of the tab layout.
func (s *Store) Tabs() []models.Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTabs(s.tabs)
}

// SetTabs replaces the tab layout.
func (s *Store) SetTabs(tabs []models.Tab) {
	s.mu.Lock()
	s.tabs = cloneTabs(tabs)
	s.mu.Unlock()
	s.notify(FieldTabs)
}

// ActiveTab returns the id of the visible tab.
func (s *Store) ActiveTab() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTab
}

// SetActiveTab changes the visible tab.
func (s *Store) SetActiveTab(id int) {
	s.mu.Lock()
	s.activeTab = id
	s.mu.Unlock()
	s.notify(FieldActiveTab)
}

// ReferenceFields returns the catalog of queryable fields.
func (s *Store) ReferenceFields() (trajectoryFields, entryFields []models.FilterField) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.trajectoryFields), cloneSlice(s.entryFields)
}

// SetReferenceFields replaces both catalog sections.
func (s *Store) SetReferenceFields(trajectoryFields, entryFields []models.FilterField) {
	s.mu.Lock()
	s.trajectoryFields = cloneSlice(trajectoryFields)
	s.entryFields = cloneSlice(entryFields)
	s.mu.Unlock()
	s.notify(FieldReference)
}

// Trajectories returns the current search results. Nil means no search has
// succeeded yet; an empty slice is a successful search with no matches.
func (s *Store) Trajectories() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.trajectories)
}

// SetTrajectories replaces the search results.
func (s *Store) SetTrajectories(records []models.Record) {
	s.mu.Lock()
	s.trajectories = cloneSlice(records)
	s.mu.Unlock()
	s.notify(FieldTrajectories)
}

// Entries returns the entries of the selected trajectory.
func (s *Store) Entries() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.entries)
}

// SetEntries replaces the entries.
func (s *Store) SetEntries(records []models.Record) {
	s.mu.Lock()
	s.entries = cloneSlice(records)
	s.mu.Unlock()
	s.notify(FieldEntries)
}

// Arcs returns the arcs of the current entries.
func (s *Store) Arcs() []models.Arc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.arcs)
}

// SetArcs replaces the arcs.
func (s *Store) SetArcs(arcs []models.Arc) {
	s.mu.Lock()
	s.arcs = cloneSlice(arcs)
	s.mu.Unlock()
	s.notify(FieldArcs)
}

// Status returns the current notification. An empty message means none.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// PostStatus shows a notification and returns its sequence number.
func (s *Store) PostStatus(message string, level Level) uint64 {
	s.mu.Lock()
	s.statusSeq++
	s.status = Status{Message: message, Level: level, Seq: s.statusSeq}
	seq := s.statusSeq
	s.mu.Unlock()
	s.notify(FieldStatus)
	return seq
}

// DismissStatus clears the notification if it is still the one identified
// by seq, so a late dismissal never hides a newer message.
func (s *Store) DismissStatus(seq uint64) {
	s.mu.Lock()
	if s.status.Seq != seq || s.status.Message == "" {
		s.mu.Unlock()
		return
	}
	s.status = Status{Seq: seq}
	s.mu.Unlock()
	s.notify(FieldStatus)
}

// cloneSlice copies the slice header array; nil stays nil and empty stays
// empty. Elements are immutable records and are shared.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneTabs(tabs []models.Tab) []models.Tab {
	if tabs == nil {
		return nil
	}
	out := make([]models.Tab, len(tabs))
	for i, t := range tabs {
		out[i] = t
		out[i].Graphs = cloneSlice(t.Graphs)
	}
	return out
}
