package explorer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jengzang/trajectory-explorer/internal/clock"
	"github.com/jengzang/trajectory-explorer/internal/filter"
	"github.com/jengzang/trajectory-explorer/internal/logging"
	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/store"
	"github.com/jengzang/trajectory-explorer/internal/testutil"
)

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type searchCall struct {
	at time.Time
	q  models.Query
}

type fakeBackend struct {
	clk *clock.FakeClock

	mu          sync.Mutex
	searches    []searchCall
	results     []models.Record
	searchErr   error
	duringFetch func()

	entries    map[int64][]models.Record
	entriesErr error
	entryCalls []int64
	arcsErr    error
	arcCalls   [][]int64

	catalog    models.FilterCatalog
	catalogErr []error
	catalogN   int
}

func (b *fakeBackend) FetchFilterFields(ctx context.Context) (models.FilterCatalog, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.catalogN
	b.catalogN++
	if n < len(b.catalogErr) && b.catalogErr[n] != nil {
		return models.FilterCatalog{}, b.catalogErr[n]
	}
	return b.catalog, nil
}

func (b *fakeBackend) SearchTrajectories(ctx context.Context, q models.Query) ([]models.Record, error) {
	b.mu.Lock()
	b.searches = append(b.searches, searchCall{at: b.clk.Now(), q: q})
	hook := b.duringFetch
	b.duringFetch = nil
	results, err := b.results, b.searchErr
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	return results, err
}

func (b *fakeBackend) FetchEntries(ctx context.Context, id int64) ([]models.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entryCalls = append(b.entryCalls, id)
	if b.entriesErr != nil {
		return nil, b.entriesErr
	}
	return b.entries[id], nil
}

func (b *fakeBackend) FetchArcs(ctx context.Context, targetBody int, ids []int64) ([]models.Arc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.arcCalls = append(b.arcCalls, ids)
	if b.arcsErr != nil {
		return nil, b.arcsErr
	}
	arcs := make([]models.Arc, 0, len(ids))
	for _, id := range ids {
		arcs = append(arcs, models.Arc{EntryID: id, Points: [][2]float64{{0, 0}, {1, 1}}})
	}
	return arcs, nil
}

func (b *fakeBackend) searchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.searches)
}

func newController(t *testing.T, b *fakeBackend, options ...Option) (*Controller, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(start)
	b.clk = clk
	options = append([]Option{WithClock(clk), WithLogger(logging.Discard())}, options...)
	c := New(b, options...)
	t.Cleanup(c.Close)
	return c, clk
}

func c3Filter(lower, upper float64) filter.Item {
	lo, hi := 0.0, 500.0
	return filter.Item{
		ID: 1, Label: "C3", DataField: "trajectory.c3", Type: filter.KindSliderRange,
		Value: []float64{lower, upper}, Min: &lo, Max: &hi,
	}
}

func trajectory(id int64, c3 float64) models.Record {
	return models.Record{"id": float64(id), "c3": c3}
}

func TestDebounceCoalescesEdits(t *testing.T) {
	b := &fakeBackend{results: []models.Record{trajectory(1, 10)}}
	var got []StageResult
	c, clk := newController(t, b, WithSearchListener(func(r StageResult) { got = append(got, r) }))

	c.SetFilter(c3Filter(0, 10))
	clk.Advance(200 * time.Millisecond)
	c.SetFilter(c3Filter(0, 20))
	clk.Advance(200 * time.Millisecond)
	c.SetFilter(c3Filter(0, 30))

	clk.Advance(999 * time.Millisecond)
	if n := b.searchCount(); n != 0 {
		t.Fatalf("search ran early: %d calls at +1399ms", n)
	}

	clk.Advance(time.Millisecond)
	if n := b.searchCount(); n != 1 {
		t.Fatalf("got %d searches, want exactly 1", n)
	}
	call := b.searches[0]
	if want := start.Add(1400 * time.Millisecond); !call.at.Equal(want) {
		t.Errorf("search at %v, want %v", call.at, want)
	}
	if len(call.q.Filters) != 1 || *call.q.Filters[0].Upper != 30 {
		t.Errorf("query = %+v, want the last edit", call.q.Filters)
	}
	if len(got) != 1 || got[0].Stage != StageSucceeded || got[0].Count != 1 {
		t.Errorf("listener results = %v", got)
	}

	clk.Advance(5 * time.Second)
	if n := b.searchCount(); n != 1 {
		t.Errorf("no further search expected, got %d", n)
	}
}

func TestTargetBodyChangeSchedulesSearch(t *testing.T) {
	b := &fakeBackend{}
	c, clk := newController(t, b)

	c.SetTargetBody(499)
	clk.Advance(DefaultDebounce)
	if n := b.searchCount(); n != 1 {
		t.Fatalf("got %d searches", n)
	}
	if b.searches[0].q.TargetBody != 499 {
		t.Errorf("TargetBody = %d", b.searches[0].q.TargetBody)
	}

	c.SetTargetBody(499)
	clk.Advance(DefaultDebounce)
	if n := b.searchCount(); n != 1 {
		t.Errorf("unchanged body should not search again, got %d", n)
	}
}

func TestSearchReconcilesResults(t *testing.T) {
	b := &fakeBackend{results: []models.Record{
		trajectory(1, 99.6),
		trajectory(2, 200.1),
		{"id": 3.0},
	}}
	c, _ := newController(t, b)
	c.store.SetFilter(c3Filter(0, 100))

	res := c.Search(context.Background())
	if res.Stage != StageSucceeded || res.Count != 1 {
		t.Fatalf("result = %v", res)
	}
	kept := c.Store().Trajectories()
	if len(kept) != 1 || kept[0]["c3"] != 99.6 {
		t.Errorf("kept = %v", kept)
	}

	q := b.searches[0].q
	if q.Fields[0] != "trajectory.id" {
		t.Errorf("fields = %v", q.Fields)
	}
}

func TestSearchUsesCatalogFields(t *testing.T) {
	b := &fakeBackend{catalog: models.FilterCatalog{
		TrajectoryFilters: []models.FilterField{{Name: "c3"}, {Name: "v_inf_mag"}},
		EntryFilters:      []models.FilterField{{Name: "altitude"}},
	}}
	c, _ := newController(t, b)
	if res := c.LoadReferenceFields(context.Background()); res.Stage != StageSucceeded || res.Count != 3 {
		t.Fatalf("reference = %v", res)
	}
	c.Search(context.Background())

	want := []string{"trajectory.id", "trajectory.c3", "trajectory.v_inf_mag"}
	got := b.searches[0].q.Fields
	if len(got) != len(want) {
		t.Fatalf("fields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fields[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSearchEmpty(t *testing.T) {
	c, _ := newController(t, &fakeBackend{results: []models.Record{}})
	if res := c.Search(context.Background()); res.Stage != StageEmpty {
		t.Errorf("result = %v", res)
	}
	if got := c.Store().Trajectories(); got == nil || len(got) != 0 {
		t.Errorf("trajectories = %#v, want empty non-nil", got)
	}
}

func TestSearchFailureKeepsLastResults(t *testing.T) {
	b := &fakeBackend{results: []models.Record{trajectory(1, 10)}}
	c, clk := newController(t, b)
	c.Search(context.Background())

	b.mu.Lock()
	b.searchErr = errors.New("connection refused")
	b.mu.Unlock()

	res := c.Search(context.Background())
	if res.Stage != StageFailed || res.Err == nil {
		t.Fatalf("result = %v", res)
	}
	if got := c.Store().Trajectories(); len(got) != 1 {
		t.Errorf("trajectories = %v, want last-known-good", got)
	}
	status := c.Store().Status()
	if status.Level != store.LevelError || status.Message == "" {
		t.Errorf("status = %+v", status)
	}

	clk.Advance(DefaultStatusTTL)
	if got := c.Store().Status(); got.Message != "" {
		t.Errorf("status not dismissed: %+v", got)
	}
}

func TestStaleSearchIsDiscarded(t *testing.T) {
	b := &fakeBackend{results: []models.Record{trajectory(1, 10)}}
	c, _ := newController(t, b)

	var inner StageResult
	b.duringFetch = func() {
		b.mu.Lock()
		b.results = []models.Record{trajectory(2, 20), trajectory(3, 30)}
		b.mu.Unlock()
		inner = c.Search(context.Background())
	}

	outer := c.Search(context.Background())
	if outer.Stage != StageStale {
		t.Errorf("outer = %v, want stale", outer)
	}
	if inner.Stage != StageSucceeded || inner.Count != 2 {
		t.Errorf("inner = %v", inner)
	}
	if got := c.Store().Trajectories(); len(got) != 2 {
		t.Errorf("store holds %v, want the newer response", got)
	}
}

type countingView struct{ resets int }

func (v *countingView) ResetView() { v.resets++ }

func TestSearchResetsViews(t *testing.T) {
	c, _ := newController(t, &fakeBackend{})
	view := &countingView{}
	c.Selection().RegisterView(view)

	c.Search(context.Background())
	c.Search(context.Background())
	if view.resets != 2 {
		t.Errorf("resets = %d, want 2", view.resets)
	}
}

func TestSelectionScenario(t *testing.T) {
	a, bRec, cRec := trajectory(1, 1), trajectory(2, 2), trajectory(3, 3)
	b := &fakeBackend{entries: map[int64][]models.Record{
		1: {{"id": 10.0, "altitude": 120.0}},
		2: {{"id": 20.0, "altitude": 125.0}, {"id": 21.0, "altitude": 130.0}},
		3: {{"id": 30.0}},
	}}
	c, _ := newController(t, b)
	ctx := context.Background()

	if res := c.SelectTrajectory(ctx, a); res.Entries.Stage != StageSucceeded || res.Arcs.Stage != StageSucceeded {
		t.Fatalf("select A = %+v", res)
	}
	if res := c.SelectTrajectory(ctx, bRec); res.Entries.Count != 2 || res.Arcs.Count != 2 {
		t.Fatalf("select B = %+v", res)
	}
	if id, _ := c.Selection().State().ID(); id != 2 {
		t.Fatalf("selected %d, want B", id)
	}

	c.Confirm(true)
	res := c.SelectTrajectory(ctx, cRec)
	if res.Entries.Stage != StageSkipped || res.Arcs.Stage != StageSkipped {
		t.Errorf("select C while confirmed = %+v", res)
	}
	if id, _ := c.Selection().State().ID(); id != 2 {
		t.Errorf("selected %d, confirmed B must stick", id)
	}
	if got := c.Store().Entries(); len(got) != 2 {
		t.Errorf("confirming must keep entries, got %v", got)
	}

	c.ClearSelection()
	if c.Store().Entries() != nil || c.Store().Arcs() != nil {
		t.Error("clearing must invalidate entries and arcs")
	}
	if c.Selection().State().Confirmed {
		t.Error("clearing must unpin")
	}

	if res := c.SelectTrajectory(ctx, cRec); res.Entries.Stage != StageSucceeded {
		t.Errorf("select C after clear = %+v", res)
	}
}

func TestSetSelectedTrajectoryOverridesConfirmed(t *testing.T) {
	b := &fakeBackend{entries: map[int64][]models.Record{2: {{"id": 20.0}}}}
	c, _ := newController(t, b)
	ctx := context.Background()

	c.SelectTrajectory(ctx, trajectory(1, 1))
	c.Confirm(true)
	res := c.SetSelectedTrajectory(ctx, trajectory(2, 2))
	if res.Entries.Stage != StageSucceeded {
		t.Fatalf("result = %+v", res)
	}
	if id, _ := c.Selection().State().ID(); id != 2 {
		t.Errorf("selected %d", id)
	}
}

func TestEntriesReconciledAgainstEntryFilters(t *testing.T) {
	lo, hi := 0.0, 200.0
	b := &fakeBackend{entries: map[int64][]models.Record{1: {
		{"id": 10.0, "altitude": 120.0},
		{"id": 11.0, "altitude": 180.0},
	}}}
	c, _ := newController(t, b)
	c.store.SetFilter(filter.Item{
		ID: 5, DataField: "entry.altitude", Type: filter.KindSliderRange,
		Value: []float64{100, 150}, Min: &lo, Max: &hi,
	})

	res := c.SelectTrajectory(context.Background(), trajectory(1, 1))
	if res.Entries.Count != 1 {
		t.Fatalf("entries = %+v", res.Entries)
	}
	if len(b.arcCalls) != 1 || len(b.arcCalls[0]) != 1 || b.arcCalls[0][0] != 10 {
		t.Errorf("arc calls = %v", b.arcCalls)
	}
}

func TestEntriesFailureSkipsArcs(t *testing.T) {
	b := &fakeBackend{entriesErr: errors.New("timeout")}
	c, _ := newController(t, b)

	res := c.SelectTrajectory(context.Background(), trajectory(1, 1))
	if res.Entries.Stage != StageFailed || res.Arcs.Stage != StageSkipped {
		t.Errorf("result = %+v", res)
	}
	if len(b.arcCalls) != 0 {
		t.Error("arcs must not be fetched after entries failed")
	}
}

func TestNoEntriesSkipsArcs(t *testing.T) {
	b := &fakeBackend{entries: map[int64][]models.Record{}}
	c, _ := newController(t, b)

	res := c.SelectTrajectory(context.Background(), trajectory(1, 1))
	if res.Entries.Stage != StageEmpty || res.Arcs.Stage != StageSkipped {
		t.Errorf("result = %+v", res)
	}
	if got := c.Store().Arcs(); got == nil || len(got) != 0 {
		t.Errorf("arcs = %#v, want empty", got)
	}
}

func TestArcsFailureKeepsEntries(t *testing.T) {
	b := &fakeBackend{
		entries: map[int64][]models.Record{1: {{"id": 10.0}}},
		arcsErr: errors.New("boom"),
	}
	c, _ := newController(t, b)

	res := c.SelectTrajectory(context.Background(), trajectory(1, 1))
	if res.Entries.Stage != StageSucceeded || res.Arcs.Stage != StageFailed {
		t.Errorf("result = %+v", res)
	}
	if len(c.Store().Entries()) != 1 {
		t.Error("entries must survive an arcs failure")
	}
}

func TestSearchClearsUnconfirmedSelectionMissingFromResults(t *testing.T) {
	b := &fakeBackend{
		results: []models.Record{trajectory(2, 2)},
		entries: map[int64][]models.Record{1: {{"id": 10.0}}},
	}
	c, _ := newController(t, b)
	ctx := context.Background()

	c.SelectTrajectory(ctx, trajectory(1, 1))
	c.Search(ctx)
	if _, ok := c.Selection().State().ID(); ok {
		t.Error("unconfirmed selection absent from results should be cleared")
	}
	if c.Store().Entries() != nil {
		t.Error("entries should be invalidated")
	}

	c.SelectTrajectory(ctx, trajectory(1, 1))
	c.Confirm(true)
	c.Search(ctx)
	if id, ok := c.Selection().State().ID(); !ok || id != 1 {
		t.Error("confirmed selection must persist across searches")
	}
}

func TestReferenceRetryScenario(t *testing.T) {
	b := &fakeBackend{catalogErr: []error{errors.New("down"), errors.New("still down")}}
	c, clk := newController(t, b)

	res := c.LoadReferenceFields(context.Background())
	if res.Stage != StageRetryScheduled {
		t.Fatalf("first attempt = %v", res)
	}

	clk.Advance(999 * time.Millisecond)
	if b.catalogN != 1 {
		t.Fatalf("retried early: %d calls", b.catalogN)
	}
	clk.Advance(time.Millisecond)
	if b.catalogN != 2 {
		t.Fatalf("calls = %d, want exactly one retry", b.catalogN)
	}

	trajectoryFields, entryFields := c.Store().ReferenceFields()
	if trajectoryFields == nil || entryFields == nil || len(trajectoryFields) != 0 || len(entryFields) != 0 {
		t.Errorf("fields = %#v, %#v, want both empty", trajectoryFields, entryFields)
	}

	clk.Advance(time.Minute)
	if b.catalogN != 2 {
		t.Errorf("no further retries expected, got %d calls", b.catalogN)
	}
}

func TestReferenceRetrySucceeds(t *testing.T) {
	b := &fakeBackend{
		catalogErr: []error{errors.New("down")},
		catalog:    models.FilterCatalog{TrajectoryFilters: []models.FilterField{{Name: "c3"}}},
	}
	c, clk := newController(t, b)

	c.Start(context.Background())
	clk.Advance(DefaultRetryDelay)

	trajectoryFields, entryFields := c.Store().ReferenceFields()
	if len(trajectoryFields) != 1 || entryFields == nil {
		t.Errorf("fields = %v, %#v", trajectoryFields, entryFields)
	}
}

func TestCloseCancelsPendingSearch(t *testing.T) {
	b := &fakeBackend{}
	c, clk := newController(t, b)

	c.SetFilter(c3Filter(0, 10))
	c.Close()
	clk.Advance(DefaultDebounce)
	if n := b.searchCount(); n != 0 {
		t.Errorf("search ran after Close: %d", n)
	}
}

func TestDebounceWithRealClock(t *testing.T) {
	b := &fakeBackend{clk: clock.Fake(start), results: []models.Record{trajectory(1, 1)}}
	results := make(chan StageResult, 1)
	c := New(b,
		WithLogger(logging.Discard()),
		WithDebounce(20*time.Millisecond),
		WithSearchListener(func(r StageResult) { results <- r }),
	)
	defer c.Close()

	c.SetFilter(c3Filter(0, 10))
	c.SetFilter(c3Filter(0, 20))

	res := testutil.Await(t, results, 5*time.Second, "debounced search")
	if res.Stage != StageSucceeded {
		t.Errorf("result = %v", res)
	}
	if n := b.searchCount(); n != 1 {
		t.Errorf("searches = %d, want 1", n)
	}
}
