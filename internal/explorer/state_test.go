package explorer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jengzang/trajectory-explorer/internal/filter"
	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/persist"
	"github.com/jengzang/trajectory-explorer/internal/store"
	"github.com/jengzang/trajectory-explorer/internal/transfer"
)

type memoryPersister struct {
	mu    sync.Mutex
	state *persist.State
	saves int
}

func (p *memoryPersister) Load(ctx context.Context) (persist.State, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == nil {
		return persist.State{}, false, nil
	}
	return *p.state, true, nil
}

func (p *memoryPersister) Save(ctx context.Context, state persist.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	p.state = &state
	return nil
}

func TestImportReplacesStateAndSearches(t *testing.T) {
	b := &fakeBackend{}
	c, clk := newController(t, b)
	c.SetTabs([]models.Tab{{ID: 9, Name: "Old"}})
	c.SetActiveTab(9)

	data := []byte(`{
		// exported from another session
		"filterList": [{"id": 3, "label": "C3", "dataField": "trajectory.c3", "type": "slider-range", "value": [1, 2]}],
		"tabs": [{"id": 1, "name": "Overview", "graphs": []}, {"id": 2, "name": "Entries", "graphs": []}]
	}`)
	if err := c.Import(data); err != nil {
		t.Fatalf("Import: %v", err)
	}

	if got := c.Store().Filters(); len(got) != 1 || got[0].ID != 3 {
		t.Errorf("filters = %+v", got)
	}
	if got := c.Store().Tabs(); len(got) != 2 {
		t.Errorf("tabs = %+v", got)
	}
	if got := c.Store().ActiveTab(); got != 1 {
		t.Errorf("active tab = %d, want the first imported tab", got)
	}
	if status := c.Store().Status(); status.Level != store.LevelInfo || status.Message == "" {
		t.Errorf("status = %+v", status)
	}

	clk.Advance(DefaultDebounce)
	if n := b.searchCount(); n != 1 {
		t.Errorf("import should trigger one search, got %d", n)
	}
}

func TestMalformedImportLeavesStateUntouched(t *testing.T) {
	b := &fakeBackend{}
	c, clk := newController(t, b)
	c.store.SetFilter(c3Filter(0, 10))
	c.SetTabs([]models.Tab{{ID: 1, Name: "Main"}})

	err := c.Import([]byte(`{"filterList": []}`))
	if !errors.Is(err, transfer.ErrMalformedImport) {
		t.Fatalf("err = %v, want ErrMalformedImport", err)
	}
	if got := c.Store().Filters(); len(got) != 1 {
		t.Errorf("filters changed: %+v", got)
	}
	if got := c.Store().Tabs(); len(got) != 1 || got[0].Name != "Main" {
		t.Errorf("tabs changed: %+v", got)
	}
	if status := c.Store().Status(); status.Level != store.LevelError {
		t.Errorf("status = %+v", status)
	}

	clk.Advance(DefaultDebounce)
	if n := b.searchCount(); n != 0 {
		t.Errorf("failed import must not search, got %d", n)
	}
}

func TestExportImportsBack(t *testing.T) {
	c, _ := newController(t, &fakeBackend{})
	c.store.SetFilter(c3Filter(5, 50))
	c.SetTabs([]models.Tab{{ID: 1, Name: "Main", Graphs: []models.Graph{{ID: 1, Type: models.GraphScatter, X: "trajectory.c3", Y: "trajectory.v_inf_mag"}}}})

	data, err := c.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	other, _ := newController(t, &fakeBackend{})
	if err := other.Import(data); err != nil {
		t.Fatalf("Import: %v", err)
	}
	got := other.Store().Filters()
	if len(got) != 1 {
		t.Fatalf("filters = %+v", got)
	}
	lower, upper, ok := got[0].Range()
	if !ok || lower != 5 || upper != 50 {
		t.Errorf("range = %v..%v (%v)", lower, upper, ok)
	}
	if tabs := other.Store().Tabs(); tabs[0].Graphs[0].Type != models.GraphScatter {
		t.Errorf("graphs = %+v", tabs[0].Graphs)
	}
}

func TestStateIsSavedOnChange(t *testing.T) {
	p := &memoryPersister{}
	c, _ := newController(t, &fakeBackend{}, WithPersister(p))

	c.SetFilter(c3Filter(0, 10))
	c.SetActiveTab(4)
	c.Store().SetTrajectories([]models.Record{trajectory(1, 1)})

	if p.saves != 2 {
		t.Errorf("saves = %d, want 2 (results are not persisted)", p.saves)
	}
	if p.state.ActiveTab != 4 || len(p.state.FilterList) != 1 {
		t.Errorf("saved = %+v", p.state)
	}
}

func TestRestoreState(t *testing.T) {
	p := &memoryPersister{state: &persist.State{
		ActiveTab:  2,
		Tabs:       []models.Tab{{ID: 2, Name: "Saved"}},
		FilterList: filter.List{c3Filter(1, 2)},
	}}
	b := &fakeBackend{}
	c, clk := newController(t, b, WithPersister(p))

	c.Start(context.Background())
	if got := c.Store().ActiveTab(); got != 2 {
		t.Errorf("active tab = %d", got)
	}
	if got := c.Store().Filters(); len(got) != 1 {
		t.Errorf("filters = %+v", got)
	}
	if p.saves != 0 {
		t.Errorf("restoring should not write back, saves = %d", p.saves)
	}
	clk.Advance(DefaultDebounce)
	if n := b.searchCount(); n != 0 {
		t.Errorf("restoring should not search, got %d", n)
	}
}

func TestSQLitePersister(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := persist.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c, _ := newController(t, &fakeBackend{}, WithPersister(db))
	c.SetFilter(c3Filter(3, 4))
	c.SetTabs([]models.Tab{{ID: 7, Name: "Arcs"}})
	c.Close()
	db.Close()

	db, err = persist.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	restored, _ := newController(t, &fakeBackend{}, WithPersister(db))
	if err := restored.RestoreState(ctx); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}
	if got := restored.Store().Tabs(); len(got) != 1 || got[0].Name != "Arcs" {
		t.Errorf("tabs = %+v", got)
	}
	if got := restored.Store().Filters(); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("filters = %+v", got)
	}
}
