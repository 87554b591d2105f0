package explorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/persist"
	"github.com/jengzang/trajectory-explorer/internal/store"
	"github.com/jengzang/trajectory-explorer/internal/transfer"
)

// SetTabs replaces the tab layout.
func (c *Controller) SetTabs(tabs []models.Tab) {
	c.store.SetTabs(tabs)
}

// SetActiveTab switches the visible tab.
func (c *Controller) SetActiveTab(id int) {
	c.store.SetActiveTab(id)
}

// Import replaces the filter list and tab layout with the contents of an
// exported file and schedules a search. A file missing either section
// returns transfer.ErrMalformedImport and leaves the state untouched.
func (c *Controller) Import(data []byte) error {
	cfg, err := transfer.Decode(data)
	if err != nil {
		c.logger.Warn("import rejected", "error", err)
		if errors.Is(err, transfer.ErrMalformedImport) {
			c.postStatus("Import failed: the file must contain filterList and tabs", store.LevelError)
		} else {
			c.postStatus(fmt.Sprintf("Import failed: %v", err), store.LevelError)
		}
		return err
	}
	if err := cfg.FilterList.Validate(); err != nil {
		c.logger.Warn("imported filters have problems", "error", err)
	}

	c.store.SetTabs(cfg.Tabs)
	if !hasTab(cfg.Tabs, c.store.ActiveTab()) && len(cfg.Tabs) > 0 {
		c.store.SetActiveTab(cfg.Tabs[0].ID)
	}
	c.SetFilterList(cfg.FilterList)

	c.postStatus(fmt.Sprintf("Imported %d filters and %d tabs", len(cfg.FilterList), len(cfg.Tabs)), store.LevelInfo)
	return nil
}

// Export renders the filter list and tab layout as an importable file.
func (c *Controller) Export() ([]byte, error) {
	return transfer.Encode(transfer.Config{
		FilterList: c.store.Filters(),
		Tabs:       c.store.Tabs(),
	})
}

// SaveState writes the allowlisted state (active tab, tabs, filter list).
func (c *Controller) SaveState(ctx context.Context) error {
	if c.persister == nil {
		return nil
	}
	return c.persister.Save(ctx, c.snapshot())
}

// RestoreState loads previously saved state into the store. Restoring does
// not schedule a search.
func (c *Controller) RestoreState(ctx context.Context) error {
	if c.persister == nil {
		return nil
	}
	state, ok, err := c.persister.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	c.mu.Lock()
	c.restoring = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.restoring = false
		c.mu.Unlock()
	}()

	c.store.SetTabs(state.Tabs)
	c.store.SetActiveTab(state.ActiveTab)
	c.store.SetFilterList(state.FilterList)
	c.logger.Info("restored state", "filters", len(state.FilterList), "tabs", len(state.Tabs))
	return nil
}

func (c *Controller) snapshot() persist.State {
	return persist.State{
		ActiveTab:  c.store.ActiveTab(),
		Tabs:       c.store.Tabs(),
		FilterList: c.store.Filters(),
	}
}

// storeChanged saves the allowlisted fields whenever one of them changes.
func (c *Controller) storeChanged(field store.Field) {
	switch field {
	case store.FieldFilters, store.FieldTabs, store.FieldActiveTab:
	default:
		return
	}
	c.mu.Lock()
	skip := c.persister == nil || c.restoring || c.closed
	c.mu.Unlock()
	if skip {
		return
	}
	if err := c.persister.Save(c.baseCtx, c.snapshot()); err != nil {
		c.logger.Warn("failed to save state", "error", err)
	}
}

func hasTab(tabs []models.Tab, id int) bool {
	for _, t := range tabs {
		if t.ID == id {
			return true
		}
	}
	return false
}
