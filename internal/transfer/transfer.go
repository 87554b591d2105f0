// Package transfer reads and writes the shareable dashboard configuration:
// the filter list plus the tab layout.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"

	"github.com/jengzang/trajectory-explorer/internal/filter"
	"github.com/jengzang/trajectory-explorer/internal/models"
)

// ErrMalformedImport is returned when a file lacks either section or is not
// a JSON object.
var ErrMalformedImport = errors.New("malformed import")

// Config is the exported document.
type Config struct {
	FilterList filter.List  `json:"filterList"`
	Tabs       []models.Tab `json:"tabs"`
}

// Decode parses data. Comments and trailing commas are tolerated. Items
// that fail filter.Item.Validate are still returned; callers decide whether
// to report them.
func Decode(data []byte) (Config, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	filtersRaw, hasFilters := raw["filterList"]
	tabsRaw, hasTabs := raw["tabs"]
	if !hasFilters || !hasTabs {
		return Config{}, fmt.Errorf("%w: filterList and tabs are both required", ErrMalformedImport)
	}

	var cfg Config
	if err := json.Unmarshal(filtersRaw, &cfg.FilterList); err != nil {
		return Config{}, fmt.Errorf("%w: filterList: %v", ErrMalformedImport, err)
	}
	if err := json.Unmarshal(tabsRaw, &cfg.Tabs); err != nil {
		return Config{}, fmt.Errorf("%w: tabs: %v", ErrMalformedImport, err)
	}
	if cfg.FilterList == nil {
		cfg.FilterList = filter.List{}
	}
	if cfg.Tabs == nil {
		cfg.Tabs = []models.Tab{}
	}
	return cfg, nil
}

// Read decodes a configuration from r.
func Read(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read import: %w", err)
	}
	return Decode(data)
}

// Encode renders cfg as indented JSON. Nil sections are written as empty
// arrays so the result always imports.
func Encode(cfg Config) ([]byte, error) {
	if cfg.FilterList == nil {
		cfg.FilterList = filter.List{}
	}
	if cfg.Tabs == nil {
		cfg.Tabs = []models.Tab{}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// Write encodes cfg to w.
func Write(w io.Writer, cfg Config) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
