package models

import (
	"encoding/json"
	"strings"
)

// GraphKind is the closed set of graph types a tab can hold.
type GraphKind int

const (
	GraphUnknown GraphKind = iota
	GraphScatter
	GraphHistogram
)

var graphKindNames = map[GraphKind]string{
	GraphScatter:   "scatter",
	GraphHistogram: "histogram",
}

// String returns the wire name of the kind.
func (k GraphKind) String() string {
	if name, ok := graphKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Renderable reports whether a view exists for this kind. Unknown graphs
// render nothing.
func (k GraphKind) Renderable() bool {
	return k != GraphUnknown
}

func (k GraphKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *GraphKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		*k = GraphUnknown
		return nil
	}
	*k = GraphUnknown
	for kind, n := range graphKindNames {
		if strings.EqualFold(n, name) {
			*k = kind
		}
	}
	return nil
}

// Graph is one plot inside a tab. Axis and colour fields are namespaced
// data fields.
type Graph struct {
	ID    int       `json:"id"`
	Type  GraphKind `json:"type"`
	X     string    `json:"x,omitempty"`
	Y     string    `json:"y,omitempty"`
	Color string    `json:"color,omitempty"`
}

// Tab is a named page of graphs. The layout is owned by the host UI; the
// engine only stores, persists and exports it.
type Tab struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Graphs []Graph `json:"graphs"`
}
