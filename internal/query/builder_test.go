package query

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/jengzang/trajectory-explorer/internal/filter"
	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/units"
)

func TestBuildConstraints(t *testing.T) {
	list := filter.List{
		{ID: 1, DataField: "trajectory.c3", Type: filter.KindSliderRange, Value: []float64{50, 150}},
		{ID: 2, DataField: "trajectory.launch_body", Type: filter.KindSelect, Value: "Earth"},
		{ID: 3, DataField: "trajectory.flyby", Type: filter.KindMultiSelect, Value: []any{"Venus", "Mars"}},
		{ID: 4, DataField: "entry.altitude", Type: filter.KindSliderRange, Value: []float64{0, 10}},
		{ID: 5, DataField: "trajectory.tof", Type: filter.KindSliderRange},
		{ID: 6, DataField: "trajectory.mode", Type: filter.KindSelect},
		{ID: 7, DataField: "trajectory.tags", Type: filter.KindMultiSelect, Value: []any{}},
		{ID: 8, DataField: "trajectory.shape", Type: filter.KindUnknown, Value: "x"},
		{ID: 9, DataField: "entry.site", Type: filter.KindSelect, Value: "Jezero"},
	}

	q := Build(list, 499)

	if q.TargetBody != 499 {
		t.Errorf("TargetBody = %d, want 499", q.TargetBody)
	}
	if len(q.Filters) != 3 {
		t.Fatalf("got %d constraints, want 3: %+v", len(q.Filters), q.Filters)
	}
	c3 := q.Filters[0]
	if c3.FieldName != "c3" || c3.Category != models.CategorySlider || *c3.Lower != 50 || *c3.Upper != 150 {
		t.Errorf("range constraint = %+v", c3)
	}
	if q.Filters[1].FieldName != "launch_body" || q.Filters[1].Value != "Earth" || q.Filters[1].Category != models.CategoryValue {
		t.Errorf("select constraint = %+v", q.Filters[1])
	}
	if !reflect.DeepEqual(q.Filters[2].Value, []any{"Venus", "Mars"}) {
		t.Errorf("multi-select constraint = %+v", q.Filters[2])
	}
}

func TestBuildNeverEmitsEmptyConstraints(t *testing.T) {
	lists := []filter.List{
		nil,
		{{ID: 1, DataField: "trajectory.a", Type: filter.KindSelect}},
		{{ID: 1, DataField: "trajectory.a", Type: filter.KindSelect, Value: []any{}}},
		{{ID: 1, DataField: "trajectory.a", Type: filter.KindSelect, Value: []string{}}},
		{{ID: 1, DataField: "trajectory.a", Type: filter.KindSelect, Value: []float64{}}},
		{{ID: 1, DataField: "trajectory.a", Type: filter.KindMultiSelect, Value: []string{}}},
		{{ID: 1, DataField: "trajectory.a", Type: filter.KindMultiSelect, Value: []any{}}},
		{{ID: 1, DataField: "trajectory.a", Type: filter.KindSliderRange, Value: []any{}}},
		{{ID: 1, DataField: "trajectory.a", Type: filter.KindDateRange, Value: []float64{}}},
	}
	for i, list := range lists {
		q := Build(list, 1)
		for _, c := range q.Filters {
			if c.Category == models.CategoryValue && c.Value == nil {
				t.Errorf("list %d: nil value constraint %+v", i, c)
			}
			if vs, ok := c.Value.([]any); ok && len(vs) == 0 {
				t.Errorf("list %d: empty list constraint %+v", i, c)
			}
			if c.Category == models.CategorySlider && (c.Lower == nil || c.Upper == nil) {
				t.Errorf("list %d: incomplete range %+v", i, c)
			}
		}
		if len(q.Filters) != 0 {
			t.Errorf("list %d: expected no constraints, got %+v", i, q.Filters)
		}
	}
}

func TestBuildAfterSingleEdgeEditEncodes(t *testing.T) {
	it := filter.Item{ID: 1, DataField: "trajectory.c3", Type: filter.KindSliderRange}
	it.SetLower(50)

	q := Build(filter.List{it}, 3)
	if len(q.Filters) != 1 {
		t.Fatalf("filters = %+v", q.Filters)
	}
	if c := q.Filters[0]; *c.Lower != 50 || *c.Upper != 50 {
		t.Errorf("constraint = [%v %v], want [50 50]", *c.Lower, *c.Upper)
	}
	if _, err := json.Marshal(q); err != nil {
		t.Errorf("query does not encode: %v", err)
	}
}

func TestBuildFields(t *testing.T) {
	b := Builder{CatalogFields: []string{"trajectory.c3", "trajectory.tof", "entry.altitude"}}
	list := filter.List{
		{ID: 1, DataField: "trajectory.c3", Type: filter.KindSliderRange},
		{ID: 2, DataField: "trajectory.vinf_x", Type: filter.KindSliderRange},
		{ID: 3, DataField: "entry.site", Type: filter.KindSelect},
	}
	q := b.Build(list, 1)
	want := []string{"trajectory.id", "trajectory.c3", "trajectory.tof", "trajectory.vinf_x"}
	if !reflect.DeepEqual(q.Fields, want) {
		t.Errorf("Fields = %v, want %v", q.Fields, want)
	}
}

func TestBuildRescalesBounds(t *testing.T) {
	b := Builder{Scales: units.Scales{"trajectory.relay_volume": 1e-3}}
	list := filter.List{{ID: 1, DataField: "trajectory.relay_volume", Type: filter.KindSliderRange, Value: []float64{1, 2.5}}}
	c := b.Build(list, 1).Filters[0]
	if *c.Lower != 1000 || *c.Upper != 2500 {
		t.Errorf("stored bounds = [%v %v], want [1000 2500]", *c.Lower, *c.Upper)
	}
}

func TestQueryWireShape(t *testing.T) {
	list := filter.List{
		{ID: 1, DataField: "trajectory.c3", Type: filter.KindSliderRange, Value: []float64{0, 1}},
		{ID: 2, DataField: "trajectory.body", Type: filter.KindSelect, Value: "Mars"},
	}
	data, err := json.Marshal(Build(list, 1))
	if err != nil {
		t.Fatal(err)
	}
	const want = `{"filters":[{"field_name":"c3","category":"slider","lower":0,"upper":1},{"field_name":"body","category":"value","value":"Mars"}],"fields":["trajectory.id","trajectory.c3","trajectory.body"]}`
	if string(data) != want {
		t.Errorf("wire = %s\nwant  %s", data, want)
	}
}

func TestCatalogFieldNames(t *testing.T) {
	got := CatalogFieldNames(filter.TrajectoryPrefix, []models.FilterField{{Name: "c3"}, {Name: "trajectory.tof"}})
	want := []string{"trajectory.c3", "trajectory.tof"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
