package repository

import (
	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/spatial"
)

// derivedField is a value computed from stored columns after the query.
type derivedField struct {
	inputs  []string
	compute func(r models.Record) (float64, bool)
}

var trajectoryDerived = map[string]derivedField{
	"v_inf_mag": {
		inputs:  []string{"vinf_x", "vinf_y", "vinf_z"},
		compute: magnitudeOf("vinf_x", "vinf_y", "vinf_z"),
	},
}

var entryDerived = map[string]derivedField{
	"radius": {
		inputs:  []string{"pos_x", "pos_y", "pos_z"},
		compute: magnitudeOf("pos_x", "pos_y", "pos_z"),
	},
}

func magnitudeOf(x, y, z string) func(models.Record) (float64, bool) {
	return func(r models.Record) (float64, bool) {
		vx, okX := r.Number(x)
		vy, okY := r.Number(y)
		vz, okZ := r.Number(z)
		if !okX || !okY || !okZ {
			return 0, false
		}
		return spatial.Magnitude(vx, vy, vz), true
	}
}

// derive adds every derived field in want to r. Fields whose inputs are
// missing are left out.
func derive(r models.Record, derived map[string]derivedField, want []string) {
	for _, name := range want {
		d, ok := derived[name]
		if !ok {
			continue
		}
		if v, ok := d.compute(r); ok {
			r[name] = v
		}
	}
}

// fillLatLng completes an entry's latitude/longitude from its body-fixed
// position when the stored values are null.
func fillLatLng(r models.Record) {
	_, hasLat := r.Number("latitude")
	_, hasLon := r.Number("longitude")
	if hasLat && hasLon {
		return
	}
	x, okX := r.Number("pos_x")
	y, okY := r.Number("pos_y")
	z, okZ := r.Number("pos_z")
	if !okX || !okY || !okZ {
		return
	}
	if lat, lon, ok := spatial.LatLngOf(x, y, z); ok {
		r["latitude"] = lat
		r["longitude"] = lon
	}
}
