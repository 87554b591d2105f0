package models

// Arc is the great-circle polyline drawn for an entry point. Points are
// [lat, lon] pairs in degrees.
type Arc struct {
	EntryID int64        `json:"entry_id"`
	Points  [][2]float64 `json:"points"`
}
