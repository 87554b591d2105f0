package units

import (
	"math"
	"testing"
	"time"
)

func TestDateToEpochOffset(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want int64
	}{
		{"epoch itself", Epoch, 0},
		{"one day later", Epoch.Add(24 * time.Hour), 86400},
		{"before epoch", Epoch.Add(-90 * time.Second), -90},
		{"fraction floors", Epoch.Add(1500 * time.Millisecond), 1},
		{"negative fraction floors", Epoch.Add(-500 * time.Millisecond), -1},
		{"zero date falls back to base", time.Time{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DateToEpochOffset(tt.date, Epoch); got != tt.want {
				t.Errorf("DateToEpochOffset = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEpochRoundTrip(t *testing.T) {
	dates := []time.Time{
		time.Date(2031, time.March, 14, 9, 26, 53, 589_000_000, time.UTC),
		time.Date(1999, time.December, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2045, time.July, 4, 0, 0, 0, 0, time.FixedZone("X", 3600)),
	}
	for _, d := range dates {
		back := EpochOffsetToDate(float64(DateToEpochOffset(d, Epoch)), Epoch)
		if diff := d.Sub(back); diff < 0 || diff >= time.Second {
			t.Errorf("round trip of %v = %v (diff %v)", d, back, diff)
		}
	}
}

func TestEpochOffsetsBeyondDurationRange(t *testing.T) {
	far := time.Date(2400, time.June, 1, 12, 0, 0, 0, time.UTC)
	offset := DateToEpochOffset(far, Epoch)
	if want := far.Unix() - Epoch.Unix(); offset != want {
		t.Fatalf("DateToEpochOffset(%v) = %d, want %d", far, offset, want)
	}
	if back := EpochOffsetToDate(float64(offset), Epoch); !back.Equal(far) {
		t.Errorf("EpochOffsetToDate(%d) = %v, want %v", offset, back, far)
	}

	early := time.Date(1500, time.January, 1, 0, 0, 0, 0, time.UTC)
	if back := EpochOffsetToDate(float64(DateToEpochOffset(early, Epoch)), Epoch); !back.Equal(early) {
		t.Errorf("round trip of %v = %v", early, back)
	}
}

func TestEpochOffsetToDateNonNumeric(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := EpochOffsetToDate(v, Epoch); !got.Equal(Epoch) {
			t.Errorf("EpochOffsetToDate(%v) = %v, want epoch", v, got)
		}
	}
}

func TestParseDateOffset(t *testing.T) {
	if got := ParseDateOffset("2000-01-02", Epoch); got != 86400 {
		t.Errorf("date-only = %d, want 86400", got)
	}
	if got := ParseDateOffset("2000-01-01T00:01:00Z", Epoch); got != 60 {
		t.Errorf("rfc3339 = %d, want 60", got)
	}
	if got := ParseDateOffset("not a date", Epoch); got != 0 {
		t.Errorf("invalid = %d, want 0", got)
	}
}

func TestOffsetFromValue(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{float64(12.5), 12.5},
		{int64(7), 7},
		{"42", 42},
		{"soon", 0},
		{nil, 0},
		{[]any{1.0}, 0},
	}
	for _, tt := range tests {
		if got := OffsetFromValue(tt.in); got != tt.want {
			t.Errorf("OffsetFromValue(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRescalePairsAreInverse(t *testing.T) {
	scales := Scales{"trajectory.relay_volume": 1e-3}
	const field = "trajectory.relay_volume"
	for _, v := range []float64{0, 1, 2500, -3.75} {
		if got := scales.Stored(field, scales.Display(field, v)); math.Abs(got-v) > 1e-9 {
			t.Errorf("Stored(Display(%v)) = %v", v, got)
		}
	}
	if got := scales.Display(field, 2500); got != 2.5 {
		t.Errorf("Display = %v, want 2.5", got)
	}
	if got := scales.Display("trajectory.c3", 10); got != 10 {
		t.Errorf("unscaled field changed: %v", got)
	}
	if got := Rescale(4, 0, ToStored); got != 4 {
		t.Errorf("zero factor should be identity, got %v", got)
	}
}
