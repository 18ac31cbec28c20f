package clock

import (
	"testing"
	"time"
)

func TestWindow(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, 5, 2, 3, 0, 0, 0, loc) // 2026-05-01T21:30Z
	start, end := Window(at, 24*time.Hour)
	if want := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("start=%v want %v", start, want)
	}
	if want := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Fatalf("end=%v want %v", end, want)
	}

	start, end = Window(time.Date(2026, 5, 1, 10, 7, 0, 0, time.UTC), 10*time.Minute)
	if start.Minute() != 0 || end.Minute() != 10 {
		t.Fatalf("start=%v end=%v", start, end)
	}
}
