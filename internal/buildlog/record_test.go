package buildlog

import (
	"testing"
	"time"
)

func TestRecordFormat(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	r := Record{Timestamp: ts, ElapsedMin: 0.123, Level: LevelInfo, Message: "Building..."}
	got := r.Format()
	want := "2024-01-02 15:04:05 - 0.123 min - INFO - Building..."
	if got != want {
		t.Fatalf("Format mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestRecordFormatPadsElapsedToThreeDecimals(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	r := Record{Timestamp: ts, ElapsedMin: 1.5, Level: LevelError, Message: "boom"}
	want := "2024-01-02 15:04:05 - 1.500 min - ERROR - boom"
	if got := r.Format(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestDefaultClassifier(t *testing.T) {
	cases := []struct {
		line string
		want Level
	}{
		{"Building the book", LevelInfo},
		{"ERROR: missing file", LevelError},
		{"error while parsing notebook", LevelError},
		{"WARNING: stale cache", LevelWarning},
		{"warn: deprecated option", LevelWarning},
		{"", LevelInfo},
		{"Done", LevelInfo},
		// "error" wins when both substrings appear
		{"warning: previous error repeated", LevelError},
	}
	for _, c := range cases {
		if got := DefaultClassifier(c.line); got != c.want {
			t.Fatalf("classify(%q) = %s, want %s", c.line, got, c.want)
		}
	}
}

func TestElapsedRounding(t *testing.T) {
	start := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	cases := []struct {
		d    time.Duration
		want float64
	}{
		{0, 0},
		{10 * time.Second, 0.167},
		{90 * time.Second, 1.5},
		{100 * time.Millisecond, 0.002},
		{60 * time.Minute, 60},
	}
	for _, c := range cases {
		if got := Elapsed(start, start.Add(c.d)); got != c.want {
			t.Fatalf("Elapsed(+%v) = %v, want %v", c.d, got, c.want)
		}
	}
}

func TestElapsedClampsNegative(t *testing.T) {
	start := time.Now()
	if got := Elapsed(start, start.Add(-time.Minute)); got != 0 {
		t.Fatalf("expected 0 for rewound clock, got %v", got)
	}
}

func TestElapsedMonotonic(t *testing.T) {
	start := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	prev := -1.0
	for d := time.Duration(0); d < 10*time.Second; d += 137 * time.Millisecond {
		e := Elapsed(start, start.Add(d))
		if e < prev {
			t.Fatalf("elapsed decreased: %v after %v", e, prev)
		}
		prev = e
	}
}
