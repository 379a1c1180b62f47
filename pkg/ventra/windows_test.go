package ventra

import (
	"testing"
	"time"
)

func TestSplitWindowsCoversRangeContiguously(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	windows := SplitWindows(start, end)
	if len(windows) < 2 {
		t.Fatalf("expected a year to split into multiple windows, got %d", len(windows))
	}

	if !windows[0].Start.Equal(start) {
		t.Fatalf("first window starts at %v, want %v", windows[0].Start, start)
	}
	if !windows[len(windows)-1].End.Equal(end) {
		t.Fatalf("last window ends at %v, want %v", windows[len(windows)-1].End, end)
	}

	for i, w := range windows {
		if !w.Start.Before(w.End) {
			t.Fatalf("window %d is empty or inverted: %+v", i, w)
		}
		if span := w.End.Sub(w.Start); span > maxWindowSpan {
			t.Fatalf("window %d spans %v, exceeds the gateway cap %v", i, span, maxWindowSpan)
		}
		if i > 0 && !w.Start.Equal(windows[i-1].End) {
			t.Fatalf("gap or overlap between window %d and %d: %v vs %v", i-1, i, windows[i-1].End, w.Start)
		}
	}
}

func TestSplitWindowsKeepsSafetyMargin(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(2, 0, 0)

	for i, w := range SplitWindows(start, end) {
		if span := w.End.Sub(w.Start); span > maxWindowSpan-windowSafetyMargin {
			t.Fatalf("window %d spans %v, wider than cap minus margin", i, span)
		}
	}
}

func TestSplitWindowsShortRangeIsSingleWindow(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	windows := SplitWindows(start, end)
	if len(windows) != 1 {
		t.Fatalf("expected a single window, got %d", len(windows))
	}
	if !windows[0].Start.Equal(start) || !windows[0].End.Equal(end) {
		t.Fatalf("window does not cover the range: %+v", windows[0])
	}
}

func TestSplitWindowsRejectsEmptyRange(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if windows := SplitWindows(at, at); windows != nil {
		t.Fatalf("expected nil for empty range, got %d windows", len(windows))
	}
	if windows := SplitWindows(at, at.AddDate(0, 0, -1)); windows != nil {
		t.Fatalf("expected nil for inverted range, got %d windows", len(windows))
	}
}

func TestWindowFormatsGatewayTimestamps(t *testing.T) {
	w := Window{
		Start: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		End:   time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC),
	}
	if got := w.Min(); got != "2025-01-02 03:04:05" {
		t.Fatalf("unexpected date_min %q", got)
	}
	if got := w.Max(); got != "2025-02-03 04:05:06" {
		t.Fatalf("unexpected date_max %q", got)
	}
}
