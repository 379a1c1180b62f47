package ventra

import "time"

const (
	// maxWindowSpan is the widest date range the gateway accepts on a single
	// request, six months at 30 days each.
	maxWindowSpan = 180 * 24 * time.Hour

	// windowSafetyMargin keeps generated windows a day inside the hard cap so
	// timezone drift on the gateway side never rejects a boundary request.
	windowSafetyMargin = 24 * time.Hour
)

// Window is one sub-range of a requested date interval, sized to satisfy the
// gateway's maximum-span constraint.
type Window struct {
	Start time.Time
	End   time.Time
}

// Min formats the window start for the date_min query parameter.
func (w Window) Min() string { return w.Start.Format(timeFormat) }

// Max formats the window end for the date_max query parameter.
func (w Window) Max() string { return w.End.Format(timeFormat) }

// SplitWindows slices [start, end] into consecutive windows no wider than the
// gateway allows. Each window starts exactly where the previous one ended, so
// the union covers the requested range with no gaps. Returns nil when the
// range is empty or inverted.
func SplitWindows(start, end time.Time) []Window {
	if !start.Before(end) {
		return nil
	}

	span := maxWindowSpan - windowSafetyMargin
	var windows []Window
	for cursor := start; cursor.Before(end); {
		windowEnd := cursor.Add(span)
		if windowEnd.After(end) {
			windowEnd = end
		}
		windows = append(windows, Window{Start: cursor, End: windowEnd})
		cursor = windowEnd
	}
	return windows
}
