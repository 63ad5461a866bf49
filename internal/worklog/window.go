package worklog

import (
	"fmt"
	"strings"
	"time"
)

// Window is an inclusive time range used to select worklogs.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// DefaultWindow covers the year leading up to now.
func DefaultWindow(now time.Time) Window {
	return Window{Start: now.AddDate(-1, 0, 0), End: now}
}

// ParseWindow builds a window from optional startDate/endDate values.
// Empty values fall back to DefaultWindow bounds.
func ParseWindow(start, end string, now time.Time) (Window, error) {
	w := DefaultWindow(now)

	if s := strings.TrimSpace(start); s != "" {
		t, ok := ParseTimestamp(s)
		if !ok {
			return Window{}, fmt.Errorf("worklog: invalid startDate %q", start)
		}
		w.Start = t
	}

	if e := strings.TrimSpace(end); e != "" {
		t, ok := ParseTimestamp(e)
		if !ok {
			return Window{}, fmt.Errorf("worklog: invalid endDate %q", end)
		}
		w.End = t
	}

	return w, nil
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats Jira emits for worklogs, plus
// bare dates which are taken as UTC midnight. It never panics; ok is false
// when no layout matches.
func ParseTimestamp(value string) (t time.Time, ok bool) {
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
