package timeutil

import "time"

// Common layouts for audit-note stamps
const (
	DateLayout  = "2006-01-02"
	StampLayout = "Jan 2, 2006 3:04 PM"
)

// Now returns the current time in UTC. All persisted timestamps are UTC;
// display conversion is the UI's job.
func Now() time.Time {
	return time.Now().UTC()
}

// Stamp formats a time the way audit notes record it.
func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}
