package spaced_repetition

import "time"

// DateLayout is the storage format of review dates
const DateLayout = "2006-01-02"

// Date truncates t to its calendar day, expressed as midnight UTC
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day in the given zone
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(now.In(loc))
}

// FormatDate renders a calendar day for storage
func FormatDate(t time.Time) string {
	return Date(t).Format(DateLayout)
}

// ParseDate reads a stored calendar day
func ParseDate(s string) (time.Time, error) {
	if len(s) > len(DateLayout) {
		// postgres and some sqlite drivers hand back full timestamps
		s = s[:len(DateLayout)]
	}
	return time.Parse(DateLayout, s)
}
