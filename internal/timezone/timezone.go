// Package timezone resolves user-local calendar dates from IANA zone names.
package timezone

import "time"

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// IsValid reports whether name is a loadable IANA timezone identifier.
func IsValid(name string) bool {
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// LocalDate returns today's calendar date in the given zone, normalized to
// midnight UTC so the same day compares equal regardless of the zone it was
// resolved in. Falls back to the UTC date when the zone is invalid.
func LocalDate(name string) time.Time {
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	return DateIn(time.Now(), loc)
}

// DateIn buckets t into its calendar date in loc, normalized to midnight UTC.
func DateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Normalize truncates t to its own calendar date at midnight UTC.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextMidnight returns the next local midnight in the given zone. Used only
// for display; scheduling never relies on it.
func NextMidnight(name string, from time.Time) time.Time {
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	local := from.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// LocalTimeString formats the current wall-clock time in the given zone.
func LocalTimeString(name string, at time.Time) string {
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	return at.In(loc).Format("2006-01-02 15:04:05 MST")
}
