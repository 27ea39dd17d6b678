package scheduling

import "time"

// DefaultDuration is used when an appointment references a service that no
// longer exists.
const DefaultDuration = 30 * time.Minute

type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start time.Time, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// Contains reports whether t lies in [Start, End], boundaries included.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && !t.After(iv.End)
}

// Overlaps reports whether two intervals share any instant. Boundaries are
// inclusive: an interval ending exactly when the other starts overlaps it.
func (iv Interval) Overlaps(other Interval) bool {
	return Overlaps(iv.Start, iv.End, other.Start, other.End)
}

// Overlaps is the single overlap test used by both the conflict detector and
// the assignment engine.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(aStart) {
		aStart, aEnd = aEnd, aStart
	}
	if bEnd.Before(bStart) {
		bStart, bEnd = bEnd, bStart
	}
	b := Interval{Start: bStart, End: bEnd}
	if b.Contains(aStart) || b.Contains(aEnd) {
		return true
	}
	return !aStart.After(bStart) && !aEnd.Before(bEnd)
}

// SameCalendarDay compares calendar dates in loc, not a rolling 24h window.
func SameCalendarDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DayBounds returns the start of the calendar day containing t in loc and the
// start of the following day.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
