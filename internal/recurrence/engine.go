package recurrence

import "time"

// Engine performs annual-recurrence date arithmetic for reminder events.
// All inputs are normalized to the engine's location before any calendar
// component is read, so a single Engine yields consistent dates regardless
// of the zone attached to its arguments.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that normalizes computations to the provided
// location. If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// IsLeapYear reports whether year is a leap year in the Gregorian calendar.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// StartOfDay truncates t to midnight of its calendar day in the engine's
// location.
func (e *Engine) StartOfDay(t time.Time) time.Time {
	loc := e.loc()
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// NextOccurrence returns the smallest calendar date greater than or equal to
// today on which the annual (month, day) recurrence falls.
//
// The engine enforces the following semantics:
//   - today is truncated to midnight before comparison, so an occurrence
//     falling on today's own date is returned for the current year rather
//     than pushed out twelve months.
//   - A February 29 rule collapses to February 28 in non-leap target years.
//     The substitution is evaluated independently for whichever year ends
//     up chosen.
//
// The (month, day) pair must be calendar-valid in at least some year;
// enforcing that (e.g. rejecting April 31) is the caller's responsibility.
func (e *Engine) NextOccurrence(today time.Time, month time.Month, day int) time.Time {
	start := e.StartOfDay(today)

	candidate := e.occurrenceInYear(start.Year(), month, day)
	if candidate.Before(start) {
		candidate = e.occurrenceInYear(start.Year()+1, month, day)
	}
	return candidate
}

func (e *Engine) occurrenceInYear(year int, month time.Month, day int) time.Time {
	if month == time.February && day == 29 && !IsLeapYear(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, e.loc())
}

// ElapsedYears returns the number of whole years between reference and today.
// The count is decremented by one when the (month, day) anniversary of the
// reference date has not yet arrived in today's year. Callers label the
// result "age" for birthdays and "years since" for anniversaries; the
// arithmetic is identical.
func (e *Engine) ElapsedYears(reference, today time.Time) int {
	loc := e.loc()
	reference = reference.In(loc)
	today = today.In(loc)

	years := today.Year() - reference.Year()
	if today.Month() < reference.Month() ||
		(today.Month() == reference.Month() && today.Day() < reference.Day()) {
		years--
	}
	return years
}

// DaysUntil returns the whole calendar days from today until occurrence, both
// truncated to midnight first. The result is zero when the occurrence falls
// on today and negative when it already passed.
func (e *Engine) DaysUntil(today, occurrence time.Time) int {
	from := e.StartOfDay(today)
	to := e.StartOfDay(occurrence)

	// Re-anchor both midnights in UTC so the subtraction is immune to DST
	// transitions inside the interval.
	fromUTC := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toUTC := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toUTC.Sub(fromUTC) / (24 * time.Hour))
}

func (e *Engine) loc() *time.Location {
	if e == nil || e.location == nil {
		return time.UTC
	}
	return e.location
}
