package calendar

// Range is an inclusive span of calendar days [Start, End].
type Range struct {
	Start Date
	End   Date
}

// Contains returns true if d is within [Start, End].
func (r Range) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Equal reports whether both ranges cover the same days.
func (r Range) Equal(other Range) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

// Overlaps reports whether the two ranges share at least one day.
func (r Range) Overlaps(other Range) bool {
	return r.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(r.End)
}

// Valid reports whether End is not before Start.
func (r Range) Valid() bool {
	return !r.Start.IsZero() && r.End.AfterOrEqual(r.Start)
}

// Days returns the number of days in the range.
func (r Range) Days() int {
	return DaysBetween(r.Start, r.End) + 1
}

// Precedes reports whether other starts on the day after r ends.
func (r Range) Precedes(other Range) bool {
	return r.End.AddDays(1).Equal(other.Start)
}

// Union returns the smallest range covering both.
func (r Range) Union(other Range) Range {
	out := r
	if other.Start.Before(out.Start) {
		out.Start = other.Start
	}
	if other.End.After(out.End) {
		out.End = other.End
	}
	return out
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
