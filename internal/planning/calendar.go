package planning

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// DayLayout is the wire and storage form of a calendar day.
const DayLayout = "2006-01-02"

// Day truncates t to midnight UTC of the calendar date t carries in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a calendar day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return Day(t).Format(DayLayout)
}

// ParseDay accepts YYYY-MM-DD or an RFC3339 instant whose date part is taken.
func ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(DayLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return Day(t), nil
	}
	return time.Time{}, fmt.Errorf("planning: invalid date %q", value)
}

// NormalizeDay converts a stored working day value into a calendar day.
func NormalizeDay(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return Day(v), nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("planning: nil date")
		}
		return Day(*v), nil
	case string:
		return ParseDay(v)
	default:
		return time.Time{}, fmt.Errorf("planning: unsupported date value %T", value)
	}
}

// WorkingDays normalizes a mixed list of dates and ISO strings into sorted,
// de-duplicated calendar days.
func WorkingDays(values []any) ([]time.Time, error) {
	days := make([]time.Time, 0, len(values))
	for _, value := range values {
		day, err := NormalizeDay(value)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	days = lo.UniqBy(days, FormatDay)
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// ParseWorkingDays is WorkingDays over plain strings.
func ParseWorkingDays(values []string) ([]time.Time, error) {
	return WorkingDays(lo.ToAnySlice(values))
}

// FormatWorkingDays renders days as YYYY-MM-DD strings.
func FormatWorkingDays(days []time.Time) []string {
	return lo.Map(days, func(d time.Time, _ int) string { return FormatDay(d) })
}

// ContainsDay reports whether day is one of days.
func ContainsDay(days []time.Time, day time.Time) bool {
	target := Day(day)
	return lo.ContainsBy(days, func(d time.Time) bool { return Day(d).Equal(target) })
}

// ValidateDates requires start to fall strictly before end.
func ValidateDates(start, end time.Time) error {
	if !Day(start).Before(Day(end)) {
		return fieldError("end_date", "start_date must be before end_date")
	}
	return nil
}

// ValidateWorkingDays requires every day to lie within [start, end].
func ValidateWorkingDays(days []time.Time, start, end time.Time) error {
	first, last := Day(start), Day(end)
	for _, d := range days {
		day := Day(d)
		if day.Before(first) || day.After(last) {
			return fieldError("working_days", "working day %s is outside the iteration range %s..%s",
				FormatDay(day), FormatDay(first), FormatDay(last))
		}
	}
	return nil
}

// WithinRange reports whether day lies in the closed range [start, end].
func WithinRange(day, start, end time.Time) bool {
	d := Day(day)
	return !d.Before(Day(start)) && !d.After(Day(end))
}

// Overlaps is the half-open interval intersection test: ranges that only
// touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Span is a named date range, typically an existing iteration.
type Span struct {
	ID    string
	Name  string
	Start time.Time
	End   time.Time
}

// FindOverlap returns the first span that overlaps [start, end), skipping excludeID.
func FindOverlap(spans []Span, start, end time.Time, excludeID string) (Span, bool) {
	return lo.Find(spans, func(s Span) bool {
		return s.ID != excludeID && Overlaps(s.Start, s.End, start, end)
	})
}

// DefaultWeekdays are the days SuggestWorkingDays uses when none are given.
var DefaultWeekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// SuggestWorkingDays expands [start, end] into the days falling on weekdays,
// skipping holidays. The result is a proposal; iterations store whatever list
// the caller finally submits.
func SuggestWorkingDays(start, end time.Time, weekdays []time.Weekday, holidays []time.Time) []time.Time {
	if len(weekdays) == 0 {
		weekdays = DefaultWeekdays
	}
	closed := lo.SliceToMap(holidays, func(h time.Time) (string, struct{}) {
		return FormatDay(h), struct{}{}
	})

	var days []time.Time
	for day := Day(start); !day.After(Day(end)); day = day.AddDate(0, 0, 1) {
		if !lo.Contains(weekdays, day.Weekday()) {
			continue
		}
		if _, ok := closed[FormatDay(day)]; ok {
			continue
		}
		days = append(days, day)
	}
	return days
}
