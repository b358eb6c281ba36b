package planning

import (
	"time"

	"github.com/shopspring/decimal"
)

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// Session is the slice of a work session the hours ledger needs.
type Session struct {
	StartedAt  time.Time
	EndedAt    *time.Time
	TotalHours *decimal.Decimal
}

// Open reports whether the session has not been closed yet.
func (s Session) Open() bool {
	return s.EndedAt == nil
}

// Hours is the completed and remaining effort of a task.
type Hours struct {
	Completed decimal.Decimal
	// Remaining is nil when the task carries no estimation.
	Remaining *decimal.Decimal
}

// SessionHours returns the length of [start, end) in hours rounded to two places.
func SessionHours(start, end time.Time) decimal.Decimal {
	return decimal.NewFromInt(int64(end.Sub(start))).Div(nanosPerHour).Round(2)
}

// ElapsedHours is SessionHours clamped at zero, used for sessions still running.
func ElapsedHours(start, now time.Time) decimal.Decimal {
	if !now.After(start) {
		return decimal.Zero
	}
	return SessionHours(start, now)
}

// ComputeHours sums closed session totals and adds the elapsed time of the
// open session measured at now. When several sessions are open the most
// recently started one counts.
func ComputeHours(sessions []Session, estimation *decimal.Decimal, now time.Time) Hours {
	completed := decimal.Zero
	var open *Session
	for i := range sessions {
		s := &sessions[i]
		if s.Open() {
			if open == nil || s.StartedAt.After(open.StartedAt) {
				open = s
			}
			continue
		}
		if s.TotalHours != nil {
			completed = completed.Add(*s.TotalHours)
		}
	}
	if open != nil {
		completed = completed.Add(ElapsedHours(open.StartedAt, now))
	}

	hours := Hours{Completed: completed}
	if estimation != nil {
		remaining := estimation.Sub(completed)
		hours.Remaining = &remaining
	}
	return hours
}
