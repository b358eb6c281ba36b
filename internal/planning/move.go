package planning

import "time"

// ValidateMove checks new task dates against the sprint range [sprintStart, sprintEnd].
func ValidateMove(sprintStart, sprintEnd, newStart, newEnd time.Time) error {
	if !WithinRange(newStart, sprintStart, sprintEnd) {
		return fieldError("start_date", "start date %s is outside the sprint %s..%s",
			FormatDay(newStart), FormatDay(sprintStart), FormatDay(sprintEnd))
	}
	if !WithinRange(newEnd, sprintStart, sprintEnd) {
		return fieldError("end_date", "end date %s is outside the sprint %s..%s",
			FormatDay(newEnd), FormatDay(sprintStart), FormatDay(sprintEnd))
	}
	if Day(newEnd).Before(Day(newStart)) {
		return fieldError("end_date", "end date must not be before start date")
	}
	return nil
}
