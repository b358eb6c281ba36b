// Package planning holds the sprint planning rules that do not touch storage:
// the work session hours ledger, the iteration calendar validators, capacity
// aggregation over planned items, task move bounds and the work item hierarchy.
//
// Every quantity of hours is a decimal.Decimal. Calendar days are time.Time
// values at UTC midnight; use Day to normalize instants before comparing.
package planning
