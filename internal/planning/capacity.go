package planning

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Member is a project member contributing capacity to a sprint.
type Member struct {
	UserID         string
	DisplayName    string
	CapacityPerDay decimal.Decimal
}

// PlannedItem is a drop plan entry with the estimation of its work item.
type PlannedItem struct {
	ID             string
	WorkItemID     string
	AssignedUserID string
	PlannedDate    time.Time
	Estimation     *decimal.Decimal
}

// Hours is the planned effort of the item; unestimated items count as zero.
func (p PlannedItem) Hours() decimal.Decimal {
	if p.Estimation == nil {
		return decimal.Zero
	}
	return *p.Estimation
}

// DayLoad compares capacity against planned hours for one working day.
type DayLoad struct {
	Date            time.Time
	Capacity        decimal.Decimal
	Planned         decimal.Decimal
	IsOvercommitted bool
}

// UserLoad is one member's share of the sprint.
type UserLoad struct {
	UserID             string
	DisplayName        string
	Capacity           decimal.Decimal
	Planned            decimal.Decimal
	UtilizationPercent decimal.Decimal
}

// Capacity is the sprint-wide aggregation.
type Capacity struct {
	TotalCapacity      decimal.Decimal
	TotalPlanned       decimal.Decimal
	UtilizationPercent decimal.Decimal
	IsOvercommitted    bool
	ByDay              []DayLoad
	ByUser             []UserLoad
}

// OvercommittedDays counts the days whose planned hours exceed capacity.
func (c Capacity) OvercommittedDays() int {
	return lo.CountBy(c.ByDay, func(d DayLoad) bool { return d.IsOvercommitted })
}

// UtilizationPercent returns planned/capacity*100 rounded to two places, or
// zero when there is no capacity.
func UtilizationPercent(planned, capacity decimal.Decimal) decimal.Decimal {
	if capacity.IsZero() {
		return decimal.Zero
	}
	return planned.Div(capacity).Mul(hundred).Round(2)
}

// SumPlanned adds up the hours of items.
func SumPlanned(items []PlannedItem) decimal.Decimal {
	return lo.Reduce(items, func(acc decimal.Decimal, item PlannedItem, _ int) decimal.Decimal {
		return acc.Add(item.Hours())
	}, decimal.Zero)
}

// LoadByDay builds one DayLoad per working day for a fixed daily capacity.
// Items planned on days outside the list are not reported.
func LoadByDay(days []time.Time, capacityPerDay decimal.Decimal, items []PlannedItem) []DayLoad {
	planned := plannedByDay(items)
	return lo.Map(days, func(day time.Time, _ int) DayLoad {
		p, ok := planned[FormatDay(day)]
		if !ok {
			p = decimal.Zero
		}
		return DayLoad{
			Date:            Day(day),
			Capacity:        capacityPerDay,
			Planned:         p,
			IsOvercommitted: p.GreaterThan(capacityPerDay),
		}
	})
}

// SprintCapacity aggregates the capacity of members over the working days
// against every planned item of the sprint.
func SprintCapacity(days []time.Time, members []Member, items []PlannedItem) Capacity {
	dayCount := decimal.NewFromInt(int64(len(days)))

	dailyCapacity := lo.Reduce(members, func(acc decimal.Decimal, m Member, _ int) decimal.Decimal {
		return acc.Add(m.CapacityPerDay)
	}, decimal.Zero)

	totalCapacity := dailyCapacity.Mul(dayCount)
	totalPlanned := SumPlanned(items)

	byAssignee := lo.GroupBy(items, func(item PlannedItem) string { return item.AssignedUserID })
	byUser := lo.Map(members, func(m Member, _ int) UserLoad {
		capacity := m.CapacityPerDay.Mul(dayCount)
		planned := SumPlanned(byAssignee[m.UserID])
		return UserLoad{
			UserID:             m.UserID,
			DisplayName:        m.DisplayName,
			Capacity:           capacity,
			Planned:            planned,
			UtilizationPercent: UtilizationPercent(planned, capacity),
		}
	})

	return Capacity{
		TotalCapacity:      totalCapacity,
		TotalPlanned:       totalPlanned,
		UtilizationPercent: UtilizationPercent(totalPlanned, totalCapacity),
		IsOvercommitted:    totalPlanned.GreaterThan(totalCapacity),
		ByDay:              LoadByDay(days, dailyCapacity, items),
		ByUser:             byUser,
	}
}

func plannedByDay(items []PlannedItem) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, item := range items {
		key := FormatDay(item.PlannedDate)
		out[key] = out[key].Add(item.Hours())
	}
	return out
}
