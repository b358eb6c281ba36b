package planning

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSprintCapacity(t *testing.T) {
	t.Parallel()

	days := []time.Time{day(t, "2025-01-06"), day(t, "2025-01-07"), day(t, "2025-01-08")}

	t.Run("no members means zero capacity and utilization", func(t *testing.T) {
		t.Parallel()
		items := []PlannedItem{{ID: "dp-1", AssignedUserID: "u-1", PlannedDate: days[0], Estimation: decPtr(t, "5")}}

		got := SprintCapacity(days, nil, items)

		assert.True(t, got.TotalCapacity.IsZero())
		assert.True(t, got.UtilizationPercent.IsZero())
		assert.Equal(t, "5.00", got.TotalPlanned.StringFixed(2))
		assert.True(t, got.IsOvercommitted)
		assert.Empty(t, got.ByUser)
	})

	t.Run("aggregates by day and by user", func(t *testing.T) {
		t.Parallel()
		members := []Member{
			{UserID: "u-1", DisplayName: "Ana", CapacityPerDay: dec(t, "8")},
			{UserID: "u-2", DisplayName: "Ben", CapacityPerDay: dec(t, "4")},
		}
		items := []PlannedItem{
			{ID: "dp-1", AssignedUserID: "u-1", PlannedDate: days[0], Estimation: decPtr(t, "10")},
			{ID: "dp-2", AssignedUserID: "u-2", PlannedDate: days[0], Estimation: decPtr(t, "3")},
			{ID: "dp-3", AssignedUserID: "u-1", PlannedDate: days[2], Estimation: decPtr(t, "2.5")},
			{ID: "dp-4", AssignedUserID: "u-2", PlannedDate: days[1], Estimation: nil},
		}

		got := SprintCapacity(days, members, items)

		assert.Equal(t, "36.00", got.TotalCapacity.StringFixed(2))
		assert.Equal(t, "15.50", got.TotalPlanned.StringFixed(2))
		assert.Equal(t, "43.06", got.UtilizationPercent.StringFixed(2))
		assert.False(t, got.IsOvercommitted)

		require.Len(t, got.ByDay, 3)
		assert.Equal(t, "12.00", got.ByDay[0].Capacity.StringFixed(2))
		assert.Equal(t, "13.00", got.ByDay[0].Planned.StringFixed(2))
		assert.True(t, got.ByDay[0].IsOvercommitted)
		assert.True(t, got.ByDay[1].Planned.IsZero())
		assert.False(t, got.ByDay[2].IsOvercommitted)
		assert.Equal(t, 1, got.OvercommittedDays())

		require.Len(t, got.ByUser, 2)
		assert.Equal(t, "24.00", got.ByUser[0].Capacity.StringFixed(2))
		assert.Equal(t, "12.50", got.ByUser[0].Planned.StringFixed(2))
		assert.Equal(t, "52.08", got.ByUser[0].UtilizationPercent.StringFixed(2))
		assert.Equal(t, "3.00", got.ByUser[1].Planned.StringFixed(2))
		assert.Equal(t, "25.00", got.ByUser[1].UtilizationPercent.StringFixed(2))
	})
}

func TestLoadByDay(t *testing.T) {
	t.Parallel()

	days := []time.Time{day(t, "2025-01-06"), day(t, "2025-01-07")}
	items := []PlannedItem{
		{PlannedDate: time.Date(2025, 1, 7, 14, 0, 0, 0, time.UTC), Estimation: decPtr(t, "9")},
		{PlannedDate: day(t, "2025-01-20"), Estimation: decPtr(t, "1")},
	}

	loads := LoadByDay(days, decimal.NewFromInt(8), items)

	require.Len(t, loads, 2)
	assert.False(t, loads[0].IsOvercommitted)
	assert.Equal(t, "9.00", loads[1].Planned.StringFixed(2))
	assert.True(t, loads[1].IsOvercommitted)
}

func TestUtilizationPercent(t *testing.T) {
	t.Parallel()

	assert.True(t, UtilizationPercent(dec(t, "5"), decimal.Zero).IsZero())
	assert.Equal(t, "33.33", UtilizationPercent(dec(t, "1"), dec(t, "3")).StringFixed(2))
	assert.Equal(t, "150.00", UtilizationPercent(dec(t, "12"), dec(t, "8")).StringFixed(2))
}
