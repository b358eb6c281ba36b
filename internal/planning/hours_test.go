package planning

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	d := dec(t, s)
	return &d
}

func TestComputeHours(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)

	t.Run("closed sessions sum exactly regardless of now", func(t *testing.T) {
		t.Parallel()
		end := now.Add(-time.Hour)
		sessions := []Session{
			{StartedAt: now.Add(-5 * time.Hour), EndedAt: &end, TotalHours: decPtr(t, "0.10")},
			{StartedAt: now.Add(-4 * time.Hour), EndedAt: &end, TotalHours: decPtr(t, "0.20")},
			{StartedAt: now.Add(-3 * time.Hour), EndedAt: &end, TotalHours: nil},
		}

		first := ComputeHours(sessions, nil, now)
		later := ComputeHours(sessions, nil, now.Add(72*time.Hour))

		assert.True(t, first.Completed.Equal(dec(t, "0.30")), "got %s", first.Completed)
		assert.True(t, later.Completed.Equal(first.Completed))
		assert.Nil(t, first.Remaining)
	})

	t.Run("open session contributes elapsed time", func(t *testing.T) {
		t.Parallel()
		sessions := []Session{{StartedAt: now.Add(-90 * time.Minute)}}

		hours := ComputeHours(sessions, decPtr(t, "4"), now)

		assert.Equal(t, "1.50", hours.Completed.StringFixed(2))
		require.NotNil(t, hours.Remaining)
		assert.Equal(t, "2.50", hours.Remaining.StringFixed(2))
	})

	t.Run("open session in the future counts as zero", func(t *testing.T) {
		t.Parallel()
		sessions := []Session{{StartedAt: now.Add(time.Hour)}}

		hours := ComputeHours(sessions, nil, now)

		assert.True(t, hours.Completed.IsZero())
	})

	t.Run("latest open session wins when several are open", func(t *testing.T) {
		t.Parallel()
		sessions := []Session{
			{StartedAt: now.Add(-3 * time.Hour)},
			{StartedAt: now.Add(-30 * time.Minute)},
		}

		hours := ComputeHours(sessions, nil, now)

		assert.Equal(t, "0.50", hours.Completed.StringFixed(2))
	})

	t.Run("no sessions leaves remaining equal to estimation", func(t *testing.T) {
		t.Parallel()
		hours := ComputeHours(nil, decPtr(t, "6.25"), now)

		assert.True(t, hours.Completed.IsZero())
		require.NotNil(t, hours.Remaining)
		assert.Equal(t, "6.25", hours.Remaining.StringFixed(2))
	})
}

func TestSessionHours(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		end  time.Time
		want string
	}{
		{name: "ninety minutes", end: start.Add(90 * time.Minute), want: "1.50"},
		{name: "rounds to two places", end: start.Add(20 * time.Minute), want: "0.33"},
		{name: "half up", end: start.Add(27 * time.Second), want: "0.01"},
		{name: "whole day", end: start.Add(24 * time.Hour), want: "24.00"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, SessionHours(start, tc.end).StringFixed(2))
		})
	}
}
