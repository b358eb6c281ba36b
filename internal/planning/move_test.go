package planning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMove(t *testing.T) {
	t.Parallel()

	start, end := day(t, "2025-01-06"), day(t, "2025-01-17")

	cases := []struct {
		name      string
		from, to  string
		wantField string
	}{
		{name: "inside sprint", from: "2025-01-07", to: "2025-01-09"},
		{name: "single day on the boundary", from: "2025-01-17", to: "2025-01-17"},
		{name: "starts before sprint", from: "2025-01-05", to: "2025-01-07", wantField: "start_date"},
		{name: "ends after sprint", from: "2025-01-10", to: "2025-01-18", wantField: "end_date"},
		{name: "end before start", from: "2025-01-10", to: "2025-01-08", wantField: "end_date"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateMove(start, end, day(t, tc.from), day(t, tc.to))
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tc.wantField, fieldErr.Field)
		})
	}
}
