package planning

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParent(t *testing.T) {
	t.Parallel()

	epic, feature, story, task := TypeEpic, TypeFeature, TypeUserStory, TypeTask

	cases := []struct {
		name    string
		child   ItemType
		parent  *ItemType
		wantErr bool
	}{
		{name: "epic without parent", child: TypeEpic},
		{name: "epic with parent", child: TypeEpic, parent: &feature, wantErr: true},
		{name: "feature under epic", child: TypeFeature, parent: &epic},
		{name: "feature without parent", child: TypeFeature, wantErr: true},
		{name: "story under feature", child: TypeUserStory, parent: &feature},
		{name: "story under epic", child: TypeUserStory, parent: &epic, wantErr: true},
		{name: "task under story", child: TypeTask, parent: &story},
		{name: "task under task", child: TypeTask, parent: &task, wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateParent(tc.child, tc.parent)
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, "parent_id", fieldErr.Field)
		})
	}
}

func TestValidateTransition(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateTransition(StateNew, StateClosed))
	assert.NoError(t, ValidateTransition(StateClosed, StateActive))
	assert.NoError(t, ValidateTransition(StateActive, StateRemoved))
	assert.NoError(t, ValidateTransition(StateRemoved, StateRemoved))
	assert.Error(t, ValidateTransition(StateRemoved, StateActive))
	assert.Error(t, ValidateTransition(StateNew, ItemState("Done")))
}

func TestCollectDescendants(t *testing.T) {
	t.Parallel()

	tree := map[string][]string{
		"epic":    {"feat-1", "feat-2"},
		"feat-1":  {"story-1"},
		"story-1": {"task-1", "task-2"},
		"feat-2":  {},
	}
	children := func(id string) ([]string, error) { return tree[id], nil }

	t.Run("walks the full subtree", func(t *testing.T) {
		t.Parallel()
		got, err := CollectDescendants("epic", children)
		require.NoError(t, err)
		sort.Strings(got)
		assert.Equal(t, []string{"feat-1", "feat-2", "story-1", "task-1", "task-2"}, got)
	})

	t.Run("leaves siblings alone", func(t *testing.T) {
		t.Parallel()
		got, err := CollectDescendants("feat-1", children)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"story-1", "task-1", "task-2"}, got)
	})

	t.Run("terminates on cycles", func(t *testing.T) {
		t.Parallel()
		cyclic := map[string][]string{"a": {"b"}, "b": {"c"}, "c": {"a", "b"}}
		got, err := CollectDescendants("a", func(id string) ([]string, error) { return cyclic[id], nil })
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"b", "c"}, got)
	})

	t.Run("propagates lookup failures", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		_, err := CollectDescendants("epic", func(string) ([]string, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
	})
}
