package planning

import (
	"fmt"

	"github.com/samber/lo"
)

// ItemType identifies the level of a work item in the hierarchy.
type ItemType string

const (
	TypeEpic      ItemType = "Epic"
	TypeFeature   ItemType = "Feature"
	TypeUserStory ItemType = "UserStory"
	TypeTask      ItemType = "Task"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case TypeEpic, TypeFeature, TypeUserStory, TypeTask:
		return true
	}
	return false
}

// ItemState is the workflow state of a work item.
type ItemState string

const (
	StateNew        ItemState = "New"
	StateActive     ItemState = "Active"
	StateInProgress ItemState = "InProgress"
	StateResolved   ItemState = "Resolved"
	StateClosed     ItemState = "Closed"
	StateRemoved    ItemState = "Removed"
)

// Valid reports whether s is a known work item state.
func (s ItemState) Valid() bool {
	switch s {
	case StateNew, StateActive, StateInProgress, StateResolved, StateClosed, StateRemoved:
		return true
	}
	return false
}

// Priority orders work items.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// IterationState is the lifecycle state of a sprint.
type IterationState string

const (
	IterationFuture  IterationState = "Future"
	IterationCurrent IterationState = "Current"
	IterationPast    IterationState = "Past"
)

// Valid reports whether s is a known iteration state.
func (s IterationState) Valid() bool {
	switch s {
	case IterationFuture, IterationCurrent, IterationPast:
		return true
	}
	return false
}

var requiredParents = map[ItemType]ItemType{
	TypeFeature:   TypeEpic,
	TypeUserStory: TypeFeature,
	TypeTask:      TypeUserStory,
}

// RequiredParent returns the type a parent of t must have. Epics have none.
func RequiredParent(t ItemType) (ItemType, bool) {
	parent, ok := requiredParents[t]
	return parent, ok
}

// ValidateParent checks the parent type of a child. parent is nil when the
// item has no parent.
func ValidateParent(child ItemType, parent *ItemType) error {
	want, needsParent := RequiredParent(child)
	switch {
	case !needsParent && parent != nil:
		return fieldError("parent_id", "%s cannot have a parent", child)
	case needsParent && parent == nil:
		return fieldError("parent_id", "%s requires a parent of type %s", child, want)
	case needsParent && *parent != want:
		return fieldError("parent_id", "%s parent must be %s, got %s", child, want, *parent)
	}
	return nil
}

// ValidateTransition rejects leaving the Removed state.
func ValidateTransition(from, to ItemState) error {
	if !to.Valid() {
		return fieldError("state", "unknown state %q", to)
	}
	if from == StateRemoved && to != StateRemoved {
		return fieldError("state", "a removed work item cannot move to %s", to)
	}
	return nil
}

// CollectDescendants walks the hierarchy below rootID with an explicit stack
// and returns every descendant id once. The root itself is not included.
func CollectDescendants(rootID string, children func(parentID string) ([]string, error)) ([]string, error) {
	visited := map[string]struct{}{rootID: {}}
	stack := []string{rootID}
	var out []string

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kids, err := children(id)
		if err != nil {
			return nil, fmt.Errorf("planning: children of %s: %w", id, err)
		}
		for _, kid := range lo.Uniq(kids) {
			if _, seen := visited[kid]; seen {
				continue
			}
			visited[kid] = struct{}{}
			out = append(out, kid)
			stack = append(stack, kid)
		}
	}
	return out, nil
}
