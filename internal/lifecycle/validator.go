package lifecycle

import (
	"strings"

	custom_error "equipment/pkg/errors"
	"equipment/pkg/metadata"
)

// Decision is an accepted transition.
type Decision struct {
	From        metadata.Status
	Action      metadata.Action
	Next        metadata.Status
	Description string
}

// Validate checks that action may be applied to an asset in status.
//
// Values outside the vocabulary yield a *custom_error.ValidationError; a
// known pair missing from the table yields a *custom_error.InvalidTransitionError
// listing what is allowed instead.
func Validate(status metadata.Status, action metadata.Action) (Decision, error) {
	if !status.IsValid() {
		return Decision{}, &custom_error.ValidationError{Field: "status", Value: string(status)}
	}
	if !action.IsValid() {
		return Decision{}, &custom_error.ValidationError{Field: "action", Value: string(action)}
	}

	t, ok := Lookup(status, action)
	if !ok {
		return Decision{}, &custom_error.InvalidTransitionError{
			Status:  status,
			Action:  action,
			Allowed: AllowedActions(status),
		}
	}

	return Decision{
		From:        status,
		Action:      action,
		Next:        t.Next,
		Description: t.Description,
	}, nil
}

// ActionForCondition resolves a check-in to the action that is actually applied.
func ActionForCondition(condition metadata.Condition) metadata.Action {
	switch condition {
	case metadata.ConditionDamaged:
		return metadata.ActionRepair
	case metadata.ConditionLost:
		return metadata.ActionLost
	default:
		return metadata.ActionCheckin
	}
}

func NotesRequired(action metadata.Action, condition metadata.Condition) bool {
	switch action {
	case metadata.ActionRepair, metadata.ActionDispose, metadata.ActionLost:
		return true
	case metadata.ActionCheckin:
		return condition == metadata.ConditionDamaged || condition == metadata.ConditionLost
	default:
		return false
	}
}

// RequireNotes enforces the notes policy callers apply before invoking the engine.
func RequireNotes(action metadata.Action, condition metadata.Condition, notes string) error {
	if NotesRequired(action, condition) && strings.TrimSpace(notes) == "" {
		return &custom_error.ValidationError{
			Field:   "notes",
			Message: "notes are required for " + describe(action, condition),
		}
	}
	return nil
}

func describe(action metadata.Action, condition metadata.Condition) string {
	if action == metadata.ActionCheckin {
		return string(action) + " with condition " + string(condition)
	}
	return string(action)
}
