package metadata

import "fmt"

// Action is an operator request that moves an asset between statuses.
type Action string

const (
	ActionCheckout       Action = "checkout"
	ActionCheckin        Action = "checkin"
	ActionRepair         Action = "repair"
	ActionCompleteRepair Action = "complete_repair"
	ActionDispose        Action = "dispose"
	ActionLost           Action = "lost"
	ActionFound          Action = "found"
)

var actionOrder = []Action{
	ActionCheckout,
	ActionCheckin,
	ActionRepair,
	ActionCompleteRepair,
	ActionDispose,
	ActionLost,
	ActionFound,
}

// Actions returns every known action in a stable order.
func Actions() []Action {
	out := make([]Action, len(actionOrder))
	copy(out, actionOrder)
	return out
}

func NewAction(value string) (Action, error) {
	action := Action(value)
	if !action.IsValid() {
		return "", fmt.Errorf("invalid action: %s", value)
	}
	return action, nil
}

func (a Action) IsValid() bool {
	for _, known := range actionOrder {
		if a == known {
			return true
		}
	}
	return false
}

func (a Action) String() string {
	return string(a)
}
