// Package lifecycle holds the asset transition table and the pure rules built
// on top of it. Nothing here touches storage.
package lifecycle

import "equipment/pkg/metadata"

type Transition struct {
	Next        metadata.Status
	Description string
}

var transitions = map[metadata.Status]map[metadata.Action]Transition{
	metadata.StatusAvailable: {
		metadata.ActionCheckout: {Next: metadata.StatusAssigned, Description: "Asset checked out"},
		metadata.ActionRepair:   {Next: metadata.StatusRepair, Description: "Asset sent to repair"},
		metadata.ActionDispose:  {Next: metadata.StatusRetired, Description: "Asset disposed"},
	},
	metadata.StatusAssigned: {
		metadata.ActionCheckin: {Next: metadata.StatusAvailable, Description: "Asset checked in"},
		metadata.ActionRepair:  {Next: metadata.StatusRepair, Description: "Asset returned damaged and sent to repair"},
		metadata.ActionLost:    {Next: metadata.StatusMissing, Description: "Asset reported lost"},
	},
	metadata.StatusRepair: {
		metadata.ActionCompleteRepair: {Next: metadata.StatusAvailable, Description: "Asset repair completed"},
		metadata.ActionDispose:        {Next: metadata.StatusRetired, Description: "Asset disposed"},
	},
	metadata.StatusMissing: {
		metadata.ActionFound:   {Next: metadata.StatusAvailable, Description: "Asset found"},
		metadata.ActionDispose: {Next: metadata.StatusRetired, Description: "Asset disposed"},
	},
	metadata.StatusRetired: {},
}

// Lookup returns the transition for the pair, if the table has one.
func Lookup(status metadata.Status, action metadata.Action) (Transition, bool) {
	t, ok := transitions[status][action]
	return t, ok
}

// AllowedActions lists the actions legal from status in metadata.Actions order.
func AllowedActions(status metadata.Status) []metadata.Action {
	edges := transitions[status]
	allowed := make([]metadata.Action, 0, len(edges))
	for _, action := range metadata.Actions() {
		if _, ok := edges[action]; ok {
			allowed = append(allowed, action)
		}
	}
	return allowed
}

// HolderPolicy says what happens to the asset's holder when an action is applied.
type HolderPolicy int

const (
	HolderKeep HolderPolicy = iota
	HolderAssign
	HolderClear
)

func HolderPolicyFor(action metadata.Action) HolderPolicy {
	switch action {
	case metadata.ActionCheckout:
		return HolderAssign
	case metadata.ActionCheckin, metadata.ActionCompleteRepair, metadata.ActionFound, metadata.ActionDispose:
		return HolderClear
	default:
		// repair and lost keep the last holder attributed
		return HolderKeep
	}
}
