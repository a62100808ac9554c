package metadata

import "fmt"

type Status string

const (
	StatusAvailable Status = "available"
	StatusAssigned  Status = "assigned"
	StatusRepair    Status = "repair"
	StatusRetired   Status = "retired" // terminal
	StatusMissing   Status = "missing"
)

func NewStatus(value string) (Status, error) {
	status := Status(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return status, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusAssigned, StatusRepair, StatusRetired, StatusMissing:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}
