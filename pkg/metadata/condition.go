package metadata

import "strings"

// Condition is the physical state reported when an asset comes back.
type Condition string

const (
	ConditionGood    Condition = "good"
	ConditionDamaged Condition = "damaged"
	ConditionLost    Condition = "lost"
)

// NormalizeCondition folds case and maps anything unrecognised to good.
func NormalizeCondition(value string) Condition {
	switch c := Condition(strings.ToLower(strings.TrimSpace(value))); c {
	case ConditionGood, ConditionDamaged, ConditionLost:
		return c
	default:
		return ConditionGood
	}
}

func (c Condition) String() string {
	return string(c)
}
