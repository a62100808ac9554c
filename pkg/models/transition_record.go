package models

import (
	"time"

	"equipment/pkg/metadata"

	"github.com/google/uuid"
)

// TransitionRecord is one ledger entry. Rows are written once and never changed.
type TransitionRecord struct {
	ID         uuid.UUID           `json:"id" db:"id"`
	AssetID    int64               `json:"asset_id" db:"asset_id"`
	PersonID   *int64              `json:"person_id,omitempty" db:"person_id"`
	ActorID    int64               `json:"actor_id" db:"actor_id"`
	Action     metadata.Action     `json:"action" db:"action"`
	Condition  *metadata.Condition `json:"condition,omitempty" db:"condition"`
	Notes      *string             `json:"notes,omitempty" db:"notes"`
	OccurredAt time.Time           `json:"occurred_at" db:"occurred_at"`
	RecordedAt time.Time           `json:"recorded_at" db:"recorded_at"`
}
