package models

import (
	"time"

	"equipment/pkg/metadata"
)

type Asset struct {
	ID        int64           `json:"id" db:"id"`
	Serial    *string         `json:"serial,omitempty" db:"item_serial"`
	Status    metadata.Status `json:"status" db:"status"`
	HolderID  *int64          `json:"holder_id,omitempty" db:"holder_id"`
	Version   int64           `json:"-" db:"version"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// HasHolder reports whether someone is attributed to the asset.
func (a *Asset) HasHolder() bool {
	return a.HolderID != nil
}
