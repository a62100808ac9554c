package models

// Person is someone who can take custody of an asset.
type Person struct {
	ID       int64   `json:"id" db:"id"`
	FullName string  `json:"full_name" db:"full_name"`
	Email    *string `json:"email,omitempty" db:"email"`
}
