package models

import "time"

// WordEntry is a vocabulary entry of the shared catalog
type WordEntry struct {
	ID          int64     `json:"id" db:"id"`
	Term        string    `json:"term" db:"term"` // Case-sensitive, as entered
	Translation string    `json:"translation" db:"translation"`
	Example     string    `json:"example" db:"example"` // May be empty
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
