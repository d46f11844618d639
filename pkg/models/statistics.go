package models

// Statistics summarizes a user's progress records
type Statistics struct {
	Total   int `json:"total" db:"total"`
	Learned int `json:"learned" db:"learned"`
}
