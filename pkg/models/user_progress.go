package models

import "time"

// ProgressRecord tracks a user's review state for a single catalog term
type ProgressRecord struct {
	UserID         int64     `json:"user_id"`
	Term           string    `json:"term"`
	Stage          int       `json:"stage"`            // Index into the interval ladder
	LastReviewDate time.Time `json:"last_review_date"` // Calendar date, midnight UTC
	Learned        bool      `json:"learned"`
}

// ReviewWord is a progress record joined with its catalog entry
type ReviewWord struct {
	ProgressRecord
	Translation string `json:"translation"`
	Example     string `json:"example"`
}

// Entry returns the catalog part of the review word
func (w ReviewWord) Entry() WordEntry {
	return WordEntry{Term: w.Term, Translation: w.Translation, Example: w.Example}
}
