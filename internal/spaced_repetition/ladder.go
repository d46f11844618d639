package spaced_repetition

import (
	"fmt"
	"time"

	"github.com/example/engbot/pkg/models"
)

// DefaultIntervals is the review ladder in days, indexed by stage
var DefaultIntervals = []int{0, 1, 3, 7, 14}

// Ladder implements fixed-interval spaced repetition.
// A word at stage s is due once Intervals[s] days have passed since its last review.
// Stages at or past len(Intervals) are never due again.
type Ladder struct {
	Intervals []int
}

// NewLadder validates the intervals and returns a ladder using a copy of them
func NewLadder(intervals []int) (*Ladder, error) {
	if len(intervals) == 0 {
		return nil, fmt.Errorf("interval ladder must not be empty")
	}
	for i, days := range intervals {
		if days < 0 {
			return nil, fmt.Errorf("interval %d is negative: %d", i, days)
		}
	}
	cp := make([]int, len(intervals))
	copy(cp, intervals)
	return &Ladder{Intervals: cp}, nil
}

// MaxStage is the highest stage reachable through "know" decisions
func (l *Ladder) MaxStage() int {
	return len(l.Intervals) - 1
}

// DueDate returns the day a record at the given stage becomes due.
// ok is false for stages outside the ladder.
func (l *Ladder) DueDate(stage int, lastReview time.Time) (due time.Time, ok bool) {
	if stage < 0 || stage >= len(l.Intervals) {
		return time.Time{}, false
	}
	return lastReview.AddDate(0, 0, l.Intervals[stage]), true
}

// IsDue reports whether the record must be reviewed on the given day
func (l *Ladder) IsDue(p models.ProgressRecord, today time.Time) bool {
	if p.Learned {
		return false
	}
	due, ok := l.DueDate(p.Stage, p.LastReviewDate)
	if !ok {
		return false
	}
	return !Date(today).Before(Date(due))
}

// DueWords filters the words due for review on the given day, keeping their order
func (l *Ladder) DueWords(words []models.ReviewWord, today time.Time) []models.ReviewWord {
	var due []models.ReviewWord
	for _, w := range words {
		if l.IsDue(w.ProgressRecord, today) {
			due = append(due, w)
		}
	}
	return due
}

// AdvanceOnCorrect moves a word one stage up after a correct test answer.
// The result is not clamped; stages past the ladder are filtered by DueWords.
func (l *Ladder) AdvanceOnCorrect(stage int) int {
	return stage + 1
}

// AdvanceOnKnow moves a word one stage up, never past MaxStage
func (l *Ladder) AdvanceOnKnow(stage int) int {
	if stage+1 > l.MaxStage() {
		return l.MaxStage()
	}
	return stage + 1
}

// Reset sends a word back to the first stage
func (l *Ladder) Reset() int {
	return 0
}
