// Package conversation holds the per-user dialogue state of the bot.
//
// A user is always in exactly one State. Transitions are pure: they return the next
// state and leave persistence to the caller, so a failed store write never leaves a
// half-applied conversation behind.
package conversation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/engbot/pkg/models"
)

var (
	// ErrEmptyInput is returned when a step requires non-blank text
	ErrEmptyInput = errors.New("input is empty")
	// ErrTermTooLong is returned for terms over MaxTermLength bytes
	ErrTermTooLong = errors.New("term is too long")
)

// MaxTermLength keeps repeat callback payloads within Telegram's 64 byte limit
const MaxTermLength = 48

// Kind identifies a State variant
type Kind string

const (
	KindIdle               Kind = "idle"
	KindAwaitingTestAnswer Kind = "awaiting_test_answer"
	KindAddingWord         Kind = "adding_word"
	KindRepeatSequence     Kind = "repeat_sequence"
)

// State is one of Idle, AwaitingTestAnswer, AddingWord or RepeatSequence
type State interface {
	Kind() Kind
}

// Idle means no flow is in progress
type Idle struct{}

// AwaitingTestAnswer waits for the translation of Term
type AwaitingTestAnswer struct {
	Term        string `json:"term"`
	Translation string `json:"translation"`
}

// AddStep is the field the add-word wizard asks for next
type AddStep string

const (
	StepEnglish AddStep = "english"
	StepRussian AddStep = "russian"
	StepExample AddStep = "example"
)

// AddingWord collects a new catalog entry one field at a time
type AddingWord struct {
	Step        AddStep `json:"step"`
	Term        string  `json:"term,omitempty"`
	Translation string  `json:"translation,omitempty"`
}

// RepeatSequence walks through the words due today
type RepeatSequence struct {
	Words []models.WordEntry `json:"words"`
	Index int                `json:"index"`
}

func (Idle) Kind() Kind               { return KindIdle }
func (AwaitingTestAnswer) Kind() Kind { return KindAwaitingTestAnswer }
func (AddingWord) Kind() Kind         { return KindAddingWord }
func (RepeatSequence) Kind() Kind     { return KindRepeatSequence }

// NewTest asks for the translation of the given word
func NewTest(word models.WordEntry) AwaitingTestAnswer {
	return AwaitingTestAnswer{Term: word.Term, Translation: word.Translation}
}

// Matches reports whether the answer equals the expected translation,
// ignoring case and surrounding whitespace
func (s AwaitingTestAnswer) Matches(answer string) bool {
	return normalize(answer) == normalize(s.Translation)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewAddWord starts the add-word wizard
func NewAddWord() AddingWord {
	return AddingWord{Step: StepEnglish}
}

// Next consumes the text for the current step. It returns the following state and,
// once the example has been entered, the completed entry. Blank terms and translations
// are rejected with ErrEmptyInput, overlong terms with ErrTermTooLong; both leave the wizard where it was.
func (s AddingWord) Next(text string) (State, *models.WordEntry, error) {
	text = strings.TrimSpace(text)

	switch s.Step {
	case StepEnglish:
		if text == "" {
			return s, nil, ErrEmptyInput
		}
		if len(text) > MaxTermLength {
			return s, nil, ErrTermTooLong
		}
		return AddingWord{Step: StepRussian, Term: text}, nil, nil
	case StepRussian:
		if text == "" {
			return s, nil, ErrEmptyInput
		}
		return AddingWord{Step: StepExample, Term: s.Term, Translation: text}, nil, nil
	case StepExample:
		return Idle{}, &models.WordEntry{Term: s.Term, Translation: s.Translation, Example: text}, nil
	default:
		return s, nil, fmt.Errorf("unknown add step %q", s.Step)
	}
}

// NewRepeat starts a sequence over the given words; ok is false when there is nothing to repeat
func NewRepeat(words []models.WordEntry) (seq RepeatSequence, ok bool) {
	if len(words) == 0 {
		return RepeatSequence{}, false
	}
	return RepeatSequence{Words: words, Index: 0}, true
}

// Current returns the word the user is being asked about
func (s RepeatSequence) Current() (models.WordEntry, bool) {
	if s.Index < 0 || s.Index >= len(s.Words) {
		return models.WordEntry{}, false
	}
	return s.Words[s.Index], true
}

// Advance moves to the next position. When the sequence is exhausted the
// result is Idle and more is false.
func (s RepeatSequence) Advance() (next State, more bool) {
	index := s.Index + 1
	if index >= len(s.Words) {
		return Idle{}, false
	}
	return RepeatSequence{Words: s.Words, Index: index}, true
}
