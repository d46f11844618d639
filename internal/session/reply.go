package session

import (
	"github.com/example/engbot/internal/conversation"
	"github.com/example/engbot/pkg/models"
)

// ReplyKind tells the transport which message to render
type ReplyKind string

const (
	ReplyAskTerm        ReplyKind = "ask_term"
	ReplyAskTranslation ReplyKind = "ask_translation"
	ReplyAskExample     ReplyKind = "ask_example"
	ReplyWordAdded      ReplyKind = "word_added"
	ReplyWordExists     ReplyKind = "word_exists"
	ReplyInvalidInput   ReplyKind = "invalid_input"

	ReplyTestQuestion ReplyKind = "test_question"
	ReplyTestCorrect  ReplyKind = "test_correct"
	ReplyTestWrong    ReplyKind = "test_wrong"
	ReplyTestComplete ReplyKind = "test_complete"
	ReplyNoTestWords  ReplyKind = "no_test_words"

	ReplyStopped       ReplyKind = "stopped"
	ReplyNothingToStop ReplyKind = "nothing_to_stop"

	ReplyLearnWord  ReplyKind = "learn_word"
	ReplyNoNewWords ReplyKind = "no_new_words"

	ReplyStatistics ReplyKind = "statistics"

	ReplyRepeatWord      ReplyKind = "repeat_word"
	ReplyRepeatComplete  ReplyKind = "repeat_complete"
	ReplyNoDueWords      ReplyKind = "no_due_words"
	ReplySequenceExpired ReplyKind = "sequence_expired"

	ReplyWordUnavailable ReplyKind = "word_unavailable"
	ReplyUnexpectedText  ReplyKind = "unexpected_text"
)

// Reply is an outbound event. Only the fields relevant to Kind are set.
type Reply struct {
	Kind ReplyKind
	// Word is the entry being added, asked, taught or repeated
	Word models.WordEntry
	// Answer is the expected translation revealed after a wrong answer
	Answer string
	// Step is the wizard step that rejected the input
	Step conversation.AddStep
	// Statistics is set for ReplyStatistics
	Statistics models.Statistics
	// Choice is the binary decision offered with a repeated word
	Choice *Choice
}

// Choice offers the user a know / don't know decision about Term
type Choice struct {
	Term    string
	Options []Decision
}

// Decision is the user's verdict on a repeated word
type Decision string

const (
	DecisionKnow     Decision = "know"
	DecisionDontKnow Decision = "dont_know"
)

// Valid reports whether d is a known decision
func (d Decision) Valid() bool {
	return d == DecisionKnow || d == DecisionDontKnow
}

func repeatChoice(term string) *Choice {
	return &Choice{Term: term, Options: []Decision{DecisionKnow, DecisionDontKnow}}
}
