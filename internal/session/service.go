// Package session coordinates the vocabulary flows: it reads the user's conversation
// state, consults the interval ladder and the stores, and produces the replies the
// transport renders.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/engbot/internal/conversation"
	"github.com/example/engbot/internal/database"
	"github.com/example/engbot/internal/spaced_repetition"
	"github.com/example/engbot/pkg/models"
)

// DefaultLearnBatchSize is how many new words a learn command hands out
const DefaultLearnBatchSize = 5

// WordCatalog is the shared vocabulary
type WordCatalog interface {
	UpsertIfAbsent(ctx context.Context, word models.WordEntry) (bool, error)
	ListUnassigned(ctx context.Context, userID int64, limit int) ([]models.WordEntry, error)
}

// ProgressStore keeps per-user review progress
type ProgressStore interface {
	Assign(ctx context.Context, userID int64, term string, today time.Time) (*models.WordEntry, bool, error)
	Update(ctx context.Context, userID int64, term string, mutate func(*models.ProgressRecord)) (*models.ProgressRecord, error)
	ListUnlearned(ctx context.Context, userID int64) ([]models.ReviewWord, error)
	Statistics(ctx context.Context, userID int64) (models.Statistics, error)
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Config tunes the service; zero values fall back to defaults
type Config struct {
	Ladder         *spaced_repetition.Ladder
	LearnBatchSize int
	Location       *time.Location
	Clock          Clock
	// Rand picks test words
	Rand *rand.Rand
}

// Service is the session orchestrator
type Service struct {
	words     WordCatalog
	progress  ProgressStore
	states    conversation.Store
	locker    *conversation.Locker
	ladder    *spaced_repetition.Ladder
	batchSize int
	location  *time.Location
	clock     Clock
	logger    *zap.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewService wires the orchestrator
func NewService(words WordCatalog, progress ProgressStore, states conversation.Store, cfg Config, logger *zap.Logger) *Service {
	s := &Service{
		words:     words,
		progress:  progress,
		states:    states,
		locker:    conversation.NewLocker(),
		ladder:    cfg.Ladder,
		batchSize: cfg.LearnBatchSize,
		location:  cfg.Location,
		clock:     cfg.Clock,
		rand:      cfg.Rand,
		logger:    logger,
	}
	if s.ladder == nil {
		s.ladder = &spaced_repetition.Ladder{Intervals: spaced_repetition.DefaultIntervals}
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultLearnBatchSize
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.clock == nil {
		s.clock = ClockFunc(time.Now)
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func (s *Service) today() time.Time {
	return spaced_repetition.Today(s.clock.Now(), s.location)
}

// transition computes the next state and replies from the current one.
// Returning an error discards next, so the user stays in the current state.
type transition func(ctx context.Context, current conversation.State) (next conversation.State, replies []Reply, err error)

// run serializes the user's events and commits the next state only on success
func (s *Service) run(ctx context.Context, userID int64, op string, fn transition) ([]Reply, error) {
	unlock := s.locker.Lock(userID)
	defer unlock()

	current, err := s.states.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next, replies, err := fn(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if next.Kind() != current.Kind() {
		s.logger.Debug("conversation transition",
			zap.Int64("user_id", userID),
			zap.String("op", op),
			zap.String("from", string(current.Kind())),
			zap.String("to", string(next.Kind())),
		)
	}
	if err := s.states.Set(ctx, userID, next); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return replies, nil
}

// OnAddCommand starts the add-word wizard, abandoning any other flow
func (s *Service) OnAddCommand(ctx context.Context, userID int64) ([]Reply, error) {
	return s.run(ctx, userID, "add", func(ctx context.Context, _ conversation.State) (conversation.State, []Reply, error) {
		return conversation.NewAddWord(), []Reply{{Kind: ReplyAskTerm}}, nil
	})
}

// OnAddStep feeds text to the add-word wizard
func (s *Service) OnAddStep(ctx context.Context, userID int64, text string) ([]Reply, error) {
	return s.run(ctx, userID, "add step", func(ctx context.Context, current conversation.State) (conversation.State, []Reply, error) {
		wizard, ok := current.(conversation.AddingWord)
		if !ok {
			return current, []Reply{{Kind: ReplyUnexpectedText}}, nil
		}
		return s.addStep(ctx, userID, wizard, text)
	})
}

// OnTestCommand asks the translation of a random unlearned word
func (s *Service) OnTestCommand(ctx context.Context, userID int64) ([]Reply, error) {
	return s.run(ctx, userID, "test", func(ctx context.Context, _ conversation.State) (conversation.State, []Reply, error) {
		next, question, err := s.nextTestQuestion(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		if question == nil {
			return next, []Reply{{Kind: ReplyNoTestWords}}, nil
		}
		return next, []Reply{*question}, nil
	})
}

// OnTestAnswer checks an answer to the pending test question
func (s *Service) OnTestAnswer(ctx context.Context, userID int64, text string) ([]Reply, error) {
	return s.run(ctx, userID, "test answer", func(ctx context.Context, current conversation.State) (conversation.State, []Reply, error) {
		question, ok := current.(conversation.AwaitingTestAnswer)
		if !ok {
			return current, []Reply{{Kind: ReplyUnexpectedText}}, nil
		}
		return s.testAnswer(ctx, userID, question, text)
	})
}

// OnText routes free text to whichever flow is waiting for it
func (s *Service) OnText(ctx context.Context, userID int64, text string) ([]Reply, error) {
	return s.run(ctx, userID, "text", func(ctx context.Context, current conversation.State) (conversation.State, []Reply, error) {
		switch state := current.(type) {
		case conversation.AddingWord:
			return s.addStep(ctx, userID, state, text)
		case conversation.AwaitingTestAnswer:
			return s.testAnswer(ctx, userID, state, text)
		case conversation.Idle, conversation.RepeatSequence:
			return current, []Reply{{Kind: ReplyUnexpectedText}}, nil
		default:
			return nil, nil, fmt.Errorf("unexpected conversation state %T", current)
		}
	})
}

// OnStopCommand abandons the current flow
func (s *Service) OnStopCommand(ctx context.Context, userID int64) ([]Reply, error) {
	return s.run(ctx, userID, "stop", func(ctx context.Context, current conversation.State) (conversation.State, []Reply, error) {
		switch current.(type) {
		case conversation.Idle:
			return current, []Reply{{Kind: ReplyNothingToStop}}, nil
		case conversation.AwaitingTestAnswer, conversation.AddingWord, conversation.RepeatSequence:
			return conversation.Idle{}, []Reply{{Kind: ReplyStopped}}, nil
		default:
			return nil, nil, fmt.Errorf("unexpected conversation state %T", current)
		}
	})
}

// OnLearnCommand hands out up to LearnBatchSize catalog words the user has not started yet.
// Each word is assigned on its own; a failure keeps the words assigned before it.
func (s *Service) OnLearnCommand(ctx context.Context, userID int64) ([]Reply, error) {
	return s.run(ctx, userID, "learn", func(ctx context.Context, current conversation.State) (conversation.State, []Reply, error) {
		candidates, err := s.words.ListUnassigned(ctx, userID, s.batchSize)
		if err != nil {
			return nil, nil, err
		}

		today := s.today()
		var replies []Reply
		for _, candidate := range candidates {
			word, created, err := s.progress.Assign(ctx, userID, candidate.Term, today)
			if errors.Is(err, database.ErrNotFound) {
				s.logger.Warn("learn candidate vanished from catalog",
					zap.Int64("user_id", userID), zap.String("term", candidate.Term))
				continue
			}
			if err != nil {
				return nil, nil, err
			}
			if !created {
				continue
			}
			replies = append(replies, Reply{Kind: ReplyLearnWord, Word: *word})
		}

		if len(replies) == 0 {
			return current, []Reply{{Kind: ReplyNoNewWords}}, nil
		}
		return current, replies, nil
	})
}

// OnStatsCommand reports how many words the user tracks and how many are learned
func (s *Service) OnStatsCommand(ctx context.Context, userID int64) ([]Reply, error) {
	return s.run(ctx, userID, "stats", func(ctx context.Context, current conversation.State) (conversation.State, []Reply, error) {
		stats, err := s.progress.Statistics(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		return current, []Reply{{Kind: ReplyStatistics, Statistics: stats}}, nil
	})
}

// OnRepeatCommand starts a pass over the words due today
func (s *Service) OnRepeatCommand(ctx context.Context, userID int64) ([]Reply, error) {
	return s.run(ctx, userID, "repeat", func(ctx context.Context, _ conversation.State) (conversation.State, []Reply, error) {
		due, err := s.DueWords(ctx, userID)
		if err != nil {
			return nil, nil, err
		}

		entries := make([]models.WordEntry, 0, len(due))
		for _, w := range due {
			entries = append(entries, w.Entry())
		}

		seq, ok := conversation.NewRepeat(entries)
		if !ok {
			return conversation.Idle{}, []Reply{{Kind: ReplyNoDueWords}}, nil
		}
		first, _ := seq.Current()
		return seq, []Reply{repeatReply(first)}, nil
	})
}

// OnRepeatDecision records the user's verdict and moves to the next due word.
// The write goes to the term carried by the decision, navigation follows the stored index;
// a decision for a term other than the current one skips the write but still advances.
func (s *Service) OnRepeatDecision(ctx context.Context, userID int64, term string, decision Decision) ([]Reply, error) {
	return s.run(ctx, userID, "repeat decision", func(ctx context.Context, current conversation.State) (conversation.State, []Reply, error) {
		if !decision.Valid() {
			return current, []Reply{{Kind: ReplyInvalidInput}}, nil
		}

		var seq conversation.RepeatSequence
		switch state := current.(type) {
		case conversation.RepeatSequence:
			seq = state
		case conversation.Idle, conversation.AwaitingTestAnswer, conversation.AddingWord:
			return current, []Reply{{Kind: ReplySequenceExpired}}, nil
		default:
			return nil, nil, fmt.Errorf("unexpected conversation state %T", current)
		}

		word, ok := seq.Current()
		if !ok {
			return conversation.Idle{}, []Reply{{Kind: ReplySequenceExpired}}, nil
		}

		if word.Term == term {
			today := s.today()
			_, err := s.progress.Update(ctx, userID, term, func(p *models.ProgressRecord) {
				if decision == DecisionKnow {
					p.Stage = s.ladder.AdvanceOnKnow(p.Stage)
				} else {
					p.Stage = s.ladder.Reset()
				}
				p.LastReviewDate = today
			})
			if errors.Is(err, database.ErrNotFound) {
				return conversation.Idle{}, []Reply{{Kind: ReplyWordUnavailable, Word: word}}, nil
			}
			if err != nil {
				return nil, nil, err
			}
		} else {
			s.logger.Info("stale repeat decision, skipping write",
				zap.Int64("user_id", userID),
				zap.String("term", term),
				zap.String("current_term", word.Term),
			)
		}

		next, more := seq.Advance()
		if !more {
			return next, []Reply{{Kind: ReplyRepeatComplete}}, nil
		}
		upcoming, _ := next.(conversation.RepeatSequence).Current()
		return next, []Reply{repeatReply(upcoming)}, nil
	})
}

// DueWords lists the user's words due for review today in catalog order
func (s *Service) DueWords(ctx context.Context, userID int64) ([]models.ReviewWord, error) {
	words, err := s.progress.ListUnlearned(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ladder.DueWords(words, s.today()), nil
}

func repeatReply(word models.WordEntry) Reply {
	return Reply{Kind: ReplyRepeatWord, Word: word, Choice: repeatChoice(word.Term)}
}

func (s *Service) addStep(ctx context.Context, userID int64, wizard conversation.AddingWord, text string) (conversation.State, []Reply, error) {
	next, entry, err := wizard.Next(text)
	if errors.Is(err, conversation.ErrEmptyInput) || errors.Is(err, conversation.ErrTermTooLong) {
		return wizard, []Reply{{Kind: ReplyInvalidInput, Step: wizard.Step}}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if entry != nil {
		inserted, err := s.words.UpsertIfAbsent(ctx, *entry)
		if err != nil {
			return nil, nil, err
		}
		if !inserted {
			return next, []Reply{{Kind: ReplyWordExists, Word: *entry}}, nil
		}
		s.logger.Info("word added", zap.Int64("user_id", userID), zap.String("term", entry.Term))
		return next, []Reply{{Kind: ReplyWordAdded, Word: *entry}}, nil
	}

	step := next.(conversation.AddingWord).Step
	switch step {
	case conversation.StepRussian:
		return next, []Reply{{Kind: ReplyAskTranslation}}, nil
	case conversation.StepExample:
		return next, []Reply{{Kind: ReplyAskExample}}, nil
	default:
		return nil, nil, fmt.Errorf("unexpected add step %q", step)
	}
}

func (s *Service) testAnswer(ctx context.Context, userID int64, question conversation.AwaitingTestAnswer, text string) (conversation.State, []Reply, error) {
	if strings.TrimSpace(text) == "" {
		return question, []Reply{{Kind: ReplyInvalidInput}}, nil
	}

	var replies []Reply
	if question.Matches(text) {
		today := s.today()
		_, err := s.progress.Update(ctx, userID, question.Term, func(p *models.ProgressRecord) {
			p.Stage = s.ladder.AdvanceOnCorrect(p.Stage)
			p.LastReviewDate = today
		})
		if errors.Is(err, database.ErrNotFound) {
			return conversation.Idle{}, []Reply{{
				Kind: ReplyWordUnavailable,
				Word: models.WordEntry{Term: question.Term, Translation: question.Translation},
			}}, nil
		}
		if err != nil {
			return nil, nil, err
		}
		replies = append(replies, Reply{Kind: ReplyTestCorrect})
	} else {
		replies = append(replies, Reply{Kind: ReplyTestWrong, Answer: question.Translation})
	}

	next, nextQuestion, err := s.nextTestQuestion(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if nextQuestion == nil {
		return next, append(replies, Reply{Kind: ReplyTestComplete}), nil
	}
	return next, append(replies, *nextQuestion), nil
}

// nextTestQuestion picks a random unlearned word, with replacement across questions
func (s *Service) nextTestQuestion(ctx context.Context, userID int64) (conversation.State, *Reply, error) {
	words, err := s.progress.ListUnlearned(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if len(words) == 0 {
		return conversation.Idle{}, nil, nil
	}

	word := words[s.intn(len(words))].Entry()
	return conversation.NewTest(word), &Reply{Kind: ReplyTestQuestion, Word: word}, nil
}

// intn is shared by all users, rand.Rand is not safe for concurrent use
func (s *Service) intn(n int) int {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return s.rand.Intn(n)
}
