package session

import (
	"context"
	"fmt"
)

// EventKind is the shape of an inbound event
type EventKind string

const (
	EventCommand  EventKind = "command"
	EventText     EventKind = "text"
	EventDecision EventKind = "decision"
)

// Command names the operation a command event requests
type Command string

const (
	CommandAdd    Command = "add"
	CommandTest   Command = "test"
	CommandStop   Command = "stop"
	CommandLearn  Command = "learn"
	CommandStats  Command = "stats"
	CommandRepeat Command = "repeat"
)

// Event is an inbound user event delivered by the transport
type Event struct {
	UserID   int64
	Kind     EventKind
	Command  Command  // EventCommand
	Text     string   // EventText
	Term     string   // EventDecision
	Decision Decision // EventDecision
}

// Handle routes an inbound event to the matching operation
func (s *Service) Handle(ctx context.Context, ev Event) ([]Reply, error) {
	switch ev.Kind {
	case EventCommand:
		switch ev.Command {
		case CommandAdd:
			return s.OnAddCommand(ctx, ev.UserID)
		case CommandTest:
			return s.OnTestCommand(ctx, ev.UserID)
		case CommandStop:
			return s.OnStopCommand(ctx, ev.UserID)
		case CommandLearn:
			return s.OnLearnCommand(ctx, ev.UserID)
		case CommandStats:
			return s.OnStatsCommand(ctx, ev.UserID)
		case CommandRepeat:
			return s.OnRepeatCommand(ctx, ev.UserID)
		default:
			return nil, fmt.Errorf("unknown command %q", ev.Command)
		}
	case EventText:
		return s.OnText(ctx, ev.UserID, ev.Text)
	case EventDecision:
		return s.OnRepeatDecision(ctx, ev.UserID, ev.Term, ev.Decision)
	default:
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}
