package bot

import (
	"errors"
	"strings"

	"github.com/example/engbot/internal/session"
)

const repeatCallbackPrefix = "repeat"

// ErrMalformedCallback is returned for callback data the bot did not produce
var ErrMalformedCallback = errors.New("malformed callback data")

// Telegram caps callback data at 64 bytes, so decisions travel as short codes
var (
	decisionCodes = map[session.Decision]string{
		session.DecisionKnow:     "know",
		session.DecisionDontKnow: "dont",
	}
	codeDecisions = map[string]session.Decision{
		"know": session.DecisionKnow,
		"dont": session.DecisionDontKnow,
	}
)

// repeatCallbackData encodes a decision as repeat:<code>:<term>.
// The term goes last so it may contain the separator.
func repeatCallbackData(decision session.Decision, term string) string {
	code, ok := decisionCodes[decision]
	if !ok {
		code = string(decision)
	}
	return repeatCallbackPrefix + ":" + code + ":" + term
}

func parseRepeatCallback(data string) (session.Decision, string, error) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != repeatCallbackPrefix || parts[2] == "" {
		return "", "", ErrMalformedCallback
	}
	decision, ok := codeDecisions[parts[1]]
	if !ok {
		// unknown codes reach the session, which answers with invalid input
		decision = session.Decision(parts[1])
	}
	return decision, parts[2], nil
}
