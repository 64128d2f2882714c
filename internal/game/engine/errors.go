package engine

import (
	"fmt"
)

// ErrorCode classifies a rejected command.
type ErrorCode string

const (
	CodeGameOver            ErrorCode = "game_over"
	CodeDecisionPending     ErrorCode = "decision_pending"
	CodeNoPendingDecision   ErrorCode = "no_pending_decision"
	CodeWrongPlayer         ErrorCode = "wrong_player"
	CodeInvalidSelection    ErrorCode = "invalid_selection"
	CodeNotYourTurn         ErrorCode = "not_your_turn"
	CodeWrongPhase          ErrorCode = "wrong_phase"
	CodeUnknownCard         ErrorCode = "unknown_card"
	CodeWrongCardType       ErrorCode = "wrong_card_type"
	CodeCardNotInHand       ErrorCode = "card_not_in_hand"
	CodeInsufficientActions ErrorCode = "insufficient_actions"
	CodeNoBuys              ErrorCode = "no_buys"
	CodeInsufficientCoins   ErrorCode = "insufficient_coins"
	CodeSupplyEmpty         ErrorCode = "supply_empty"
)

// CommandError is returned for a command the rules do not allow. A rejected
// command never changes the game.
type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches another CommandError with the same code, so callers can write
// errors.Is(err, &CommandError{Code: CodeNoBuys}).
func (e *CommandError) Is(target error) bool {
	t, ok := target.(*CommandError)
	return ok && t.Code == e.Code
}

func reject(code ErrorCode, format string, args ...interface{}) *CommandError {
	return &CommandError{Code: code, Message: fmt.Sprintf(format, args...)}
}
