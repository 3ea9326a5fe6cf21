package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Game creation errors
	ErrInvalidAmount      ErrorCode = "INVALID_AMOUNT"
	ErrInvalidGameType    ErrorCode = "INVALID_GAME_TYPE"
	ErrInvalidPlayerCount ErrorCode = "INVALID_PLAYER_COUNT"
	ErrGameAlreadyExists  ErrorCode = "GAME_ALREADY_EXISTS"
	ErrAddressRetired     ErrorCode = "ADDRESS_RETIRED"

	// Join errors
	ErrGameNotFound        ErrorCode = "GAME_NOT_FOUND"
	ErrGameFull            ErrorCode = "GAME_FULL"
	ErrPlayerAlreadyJoined ErrorCode = "PLAYER_ALREADY_JOINED"
	ErrInsufficientFunds   ErrorCode = "INSUFFICIENT_FUNDS"

	// Resolution errors
	ErrNotAuthorized       ErrorCode = "NOT_AUTHORIZED"
	ErrInvalidWinner       ErrorCode = "INVALID_WINNER"
	ErrWinnerMismatch      ErrorCode = "WINNER_MISMATCH"
	ErrInvalidWinnerColor  ErrorCode = "INVALID_WINNER_COLOR"
	ErrFirstPlayerMismatch ErrorCode = "FIRST_PLAYER_MISMATCH"
	ErrGameDataMismatch    ErrorCode = "GAME_DATA_MISMATCH"
	ErrNotEnoughPlayers    ErrorCode = "NOT_ENOUGH_PLAYERS"

	// Request errors
	ErrInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// System errors
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
)

// GameError represents a game-related error
type GameError struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GameError) Unwrap() error {
	return e.Err
}

// NewGameError creates a new GameError
func NewGameError(code ErrorCode, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error in a GameError
func WrapError(code ErrorCode, message string, err error) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsGameError checks if an error is a GameError and has a specific code
func IsGameError(err error, code ErrorCode) bool {
	var gameErr *GameError
	if err == nil {
		return false
	}
	if ok := As(err, &gameErr); !ok {
		return false
	}
	return gameErr.Code == code
}

// As finds the first GameError in err's chain
func As(err error, target **GameError) bool {
	if target == nil || err == nil {
		return false
	}
	return errors.As(err, target)
}

// CodeOf returns the code of the first GameError in err's chain, or
// ErrInternalError for anything else.
func CodeOf(err error) ErrorCode {
	var gameErr *GameError
	if As(err, &gameErr) {
		return gameErr.Code
	}
	return ErrInternalError
}
