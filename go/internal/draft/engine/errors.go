package engine

import (
	"errors"
	"fmt"
)

// Code tags every rejected pick attempt with a specific, actionable reason.
// The boundary layer maps codes to transport status; the engine never does.
type Code string

const (
	CodeRoomNotFound         Code = "ROOM_NOT_FOUND"
	CodeEntityNotFound       Code = "ENTITY_NOT_FOUND"
	CodeDraftNotActive       Code = "DRAFT_NOT_ACTIVE"
	CodeDraftComplete        Code = "DRAFT_COMPLETE"
	CodeNotYourTurn          Code = "NOT_YOUR_TURN"
	CodeEntityUnavailable    Code = "ENTITY_UNAVAILABLE"
	CodePositionLimitReached Code = "POSITION_LIMIT_REACHED"
	CodeTimerExpired         Code = "TIMER_EXPIRED"

	// CodeInvalidState flags a data-integrity bug (the turn arithmetic could
	// not resolve an acting participant). Alert, never retry.
	CodeInvalidState Code = "INVALID_STATE"

	// CodeInfrastructure covers store or transport failures. The whole
	// CommitPick call is safe to retry.
	CodeInfrastructure Code = "INFRASTRUCTURE_ERROR"
)

// DraftError is the tagged error returned for every rejected engine call.
type DraftError struct {
	Code    Code
	Message string
	Err     error
}

func (e *DraftError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *DraftError) Unwrap() error {
	return e.Err
}

// NewError builds a tagged domain error.
func NewError(code Code, format string, args ...any) *DraftError {
	return &DraftError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapInfra wraps an infrastructure failure so callers can distinguish it
// from domain preconditions and decide on retry.
func WrapInfra(err error) *DraftError {
	return &DraftError{Code: CodeInfrastructure, Err: err}
}

// CodeOf extracts the tag from an error chain, or "" for untagged errors.
func CodeOf(err error) Code {
	var de *DraftError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err carries the given tag.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
