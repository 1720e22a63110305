package conversation

import (
	"errors"
	"fmt"

	"github.com/spigell/talentscout/internal/candidate"
)

// Kind classifies internal failures. None of them reaches the candidate: each
// one resolves to a re-prompt or a fallback reply.
type Kind string

const (
	KindValidation   Kind = "validation_failure"
	KindParseEmpty   Kind = "parse_empty"
	KindCollaborator Kind = "collaborator_unavailable"
	KindInconsistent Kind = "state_inconsistency"
)

var (
	ErrValidation              = errors.New("field rejected")
	ErrParseEmpty              = errors.New("no technology recognized")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrStateInconsistency      = errors.New("state inconsistency")
)

var sentinels = map[Kind]error{
	KindValidation:   ErrValidation,
	KindParseEmpty:   ErrParseEmpty,
	KindCollaborator: ErrCollaboratorUnavailable,
	KindInconsistent: ErrStateInconsistency,
}

// Error carries the context of an internal failure for logging.
type Error struct {
	Kind    Kind
	State   State
	Field   candidate.Field
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s in %s", e.Kind, e.State)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %s)", e.Field)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the error kind, so callers can use
// errors.Is(err, ErrValidation).
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && sentinel == target
}

func validationError(state State, field candidate.Field, outcome candidate.Outcome) *Error {
	return &Error{Kind: KindValidation, State: state, Field: field, Message: outcome.String()}
}

func parseEmptyError(state State) *Error {
	return &Error{Kind: KindParseEmpty, State: state}
}

func collaboratorError(state State, name string, cause error) *Error {
	return &Error{Kind: KindCollaborator, State: state, Message: name, Cause: cause}
}

func inconsistencyError(state State, message string) *Error {
	return &Error{Kind: KindInconsistent, State: state, Message: message}
}
