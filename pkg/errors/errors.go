package custom_error

import (
	"errors"
	"fmt"
	"strings"

	"equipment/pkg/metadata"
)

// Kind is the closed set of failure categories the custody engine reports.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindNotFound
	KindInvalidTransition
	KindConcurrencyTimeout
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindConcurrencyTimeout:
		return "concurrency_timeout"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Resource, e.ID)
}

// ValidationError reports a malformed input, such as a status or action that
// is not part of the vocabulary, or missing notes.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// InvalidTransitionError is returned for a well-formed action that the
// current status does not permit.
type InvalidTransitionError struct {
	Status  metadata.Status
	Action  metadata.Action
	Allowed []metadata.Action
}

func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, a := range e.Allowed {
		allowed[i] = string(a)
	}
	if len(allowed) == 0 {
		return fmt.Sprintf("action %s is not allowed from status %s (no actions available)", e.Action, e.Status)
	}
	return fmt.Sprintf("action %s is not allowed from status %s (allowed: %s)", e.Action, e.Status, strings.Join(allowed, ", "))
}

type ConcurrencyTimeoutError struct {
	Op  string
	Err error
}

func (e *ConcurrencyTimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out waiting for asset lock", e.Op)
}

func (e *ConcurrencyTimeoutError) Unwrap() error {
	return e.Err
}

type PersistenceError struct {
	Op   string
	Code string // PostgreSQL error code, empty when not a server error
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %v (code: %s)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func KindOf(err error) Kind {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		transitionErr *InvalidTransitionError
		timeoutErr    *ConcurrencyTimeoutError
		persistErr    *PersistenceError
	)

	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &validationErr):
		return KindInvalidInput
	case errors.As(err, &notFoundErr):
		return KindNotFound
	case errors.As(err, &transitionErr):
		return KindInvalidTransition
	case errors.As(err, &timeoutErr):
		return KindConcurrencyTimeout
	case errors.As(err, &persistErr):
		return KindPersistence
	default:
		return KindUnknown
	}
}

// IsRetryable reports whether the caller may safely repeat the request.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindConcurrencyTimeout, KindPersistence:
		return true
	default:
		return false
	}
}
