// Package services implements the use cases of the social network API on top
// of a repo.Store. This file centralizes the service-level errors so handlers
// can map them to HTTP results with errors.Is / errors.As.
//
// Validation failures are returned as *domain.ValidationError. Anything not
// listed here is an internal error.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

var (
	// ErrUserNotFound indicates the addressed user does not exist (or the id
	// is malformed).
	ErrUserNotFound = errors.New("user not found")

	// ErrFriendNotFound indicates the user being befriended does not exist.
	ErrFriendNotFound = errors.New("friend not found")

	// ErrThoughtNotFound indicates the addressed thought does not exist.
	ErrThoughtNotFound = errors.New("thought not found")
)

// Relation operations and steps, used in PartialFailureError and as metric labels.
const (
	OpCreateThought = "create_thought"
	StepLinkUser    = "link-user"
)

// PartialFailureError reports a multi-step write whose first step committed
// and whose later step failed. The committed result is returned alongside it.
type PartialFailureError struct {
	Op        string
	Step      string
	ThoughtID string
	UserID    string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: step %s failed: %v", e.Op, e.Step, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// notFound maps repo.ErrNotFound to the given service error.
func notFound(err, as error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return as
	}
	return err
}

// uniqueViolation turns a store duplicate into a field-level validation error.
func uniqueViolation(err error) error {
	var dup *repo.DuplicateError
	if !errors.As(err, &dup) {
		return err
	}
	field := dup.Field
	if field == "" {
		return domain.Invalid("", "unique", "value is already taken")
	}
	return domain.Invalid(field, "unique", field+" is already taken")
}
