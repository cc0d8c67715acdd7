// Package errors defines the typed failures domain operations raise. These
// are distinct from expected authorization denials, which travel as values
// (see authz/entity.Denial) and are never represented as errors.
package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError is raised when an exact-key lookup finds nothing.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NotFound builds a NotFoundError for the given entity and key.
func NotFound(entity string, key any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf("could not find %s with %v", entity, key)}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// MembershipError is raised when an operation would leave a user belonging to
// more than one group. It signals an integrity violation, not a denial: the
// caller must abort the enclosing transaction.
type MembershipError struct {
	UserID uuid.UUID
}

func (e *MembershipError) Error() string {
	return fmt.Sprintf("user %s is already a member of a group", e.UserID)
}

// IsMembership reports whether err is (or wraps) a MembershipError.
func IsMembership(err error) bool {
	var me *MembershipError
	return errors.As(err, &me)
}

// ConflictError is raised when a store-level uniqueness constraint other than
// membership exclusivity rejects a write.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ValidationError is raised for caller mistakes detected before any write,
// such as creating a role with an empty privilege set.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
