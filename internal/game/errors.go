package game

import (
	"errors"
	"fmt"
)

// RejectCode identifies why an action was refused. Codes travel over the
// wire unchanged, so they stay stable across releases.
type RejectCode string

const (
	RejectInvalidRequest        RejectCode = "INVALID_REQUEST"
	RejectInsufficientResources RejectCode = "INSUFFICIENT_RESOURCES"
	RejectNotOwner              RejectCode = "NOT_OWNER"
	RejectInvalidTarget         RejectCode = "INVALID_TARGET"
	RejectCapacityExceeded      RejectCode = "CAPACITY_EXCEEDED"
	RejectNameConflict          RejectCode = "NAME_CONFLICT"
	RejectOnCooldown            RejectCode = "ON_COOLDOWN"
	RejectNotReady              RejectCode = "SESSION_NOT_READY"
	RejectWrongPassword         RejectCode = "WRONG_PASSWORD"
	RejectNoAccount             RejectCode = "NO_ACCOUNT"
	RejectAccountDisabled       RejectCode = "ACCOUNT_DISABLED"
	RejectSmugglingDetected     RejectCode = "SMUGGLING_DETECTED"
	RejectBarred                RejectCode = "BARRED_FROM_PLANET"
	RejectStorageUnavailable    RejectCode = "STORAGE_UNAVAILABLE"
	RejectInternal              RejectCode = "INTERNAL_ERROR"
)

// ErrorClass groups rejection codes into the broader failure taxonomy used
// for logging and recovery decisions.
type ErrorClass int

const (
	ClassValidation ErrorClass = iota
	ClassAuthorization
	ClassConflict
	ClassEconomicConstraint
	ClassCombatState
	ClassPersistence
	ClassInternal
)

func (c ErrorClass) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassAuthorization:
		return "authorization"
	case ClassConflict:
		return "conflict"
	case ClassEconomicConstraint:
		return "economic_constraint"
	case ClassCombatState:
		return "combat_state"
	case ClassPersistence:
		return "persistence"
	default:
		return "internal"
	}
}

func classOf(code RejectCode) ErrorClass {
	switch code {
	case RejectInvalidRequest, RejectInvalidTarget:
		return ClassValidation
	case RejectNotOwner, RejectNotReady, RejectWrongPassword, RejectNoAccount, RejectAccountDisabled, RejectBarred:
		return ClassAuthorization
	case RejectNameConflict, RejectCapacityExceeded:
		return ClassConflict
	case RejectInsufficientResources, RejectSmugglingDetected:
		return ClassEconomicConstraint
	case RejectOnCooldown:
		return ClassCombatState
	case RejectStorageUnavailable:
		return ClassPersistence
	default:
		return ClassInternal
	}
}

// Rejection is the typed error returned for every refused action. The world
// is guaranteed to be unchanged when a Rejection comes back, except for
// penalties explicitly carried in the message (smuggling confiscation).
type Rejection struct {
	Code    RejectCode
	Message string
}

func (r *Rejection) Error() string {
	if r.Message == "" {
		return string(r.Code)
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// Class reports the taxonomy bucket for the rejection.
func (r *Rejection) Class() ErrorClass {
	return classOf(r.Code)
}

// Reject builds a typed rejection with a formatted message.
func Reject(code RejectCode, format string, args ...any) error {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

func reject(code RejectCode, format string, args ...any) error {
	return Reject(code, format, args...)
}

// AsRejection unwraps err into a Rejection when possible.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// RejectionCode returns the wire code for err, mapping unexpected errors to
// INTERNAL_ERROR so callers never leak raw error text to clients.
func RejectionCode(err error) RejectCode {
	if r, ok := AsRejection(err); ok {
		return r.Code
	}
	return RejectInternal
}
