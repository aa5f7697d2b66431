package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrTransport      = errors.New("transport error")
	ErrServerRejected = errors.New("server rejected request")
	ErrTokenIntegrity = errors.New("token integrity error")

	ErrSubmissionInProgress = errors.New("verification already in progress")
	ErrAlreadyVerified      = errors.New("code already verified")
	ErrFlowClosed           = errors.New("verification flow closed")
	ErrFlowNotFound         = errors.New("verification flow not found")
	ErrInvalidPhone         = errors.New("invalid phone number")
	ErrSessionNotFound      = errors.New("session not found")
)

// ValidationError is malformed local input; it never reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string        { return e.Message }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// TransportError is a failure to reach the backend.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string        { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error        { return e.Err }
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ServerRejection is a reply that signals failure, by status or by an
// explicit success:false.
type ServerRejection struct {
	Status  int
	Message string
}

func (e *ServerRejection) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected request with status %d", e.Status)
	}
	return e.Message
}

func (e *ServerRejection) Is(target error) bool { return target == ErrServerRejected }

// TokenIntegrityError is a malformed or expired session token. The login
// attempt is aborted and nothing is persisted.
type TokenIntegrityError struct {
	Reason string
	Err    error
}

func (e *TokenIntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid token: %s: %v", e.Reason, e.Err)
	}
	return "invalid token: " + e.Reason
}

func (e *TokenIntegrityError) Unwrap() error        { return e.Err }
func (e *TokenIntegrityError) Is(target error) bool { return target == ErrTokenIntegrity }

const (
	msgNetwork  = "Network error. Please check your connection and try again."
	msgRejected = "Invalid OTP. Please try again."
	msgToken    = "Received an invalid session. Please verify again."
	msgGeneric  = "Something went wrong. Please try again."
)

// UserMessage is the text shown to the user for err.
func UserMessage(err error) string {
	var validation *ValidationError
	var rejection *ServerRejection
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &rejection):
		if rejection.Message != "" {
			return rejection.Message
		}
		return msgRejected
	case errors.Is(err, ErrTransport):
		return msgNetwork
	case errors.Is(err, ErrTokenIntegrity):
		return msgToken
	case errors.Is(err, ErrSubmissionInProgress):
		return "Verification is already in progress."
	default:
		return msgGeneric
	}
}
