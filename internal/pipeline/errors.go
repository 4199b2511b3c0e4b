package pipeline

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSpamDetected is returned when a spam check rejects the submission.
	// Callers must present it as a generic rejection without revealing which
	// check failed.
	ErrSpamDetected = errors.New("spam detected")

	// ErrProcessingPrevented is returned when a pre-submission hook aborted
	// processing
	ErrProcessingPrevented = errors.New("message processing was prevented")

	// ErrInvalidToken is returned when no pending message matches the
	// verification token
	ErrInvalidToken = errors.New("invalid verification token")

	// ErrTokenExpired is returned when the verification token is past its TTL
	ErrTokenExpired = errors.New("verification token has expired")

	// ErrAlreadyVerified is returned when the verification link was already
	// used
	ErrAlreadyVerified = errors.New("message has already been verified")
)

// RateLimitError is returned when the submission quota is exhausted
type RateLimitError struct {
	RetryAfter time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter.Format(time.RFC3339))
}

// StorageError wraps a persistence backend failure
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %v", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// MailError wraps a mail transport failure
type MailError struct {
	Err error
}

func (e *MailError) Error() string {
	return fmt.Sprintf("mail transport failure: %v", e.Err)
}

func (e *MailError) Unwrap() error {
	return e.Err
}
