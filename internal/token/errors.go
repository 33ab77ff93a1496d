package token

import "errors"

var (
	// ErrExpired is returned when a token's validity window has elapsed.
	ErrExpired = errors.New("token expired")

	// ErrBadSignature is returned when a token's signature or MAC does not
	// verify, or the token is structurally malformed.
	ErrBadSignature = errors.New("token signature invalid")

	// ErrAlreadyConsumed is returned when a launch token is presented a
	// second time, regardless of remaining validity.
	ErrAlreadyConsumed = errors.New("token already consumed")

	// ErrUnknownSubject is returned when a launch token names a subject this
	// authority does not issue for.
	ErrUnknownSubject = errors.New("token subject unknown")
)
