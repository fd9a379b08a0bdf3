package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when the username is unknown or
	// the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDisabled is returned when the account's active flag is off.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrMissingCredential is returned when no bearer token is present.
	ErrMissingCredential = errors.New("missing credential")

	// ErrMalformedCredential is returned when a token cannot be parsed or
	// its signature does not verify.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrExpiredCredential is returned when a token is past its expiry,
	// regardless of signature validity.
	ErrExpiredCredential = errors.New("expired credential")
)
