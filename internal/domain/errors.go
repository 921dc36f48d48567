package domain

import "errors"

// Submission failures are reported synchronously to the caller and never
// retried automatically. They cause no pool mutation and no event.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDestinationNotFound = errors.New("destination not found")
	ErrSelfTransfer        = errors.New("cannot transfer to yourself")
	ErrAccountBanned       = errors.New("account is banned")
	ErrUnknownCurrency     = errors.New("unknown currency")
)

// Account service failures.
var (
	ErrUsernameTaken   = errors.New("username already taken")
	ErrAccountNotFound = errors.New("account not found")
	ErrBadCredentials  = errors.New("invalid username or password")
)
