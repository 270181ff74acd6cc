package store

import "errors"

// Store-specific errors.
var (
	ErrPendingNotFound  = errors.New("pending credit not found")
	ErrCreditedNotFound = errors.New("credited record not found")
	ErrInviterNotFound  = errors.New("inviter mapping not found")
)
