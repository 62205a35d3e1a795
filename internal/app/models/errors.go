package models

import "errors"

// Domain specific errors shared across the tour, user and purchase domains.
var (
	ErrNotFound         = errors.New("requested item not found")
	ErrValidation       = errors.New("validation failed")
	ErrAlreadyPurchased = errors.New("tour already purchased")
	ErrInvalidReceipt   = errors.New("receipt failed platform validation")
	ErrInvalidFile      = errors.New("invalid route file")
	ErrUnauthorized     = errors.New("authentication required or invalid credentials")
)
