package model

import "errors"

// Error taxonomy for the authorization core. Callers classify with
// errors.Is; transports map each class to a status code. Validation,
// authorization and not-found failures are detected before any mutation.
var (
	ErrValidation       = errors.New("invalid request")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("only the owner can perform this action")
	ErrAlreadyProcessed = errors.New("request already processed")
	ErrStore            = errors.New("storage unavailable")
)
