package triage

import "errors"

var (
	ErrInvalidStatus         = errors.New("invalid triage status")
	ErrApplicationIDRequired = errors.New("application id is required")
)
