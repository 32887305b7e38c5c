package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrMissingBusinessKey  = errors.New("missing business key")
	ErrUnknownSourceSystem = errors.New("unknown source system")
)
