package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrAuthRequired        = errors.New("broker authentication required")
	ErrValidation          = errors.New("validation failed")
	ErrGenerationFailed    = errors.New("generation failed")
	ErrNotSupported        = errors.New("not supported by source")
)
