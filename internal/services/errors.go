package services

import (
	"errors"

	"flightops/internal/dataprocessing"
)

// Dashboard service errors
var (
	// ErrUnknownFleet is returned for a fleet the mapping cannot produce.
	ErrUnknownFleet = dataprocessing.ErrUnknownFleet

	ErrInvalidStatus  = errors.New("invalid flight status")
	ErrMissingSession = errors.New("session id is required")
	ErrExportFailed   = errors.New("export failed")
)
