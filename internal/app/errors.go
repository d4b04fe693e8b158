package service

import "errors"

// Sentinel error kinds returned by the Service.
var (
	ErrNoDataset     = errors.New("no dataset loaded")
	ErrUnknownReport = errors.New("unknown report")
	ErrUnknownUser   = errors.New("unknown user")
	ErrInvalidUser   = errors.New("invalid user")
	ErrInvalidRating = errors.New("invalid rating")
)
