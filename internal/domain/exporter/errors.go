package exporter

import "errors"

// Sentinel error kinds for exports.
var (
	ErrEmptyRatings = errors.New("no ratings to export")
	ErrEncodeScores = errors.New("encode scores failed")
)
