package repository

import "errors"

// Sentinel kinds for storage errors. A missing key is not an error: KV.Get
// reports it through its bool and Store reads it as empty.
var (
	ErrClosed      = errors.New("store closed")
	ErrOpenStorage = errors.New("open storage failed")
)
