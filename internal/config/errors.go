package config

import "errors"

// Config failures. Load wraps ErrLoadConfig around source errors and
// Validate wraps ErrInvalidConfig around the first bad setting.
var (
	ErrLoadConfig    = errors.New("radrate config: load failed")
	ErrInvalidConfig = errors.New("radrate config: invalid value")
)
