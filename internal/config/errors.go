package config

import "errors"

// ErrInvalidConfig marks configuration that parsed but failed validation.
var ErrInvalidConfig = errors.New("invalid config")
