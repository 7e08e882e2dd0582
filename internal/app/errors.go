package app

import "errors"

// ErrInvalidConfig reports service configuration that cannot build a board.
var ErrInvalidConfig = errors.New("invalid service config")
