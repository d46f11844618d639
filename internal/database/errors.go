package database

import "errors"

// ErrNotFound is returned when a catalog entry or progress record does not exist
var ErrNotFound = errors.New("record not found")
