package ports

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrIOFailure        = errors.New("io failure")
	ErrNoActiveRecord   = errors.New("no active record")
	ErrInvalidProfileID = errors.New("invalid profile id")
)

// ErrCorruptData reads as ErrNotFound to callers that only care whether a
// usable record exists.
var ErrCorruptData = fmt.Errorf("%w: corrupt data", ErrNotFound)
