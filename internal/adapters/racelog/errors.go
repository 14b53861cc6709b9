package racelog

import "errors"

// Sentinel kinds for race-log errors.
var (
	ErrMalformedLog    = errors.New("malformed race log")
	ErrMalformedRoster = errors.New("malformed roster")
)
