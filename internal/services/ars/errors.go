package ars

import "errors"

var (
	// ErrInvalidSignal marks a raw signal that cannot be processed (empty
	// position set, zero avg entry price, malformed price history). Fatal
	// for that single market; callers drop the signal instead of retrying.
	ErrInvalidSignal = errors.New("invalid signal")

	// ErrInvalidConfig marks a configuration rejected at construction.
	ErrInvalidConfig = errors.New("invalid ars config")
)
