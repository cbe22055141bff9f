package model

import "errors"

// Failure classes shared by every component. Wrap them with fmt.Errorf("...: %w", ErrX)
// and classify with errors.Is.
var (
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrInsufficientData = errors.New("insufficient data")
	ErrArithmetic       = errors.New("arithmetic failure")
	ErrTransaction      = errors.New("transaction failure")
	ErrAPIUnavailable   = errors.New("api unavailable")
)
