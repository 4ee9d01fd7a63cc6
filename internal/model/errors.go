package model

import "errors"

var (
	// ErrInvalidInput marks mismatched or malformed input sequences
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientData marks inputs too short for the requested computation
	ErrInsufficientData = errors.New("insufficient data")
)
