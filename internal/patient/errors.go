package patient

import "errors"

var (
	ErrInvalidAge      = errors.New("age out of range")
	ErrInvalidGender   = errors.New("invalid gender value")
	ErrInvalidLabValue = errors.New("lab value must be a finite non-negative number")
	ErrInvalidFlag     = errors.New("binary field must be 0 or 1")
	ErrFeatureCount    = errors.New("unexpected feature count")
)
