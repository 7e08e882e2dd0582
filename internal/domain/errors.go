package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidLane     = errors.New("invalid lane")
	ErrInvalidPosition = errors.New("invalid position")
	ErrDuplicateID     = errors.New("duplicate id")
)
