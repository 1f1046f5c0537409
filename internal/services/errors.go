package services

import "errors"

// Data service errors
var (
	ErrNoDataLoaded      = errors.New("no dataset loaded")
	ErrInvalidMonthRange = errors.New("invalid month range")
)
