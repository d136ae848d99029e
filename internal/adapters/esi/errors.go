package esi

import "errors"

// Sentinel kinds for game API errors.
var (
	ErrNoCorporation = errors.New("character has no corporation")
)
