package service

import "errors"

// Sentinel kinds for lookup errors.
var (
	ErrNoCharacters  = errors.New("no characters found")
	ErrNotConfigured = errors.New("lookup service not configured")
	ErrAssembly      = errors.New("character assembly failed")
)
