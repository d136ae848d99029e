// Package lookupcli is a terminal client for the lookup API. It submits
// character names and prints one card per returned record.
package lookupcli

import (
	"errors"
	"time"
)

// Defaults.
const (
	DefaultBaseURL = "http://localhost:3000"
	DefaultTimeout = 5 * time.Minute
)

// Sentinel kinds for client errors.
var (
	ErrNoNames     = errors.New("at least one character name is required")
	ErrNotFound    = errors.New("no characters found")
	ErrBadRequest  = errors.New("request rejected")
	ErrServer      = errors.New("lookup service error")
	ErrBadResponse = errors.New("unreadable lookup response")
	ErrUnreachable = errors.New("lookup service unreachable")
)

// Config holds configuration for one CLI run.
type Config struct {
	BaseURL string        // Base URL of the service
	Timeout time.Duration // HTTP request timeout
	JSON    bool          // Print raw records instead of cards
	Verbose bool          // Enable verbose logging
}
