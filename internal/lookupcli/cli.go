package lookupcli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/localscan/pkg/logger"
)

// SetupLogging initializes the logger writing to stderr so cards on stdout
// stay clean.
func SetupLogging(verbose bool) error {
	if err := logger.InitWithWriter(os.Stderr, "text"); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// ParseNames collects names from args, or from r one per line when args is
// empty. Names are trimmed and blanks dropped.
func ParseNames(args []string, r io.Reader) ([]string, error) {
	var raw []string
	if len(args) > 0 {
		raw = args
	} else if r != nil {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			raw = append(raw, sc.Text())
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read names: %w", err)
		}
	}

	names := make([]string, 0, len(raw))
	for _, n := range raw {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoNames
	}
	return names, nil
}

// ShowHelp prints usage information for the lookup tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Local Scanner Lookup
====================

Looks up characters on a running localscan service and prints a card per pilot.

Usage:
  lookup [options] [name ...]

Names are read from the arguments, or one per line from stdin when none are given.

Options:
  -url string
        Base URL of the service (default "http://localhost:3000")
  -timeout duration
        HTTP request timeout (default 5m)
  -json
        Print the raw records as JSON
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  lookup "Alice Example" "Bob Example"
  pbpaste | lookup -url http://localhost:8080
`)
}
