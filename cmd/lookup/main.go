package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/localscan/internal/lookupcli"
)

func main() {
	var (
		baseURL = flag.String("url", lookupcli.DefaultBaseURL, "Base URL of the service")
		timeout = flag.Duration("timeout", lookupcli.DefaultTimeout, "HTTP request timeout")
		asJSON  = flag.Bool("json", false, "Print the raw records as JSON")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		lookupcli.ShowHelp(os.Stdout)
		return
	}

	if err := lookupcli.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	names, err := lookupcli.ParseNames(flag.Args(), os.Stdin)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &lookupcli.Config{
		BaseURL: *baseURL,
		Timeout: *timeout,
		JSON:    *asJSON,
		Verbose: *verbose,
	}
	if err := lookupcli.Run(ctx, cfg, names, os.Stdout); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		if errors.Is(err, lookupcli.ErrNotFound) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
