package lookupcli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/okian/localscan/pkg/logger"
)

// Run looks up names and writes the result to out.
func Run(ctx context.Context, cfg *Config, names []string, out io.Writer) error {
	if len(names) == 0 {
		return ErrNoNames
	}
	log := logger.Get().Named("lookupcli")
	start := time.Now()

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	records, requestID, err := client.Lookup(ctx, names)
	log.Debug(ctx, "lookup finished",
		logger.String("requestId", requestID),
		logger.Int("names", len(names)),
		logger.Int("records", len(records)),
		logger.Duration("elapsed", time.Since(start)),
		logger.Error(err))
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	if cfg.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	return RenderCards(out, records)
}
