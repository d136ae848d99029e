// Package profile builds the narrative pilot profile prompt and asks a
// text completer for the profile.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/localscan/internal/domain/model"
	"github.com/okian/localscan/pkg/logger"
	"github.com/okian/localscan/pkg/metrics"
)

// Profile generation outcomes reported to metrics.
const (
	OutcomeGenerated = "generated"
	OutcomeDisabled  = "disabled"
	OutcomeFailed    = "failed"
	OutcomeEmpty     = "empty"
)

// ErrEmptyCompletion is returned by completers that produced no text.
var ErrEmptyCompletion = errors.New("empty completion")

// Completer turns a prompt into text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// BuildPrompt renders the statistics and recent ships into the profile prompt.
// Missing combat figures print as N/A and missing region activity as 0.
func BuildPrompt(stats *model.KillboardStats, ships []model.ShipUsageEntry) string {
	var b strings.Builder
	b.WriteString("Create a concise pilot profile based on the following EVE Online player statistics:\n\n")

	b.WriteString("Combat Statistics:\n")
	fmt.Fprintf(&b, "- Danger Ratio: %s\n", orNA(field(stats, func(s *model.KillboardStats) model.Number { return s.DangerRatio })))
	fmt.Fprintf(&b, "- Gang Ratio: %s\n", orNA(field(stats, func(s *model.KillboardStats) model.Number { return s.GangRatio })))
	fmt.Fprintf(&b, "- Ships Destroyed: %s\n", orNA(field(stats, func(s *model.KillboardStats) model.Number { return s.ShipsDestroyed })))
	fmt.Fprintf(&b, "- Ships Lost: %s\n\n", orNA(field(stats, func(s *model.KillboardStats) model.Number { return s.ShipsLost })))

	b.WriteString("Activity Areas:\n")
	for _, r := range []struct{ label, key string }{
		{"Highsec", model.RegionHighsec},
		{"Lowsec", model.RegionLowsec},
		{"Nullsec", model.RegionNullsec},
		{"Wormhole", model.RegionWormhole},
	} {
		fmt.Fprintf(&b, "- %s Activity: %s%%\n", r.label, orZero(stats.KillsRatio(r.key)))
	}

	b.WriteString("\nRecently Used Ships:\n")
	for _, s := range ships {
		fmt.Fprintf(&b, "- %s\n", s.Name)
	}

	b.WriteString("\nPlease provide a profile in the following format:\n")
	b.WriteString("Pilot Type: (Single word or short phrase describing their primary activity: Miner, Ganker, PvPer, etc.)\n")
	b.WriteString("Summary: (2-3 sentences describing their playstyle, preferred space type, and notable patterns)\n")
	return b.String()
}

func field(stats *model.KillboardStats, get func(*model.KillboardStats) model.Number) model.Number {
	if stats == nil {
		return model.Number{}
	}
	return get(stats)
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNA(n model.Number) string {
	if !n.Truthy() {
		return "N/A"
	}
	return format(n.Value)
}

func orZero(n model.Number) string {
	if !n.Truthy() {
		return "0"
	}
	return format(n.Value)
}

// Generator produces narrative profiles.
type Generator struct {
	completer Completer
	log       logger.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithCompleter sets the completer. Without one every profile is absent.
func WithCompleter(c Completer) Option {
	return func(g *Generator) {
		g.completer = c
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{log: logger.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.Named("profile")
	return g
}

// Enabled reports whether a completer is configured.
func (g *Generator) Enabled() bool {
	return g != nil && g.completer != nil
}

// Generate returns the profile text, or nil when generation is disabled,
// fails, or yields no text.
func (g *Generator) Generate(ctx context.Context, stats *model.KillboardStats, ships []model.ShipUsageEntry) *string {
	if !g.Enabled() {
		metrics.RecordProfile(OutcomeDisabled)
		return nil
	}

	text, err := g.completer.Complete(ctx, BuildPrompt(stats, ships))
	if err != nil {
		if errors.Is(err, ErrEmptyCompletion) {
			metrics.RecordProfile(OutcomeEmpty)
		} else {
			metrics.RecordProfile(OutcomeFailed)
		}
		g.log.Warn(ctx, "profile generation failed", logger.Error(err))
		return nil
	}
	if strings.TrimSpace(text) == "" {
		metrics.RecordProfile(OutcomeEmpty)
		return nil
	}

	metrics.RecordProfile(OutcomeGenerated)
	return &text
}
