// Package service resolves submitted character names and enriches each
// character with killboard, affiliation, activity and profile data.
package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/localscan/internal/adapters/esi"
	"github.com/okian/localscan/internal/domain/model"
	"github.com/okian/localscan/internal/domain/tags"
	"github.com/okian/localscan/pkg/logger"
	"github.com/okian/localscan/pkg/metrics"
)

// Lookup outcomes reported to metrics.
const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// Resolver maps names to characters.
type Resolver interface {
	ResolveNames(ctx context.Context, names []string) []model.CharacterRef
}

// StatsSource returns killboard statistics, nil when unavailable.
type StatsSource interface {
	Stats(ctx context.Context, characterID int64) *model.KillboardStats
}

// AffiliationSource returns corporation and alliance detail, nil when unavailable.
type AffiliationSource interface {
	Corporation(ctx context.Context, characterID int64) *model.Affiliation
	Alliance(ctx context.Context, characterID int64) *model.Affiliation
}

// ActivitySource derives ship usage and fleet composition.
type ActivitySource interface {
	RecentShips(ctx context.Context, characterID int64) []model.ShipUsageEntry
	EstimateFleet(ctx context.Context, characterID int64) *model.FleetAnalysis
}

// ProfileSource writes narrative profiles, nil when unavailable.
type ProfileSource interface {
	Generate(ctx context.Context, stats *model.KillboardStats, ships []model.ShipUsageEntry) *string
}

// Service runs lookups.
type Service struct {
	resolver     Resolver
	stats        StatsSource
	affiliations AffiliationSource
	activity     ActivitySource
	profiles     ProfileSource
	portraitURL  func(int64) string

	startedAt time.Time
	lookups   atomic.Int64
	resolved  atomic.Int64
	enriched  atomic.Int64
	dropped   atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithResolver sets the name resolver.
func WithResolver(r Resolver) Option {
	return func(s *Service) {
		s.resolver = r
	}
}

// WithStatsSource sets the killboard statistics source.
func WithStatsSource(src StatsSource) Option {
	return func(s *Service) {
		s.stats = src
	}
}

// WithAffiliations sets the corporation and alliance source.
func WithAffiliations(src AffiliationSource) Option {
	return func(s *Service) {
		s.affiliations = src
	}
}

// WithActivity sets the ship usage and fleet source.
func WithActivity(src ActivitySource) Option {
	return func(s *Service) {
		s.activity = src
	}
}

// WithProfiles sets the narrative profile source.
func WithProfiles(src ProfileSource) Option {
	return func(s *Service) {
		s.profiles = src
	}
}

// WithPortraitURL overrides how portrait URLs are built.
func WithPortraitURL(fn func(int64) string) Option {
	return func(s *Service) {
		if fn != nil {
			s.portraitURL = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service.
func New(opts ...Option) *Service {
	s := &Service{
		portraitURL: esi.PortraitURL,
		startedAt:   time.Now(),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("lookup")
	return s
}

func (s *Service) configured() bool {
	return s.resolver != nil && s.stats != nil && s.affiliations != nil && s.activity != nil
}

// Lookup resolves names and returns one record per resolved character, in
// resolution order. Characters whose assembly fails are left out. A lookup
// runs to completion once started: cancellation of ctx is not propagated.
func (s *Service) Lookup(ctx context.Context, names []string) ([]model.CharacterRecord, error) {
	const op = "service.Lookup"
	if !s.configured() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	done := metrics.LookupStarted()
	defer done()
	s.lookups.Add(1)

	log := s.logger.With(logger.String("lookupId", uuid.NewString()))
	log.Info(ctx, "lookup started", logger.Int("names", len(names)))

	refs := s.resolver.ResolveNames(ctx, names)
	if len(refs) == 0 {
		metrics.RecordLookup(outcomeNotFound, time.Since(start))
		log.Info(ctx, "no characters resolved")
		return nil, fmt.Errorf("%s: %w", op, ErrNoCharacters)
	}
	s.resolved.Add(int64(len(refs)))
	metrics.RecordCharactersResolved(len(refs))

	records := make([]*model.CharacterRecord, len(refs))
	var g errgroup.Group
	for i, ref := range refs {
		g.Go(func() error {
			rec, err := s.enrich(ctx, log, ref)
			if err != nil {
				s.dropped.Add(1)
				metrics.RecordCharacterDropped()
				log.Error(ctx, "character dropped",
					logger.Int64("characterId", ref.ID),
					logger.String("name", ref.Name),
					logger.Error(err))
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	out := make([]model.CharacterRecord, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	s.enriched.Add(int64(len(out)))

	outcome := outcomeOK
	if len(out) == 0 {
		outcome = outcomeError
	}
	metrics.RecordLookup(outcome, time.Since(start))
	log.Info(ctx, "lookup finished",
		logger.Int("resolved", len(refs)),
		logger.Int("records", len(out)),
		logger.Duration("elapsed", time.Since(start)))
	return out, nil
}

// enrich gathers every facet of one character. The five sources run
// concurrently and each settles to its value or its empty default; only
// the profile waits for them.
func (s *Service) enrich(ctx context.Context, log logger.Logger, ref model.CharacterRef) (rec *model.CharacterRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("%w: %v", ErrAssembly, r)
		}
	}()

	var (
		stats    *model.KillboardStats
		corp     *model.Affiliation
		alliance *model.Affiliation
		ships    []model.ShipUsageEntry
		fleet    *model.FleetAnalysis
	)

	var g errgroup.Group
	g.Go(guard(func() { stats = s.stats.Stats(ctx, ref.ID) }))
	g.Go(guard(func() { corp = s.affiliations.Corporation(ctx, ref.ID) }))
	g.Go(guard(func() { alliance = s.affiliations.Alliance(ctx, ref.ID) }))
	g.Go(guard(func() { ships = s.activity.RecentShips(ctx, ref.ID) }))
	g.Go(guard(func() { fleet = s.activity.EstimateFleet(ctx, ref.ID) }))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if ships == nil {
		ships = []model.ShipUsageEntry{}
	}

	var pilotProfile *string
	if s.profiles != nil {
		pilotProfile = s.profiles.Generate(ctx, stats, ships)
	}

	if stats == nil {
		stats = &model.KillboardStats{}
	}
	stats.TopLists = []model.TopList{{Type: model.TopListShipType, Values: ships}}

	metrics.RecordCharacterEnriched()
	log.Debug(ctx, "character enriched",
		logger.Int64("characterId", ref.ID),
		logger.Int("ships", len(ships)),
		logger.Bool("profile", pilotProfile != nil))

	return &model.CharacterRecord{
		CharacterID:    ref.ID,
		Name:           ref.Name,
		Portrait:       s.portraitURL(ref.ID),
		KillboardStats: stats,
		Corporation:    corp,
		Alliance:       alliance,
		FleetAnalysis:  fleet,
		PilotProfile:   pilotProfile,
		Tags:           tags.Classify(stats),
	}, nil
}

// guard runs fn as an errgroup task, turning a panic into an error so it
// fails only the character it belongs to.
func guard(fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrAssembly, r)
			}
		}()
		fn()
		return nil
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"uptimeSeconds":      int64(time.Since(s.startedAt).Seconds()),
		"lookups":            s.lookups.Load(),
		"charactersResolved": s.resolved.Load(),
		"charactersEnriched": s.enriched.Load(),
		"charactersDropped":  s.dropped.Load(),
		"profilesEnabled":    s.profilesEnabled(),
	}
}

func (s *Service) profilesEnabled() bool {
	if s.profiles == nil {
		return false
	}
	if e, ok := s.profiles.(interface{ Enabled() bool }); ok {
		return e.Enabled()
	}
	return true
}
