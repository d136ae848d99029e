// Package activity derives recent ship usage and a likely fleet
// composition from a character's latest killmails.
package activity

import (
	"context"
	"sort"

	"github.com/okian/localscan/internal/adapters/esi"
	"github.com/okian/localscan/internal/adapters/zkill"
	"github.com/okian/localscan/internal/domain/model"
	"github.com/okian/localscan/pkg/logger"
	"github.com/okian/localscan/pkg/metrics"
)

// DefaultWindow is how many recent killmails are inspected.
const DefaultWindow = 5

// KillSource lists recent kills of a character.
type KillSource interface {
	RecentKills(ctx context.Context, characterID int64) ([]zkill.KillRef, error)
}

// KillmailSource fetches killmail detail.
type KillmailSource interface {
	Killmail(ctx context.Context, killmailID int64, hash string) (*esi.Killmail, error)
}

// TypeNamer resolves a ship type id to its display name.
type TypeNamer interface {
	TypeName(ctx context.Context, typeID int64) string
}

// Analyzer runs both estimators over the same sources.
type Analyzer struct {
	kills     KillSource
	killmails KillmailSource
	types     TypeNamer
	window    int
	log       logger.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWindow sets how many recent killmails are inspected.
func WithWindow(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.window = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(kills KillSource, killmails KillmailSource, types TypeNamer, opts ...Option) *Analyzer {
	a := &Analyzer{
		kills:     kills,
		killmails: killmails,
		types:     types,
		window:    DefaultWindow,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.Named("activity")
	return a
}

// recent returns the first window refs, or an error from the kill source.
func (a *Analyzer) recent(ctx context.Context, characterID int64) ([]zkill.KillRef, error) {
	refs, err := a.kills.RecentKills(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if len(refs) > a.window {
		refs = refs[:a.window]
	}
	return refs, nil
}

// RecentShips lists the distinct ships the character flew in its latest
// killmails, first seen first. As victim the lost ship counts; otherwise the
// character's own attacker entry does. Failures yield an empty slice.
func (a *Analyzer) RecentShips(ctx context.Context, characterID int64) []model.ShipUsageEntry {
	ships := []model.ShipUsageEntry{}
	refs, err := a.recent(ctx, characterID)
	if err != nil {
		a.log.Warn(ctx, "recent ships unavailable", logger.Int64("characterId", characterID), logger.Error(err))
		return ships
	}

	seen := make(map[int64]struct{})
	for _, ref := range refs {
		km, err := a.killmails.Killmail(ctx, ref.KillmailID, ref.Hash())
		if err != nil {
			a.log.Warn(ctx, "killmail skipped",
				logger.Int64("characterId", characterID),
				logger.Int64("killmailId", ref.KillmailID),
				logger.Error(err))
			continue
		}

		shipID := subjectShip(km, characterID)
		if shipID == 0 {
			continue
		}
		if _, ok := seen[shipID]; ok {
			continue
		}
		seen[shipID] = struct{}{}
		ships = append(ships, model.ShipUsageEntry{ID: shipID, Name: a.types.TypeName(ctx, shipID)})
	}
	return ships
}

func subjectShip(km *esi.Killmail, characterID int64) int64 {
	if km.Victim.CharacterID == characterID {
		return km.Victim.ShipTypeID
	}
	for _, at := range km.Attackers {
		if at.CharacterID == characterID {
			return at.ShipTypeID
		}
	}
	return 0
}

// EstimateFleet tallies the ships flown by co-attackers on the character's
// latest kills, most common first with ties kept in first-seen order.
// Killmails where the character was the victim are ignored. It returns nil
// when the kill list itself is unavailable.
func (a *Analyzer) EstimateFleet(ctx context.Context, characterID int64) *model.FleetAnalysis {
	refs, err := a.recent(ctx, characterID)
	if err != nil {
		a.log.Warn(ctx, "fleet analysis unavailable", logger.Int64("characterId", characterID), logger.Error(err))
		return nil
	}

	members := []model.FleetMember{}
	index := make(map[int64]int)
	for _, ref := range refs {
		km, err := a.killmails.Killmail(ctx, ref.KillmailID, ref.Hash())
		if err != nil {
			a.log.Warn(ctx, "killmail skipped",
				logger.Int64("characterId", characterID),
				logger.Int64("killmailId", ref.KillmailID),
				logger.Error(err))
			continue
		}
		if km.Victim.CharacterID == characterID {
			continue
		}

		for _, at := range km.Attackers {
			if at.CharacterID == 0 || at.ShipTypeID == 0 {
				continue
			}
			if i, ok := index[at.ShipTypeID]; ok {
				members[i].Count++
				continue
			}
			index[at.ShipTypeID] = len(members)
			members = append(members, model.FleetMember{
				ShipID:   at.ShipTypeID,
				ShipName: a.types.TypeName(ctx, at.ShipTypeID),
				Count:    1,
			})
		}
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Count > members[j].Count
	})
	metrics.RecordFleetSize(len(members))
	return &model.FleetAnalysis{FleetMembers: members}
}
