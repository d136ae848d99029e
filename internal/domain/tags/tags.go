// Package tags derives behavioural labels from killboard statistics.
//
// Classify is pure: it performs no I/O and holds no state, so callers
// recompute tags whenever they render a record.
package tags

import (
	"strings"

	"github.com/okian/localscan/internal/domain/model"
)

// Tag texts.
const (
	TextGang          = "GANG"
	TextSolo          = "SOLO"
	TextVeryDangerous = "VERY DANGEROUS"
	TextDangerous     = "DANGEROUS"
	TextVerySnuggly   = "VERY SNUGGLY"
	TextSnuggly       = "SNUGGLY"
	TextCarebear      = "CAREBEAR"
	TextHighsec       = "HIGHSEC"
	TextLowsec        = "LOWSEC"
	TextNullsec       = "NULLSEC"
	TextWormhole      = "WORMHOLE"
	TextHauler        = "HAULER"
)

// Thresholds. Ratios are percentages.
const (
	gangMin          = 90
	soloMax          = 30
	veryDangerousMin = 75
	dangerousMin     = 50
	verySnugglyMax   = 15
	snugglyMax       = 25
	carebearISKRatio = 0.2
	carebearMinLost  = 10
	regionMin        = 80
	wormholeMin      = 50
)

// haulerMarkers are hull-name fragments that mark a hauling ship.
var haulerMarkers = []string{"Freighter", "Industrial", "Transport", "Blockade Runner"}

// IsHaulerHull reports whether a ship name denotes a hauling hull.
// Matching is by substring, case-sensitive.
func IsHaulerHull(shipName string) bool {
	for _, m := range haulerMarkers {
		if strings.Contains(shipName, m) {
			return true
		}
	}
	return false
}

// IsDangerous reports whether the danger ratio is at least 50.
func IsDangerous(stats *model.KillboardStats) bool {
	if stats == nil {
		return false
	}
	v, ok := stats.DangerRatio.Get()
	return ok && v >= dangerousMin
}

// Classify returns the tags for stats in axis order: gang/solo, danger,
// economy, region, role. Nil stats yield no tags.
func Classify(stats *model.KillboardStats) []model.Tag {
	out := []model.Tag{}
	if stats == nil {
		return out
	}

	for _, rule := range []func(*model.KillboardStats) (model.Tag, bool){
		gangAxis,
		dangerAxis,
		economyAxis,
		regionAxis,
		roleAxis,
	} {
		if tag, ok := rule(stats); ok {
			out = append(out, tag)
		}
	}
	return out
}

func tag(text, category string) (model.Tag, bool) {
	return model.Tag{Text: text, Category: category}, true
}

func gangAxis(s *model.KillboardStats) (model.Tag, bool) {
	v, ok := s.GangRatio.Get()
	switch {
	case !ok:
		return model.Tag{}, false
	case v >= gangMin:
		return tag(TextGang, "gang")
	case v <= soloMax:
		return tag(TextSolo, "solo")
	}
	return model.Tag{}, false
}

// dangerAxis keeps the observed branch order: the SNUGGLY band is only
// reachable for ratios in (15, 25].
func dangerAxis(s *model.KillboardStats) (model.Tag, bool) {
	v, ok := s.DangerRatio.Get()
	switch {
	case !ok:
		return model.Tag{}, false
	case v >= veryDangerousMin:
		return tag(TextVeryDangerous, "very-dangerous")
	case v >= dangerousMin:
		return tag(TextDangerous, "dangerous")
	case v <= verySnugglyMax:
		return tag(TextVerySnuggly, "very-snuggly")
	case v <= snugglyMax:
		return tag(TextSnuggly, "snuggly")
	}
	return model.Tag{}, false
}

func economyAxis(s *model.KillboardStats) (model.Tag, bool) {
	if !s.ISKDestroyed.Truthy() || !s.ISKLost.Truthy() {
		return model.Tag{}, false
	}
	ratio := s.ISKDestroyed.Value / s.ISKLost.Value
	lost, ok := s.ShipsLost.Get()
	if ratio < carebearISKRatio && ok && lost > carebearMinLost {
		return tag(TextCarebear, "carebear")
	}
	return model.Tag{}, false
}

func regionAxis(s *model.KillboardStats) (model.Tag, bool) {
	for _, r := range []struct {
		region, text string
		min          float64
	}{
		{model.RegionHighsec, TextHighsec, regionMin},
		{model.RegionLowsec, TextLowsec, regionMin},
		{model.RegionNullsec, TextNullsec, regionMin},
		{model.RegionWormhole, TextWormhole, wormholeMin},
	} {
		if v, ok := s.KillsRatio(r.region).Get(); ok && v >= r.min {
			return tag(r.text, r.region)
		}
	}
	return model.Tag{}, false
}

func roleAxis(s *model.KillboardStats) (model.Tag, bool) {
	for _, ship := range s.Ships() {
		if IsHaulerHull(ship.Name) {
			return tag(TextHauler, "hauler")
		}
	}
	return model.Tag{}, false
}
