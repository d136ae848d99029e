package model

import "encoding/json"

// Region keys used in KillboardStats.Groups.
const (
	RegionHighsec  = "highsec"
	RegionLowsec   = "lowsec"
	RegionNullsec  = "nullsec"
	RegionWormhole = "wormhole"
)

// TopListShipType is the TopList.Type carrying recently used ships.
const TopListShipType = "shipType"

// CharacterRef identifies a resolved character for the rest of a lookup.
type CharacterRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// KillboardStats mirrors the killboard's per-character statistics.
// Every numeric field is optional.
type KillboardStats struct {
	DangerRatio    Number       `json:"dangerRatio"`
	GangRatio      Number       `json:"gangRatio"`
	ISKDestroyed   Number       `json:"iskDestroyed"`
	ISKLost        Number       `json:"iskLost"`
	ShipsDestroyed Number       `json:"shipsDestroyed"`
	ShipsLost      Number       `json:"shipsLost"`
	Groups         RegionGroups `json:"groups,omitempty"`
	TopLists       []TopList    `json:"topLists"`
}

// RegionGroups maps a region class to its activity.
type RegionGroups map[string]RegionActivity

// UnmarshalJSON keeps every entry that decodes as an object and drops the
// rest, so one malformed group never discards the whole statistics payload.
func (g *RegionGroups) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*g = nil
		return nil
	}
	out := make(RegionGroups, len(raw))
	for key, msg := range raw {
		var a RegionActivity
		if err := json.Unmarshal(msg, &a); err != nil {
			continue
		}
		out[key] = a
	}
	*g = out
	return nil
}

// RegionActivity holds activity for one region class.
type RegionActivity struct {
	KillsRatio Number `json:"kills_ratio"`
}

// KillsRatio returns the kills ratio recorded for region, absent when the
// region or its ratio is missing.
func (s *KillboardStats) KillsRatio(region string) Number {
	if s == nil || s.Groups == nil {
		return Number{}
	}
	return s.Groups[region].KillsRatio
}

// TopList is a typed list of entries; only ship usage is produced locally.
type TopList struct {
	Type   string           `json:"type"`
	Values []ShipUsageEntry `json:"values"`
}

// Ships returns the values of the ship-type top list, or nil.
func (s *KillboardStats) Ships() []ShipUsageEntry {
	if s == nil {
		return nil
	}
	for _, l := range s.TopLists {
		if l.Type == TopListShipType {
			return l.Values
		}
	}
	return nil
}

// Affiliation describes a corporation or alliance.
type Affiliation struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
	Logo   string `json:"logo"`
}

// ShipUsageEntry is a ship a character recently flew.
type ShipUsageEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FleetMember is one tallied ship type among a character's co-attackers.
type FleetMember struct {
	ShipID   int64  `json:"shipId"`
	ShipName string `json:"shipName"`
	Count    int    `json:"count"`
}

// FleetAnalysis wraps the fleet tally, ordered by descending count.
type FleetAnalysis struct {
	FleetMembers []FleetMember `json:"fleetMembers"`
}

// Tag is a derived behavioural label.
type Tag struct {
	Text     string `json:"text"`
	Category string `json:"type"`
}

// CharacterRecord is the per-character unit returned to clients.
type CharacterRecord struct {
	CharacterID    int64           `json:"characterId"`
	Name           string          `json:"name"`
	Portrait       string          `json:"portrait"`
	KillboardStats *KillboardStats `json:"killboardStats"`
	Corporation    *Affiliation    `json:"corporation"`
	Alliance       *Affiliation    `json:"alliance"`
	FleetAnalysis  *FleetAnalysis  `json:"fleetAnalysis"`
	PilotProfile   *string         `json:"pilotProfile"`
	Tags           []Tag           `json:"tags"`
}
