// Package esi reads character, affiliation, killmail and type data from
// the game's public API. Lookups that feed a character record never
// return transport errors: they log and yield an unavailable value.
package esi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/localscan/internal/adapters/upstream"
	"github.com/okian/localscan/internal/domain/model"
	"github.com/okian/localscan/pkg/logger"
)

// Defaults.
const (
	DefaultBaseURL   = "https://esi.evetech.net/latest"
	ImageBaseURL     = "https://images.evetech.net"
	UnknownShip      = "Unknown Ship"
	serviceName      = "esi"
	defaultUserAgent = "localscan"
)

// CharacterInfo is the public character sheet.
type CharacterInfo struct {
	Name          string `json:"name"`
	CorporationID int64  `json:"corporation_id"`
	AllianceID    int64  `json:"alliance_id"`
}

// Participant is a victim or attacker on a killmail. Zero ids mean absent.
type Participant struct {
	CharacterID int64 `json:"character_id"`
	ShipTypeID  int64 `json:"ship_type_id"`
}

// Killmail is the subset of a killmail used for activity analysis.
type Killmail struct {
	KillmailID int64         `json:"killmail_id"`
	Victim     Participant   `json:"victim"`
	Attackers  []Participant `json:"attackers"`
}

type affiliationSheet struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// Client talks to the game API.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	hc        *http.Client
	log       logger.Logger
	http      *upstream.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a game API client rooted at baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: defaultUserAgent,
		timeout:   upstream.DefaultTimeout,
		log:       logger.Nop(),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named(serviceName)
	c.http = upstream.New(serviceName,
		upstream.WithHTTPClient(c.hc),
		upstream.WithTimeout(c.timeout),
		upstream.WithHeader("User-Agent", c.userAgent),
	)
	return c
}

// PortraitURL returns the portrait image URL of a character.
func PortraitURL(characterID int64) string {
	return fmt.Sprintf("%s/characters/%d/portrait", ImageBaseURL, characterID)
}

// CorporationLogoURL returns the logo image URL of a corporation.
func CorporationLogoURL(corporationID int64) string {
	return fmt.Sprintf("%s/corporations/%d/logo", ImageBaseURL, corporationID)
}

// AllianceLogoURL returns the logo image URL of an alliance.
func AllianceLogoURL(allianceID int64) string {
	return fmt.Sprintf("%s/alliances/%d/logo", ImageBaseURL, allianceID)
}

// ResolveNames maps names to characters. Blank names are dropped before the
// call and no call is made when none remain. Unmatched names are silently
// absent from the result; any failure yields an empty slice.
func (c *Client) ResolveNames(ctx context.Context, names []string) []model.CharacterRef {
	clean := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			clean = append(clean, n)
		}
	}
	if len(clean) == 0 {
		return []model.CharacterRef{}
	}

	var out struct {
		Characters []model.CharacterRef `json:"characters"`
	}
	if err := c.http.PostJSON(ctx, "universe_ids", c.baseURL+"/universe/ids/", clean, &out); err != nil {
		c.log.Warn(ctx, "name resolution failed", logger.Int("names", len(clean)), logger.Error(err))
		return []model.CharacterRef{}
	}
	if out.Characters == nil {
		return []model.CharacterRef{}
	}
	return out.Characters
}

// Character returns the public character sheet, or nil.
func (c *Client) Character(ctx context.Context, characterID int64) *CharacterInfo {
	var info CharacterInfo
	url := fmt.Sprintf("%s/characters/%d/", c.baseURL, characterID)
	if err := c.http.GetJSON(ctx, "character", url, &info); err != nil {
		c.log.Warn(ctx, "character lookup failed", logger.Int64("characterId", characterID), logger.Error(err))
		return nil
	}
	return &info
}

// Corporation returns the corporation of a character, or nil.
func (c *Client) Corporation(ctx context.Context, characterID int64) *model.Affiliation {
	info := c.Character(ctx, characterID)
	if info == nil {
		return nil
	}
	if info.CorporationID == 0 {
		c.log.Warn(ctx, "corporation lookup failed", logger.Int64("characterId", characterID), logger.Error(ErrNoCorporation))
		return nil
	}
	return c.affiliation(ctx, "corporation", characterID, info.CorporationID,
		fmt.Sprintf("%s/corporations/%d/", c.baseURL, info.CorporationID), CorporationLogoURL)
}

// Alliance returns the alliance of a character, or nil when the character
// has none or any call fails.
func (c *Client) Alliance(ctx context.Context, characterID int64) *model.Affiliation {
	info := c.Character(ctx, characterID)
	if info == nil || info.AllianceID == 0 {
		return nil
	}
	return c.affiliation(ctx, "alliance", characterID, info.AllianceID,
		fmt.Sprintf("%s/alliances/%d/", c.baseURL, info.AllianceID), AllianceLogoURL)
}

func (c *Client) affiliation(ctx context.Context, kind string, characterID, id int64, url string, logo func(int64) string) *model.Affiliation {
	var sheet affiliationSheet
	if err := c.http.GetJSON(ctx, kind, url, &sheet); err != nil {
		c.log.Warn(ctx, kind+" lookup failed",
			logger.Int64("characterId", characterID),
			logger.Int64(kind+"Id", id),
			logger.Error(err))
		return nil
	}
	return &model.Affiliation{ID: id, Name: sheet.Name, Ticker: sheet.Ticker, Logo: logo(id)}
}

// Killmail fetches one killmail. Unlike the record lookups it returns the
// error so callers can skip the record.
func (c *Client) Killmail(ctx context.Context, killmailID int64, hash string) (*Killmail, error) {
	var km Killmail
	url := fmt.Sprintf("%s/killmails/%d/%s/", c.baseURL, killmailID, hash)
	if err := c.http.GetJSON(ctx, "killmail", url, &km); err != nil {
		return nil, fmt.Errorf("killmail %d: %w", killmailID, err)
	}
	return &km, nil
}

// TypeName returns the display name of a type, or UnknownShip.
func (c *Client) TypeName(ctx context.Context, typeID int64) string {
	var t struct {
		Name string `json:"name"`
	}
	url := fmt.Sprintf("%s/universe/types/%d/", c.baseURL, typeID)
	if err := c.http.GetJSON(ctx, "type", url, &t); err != nil {
		c.log.Warn(ctx, "type lookup failed", logger.Int64("typeId", typeID), logger.Error(err))
		return UnknownShip
	}
	if t.Name == "" {
		return UnknownShip
	}
	return t.Name
}
