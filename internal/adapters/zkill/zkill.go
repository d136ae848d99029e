// Package zkill reads statistics and recent kills from the killboard.
//
// The killboard asks clients to pause between calls; every call settles
// the configured Pacer once a response has arrived.
package zkill

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/localscan/internal/adapters/throttle"
	"github.com/okian/localscan/internal/adapters/upstream"
	"github.com/okian/localscan/internal/domain/model"
	"github.com/okian/localscan/pkg/logger"
)

// Defaults.
const (
	DefaultBaseURL   = "https://zkillboard.com/api"
	DefaultUserAgent = "Local Scanner - localscan"
	serviceName      = "zkill"
)

// KillRef points at a killmail on the game API.
type KillRef struct {
	KillmailID int64 `json:"killmail_id"`
	ZKB        struct {
		Hash string `json:"hash"`
	} `json:"zkb"`
}

// Hash returns the killmail hash.
func (r KillRef) Hash() string {
	return r.ZKB.Hash
}

// Client talks to the killboard.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	hc        *http.Client
	pacer     *throttle.Pacer
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

// WithUserAgent sets the User-Agent the killboard identifies us by.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithPacer sets the post-call pacer.
func WithPacer(p *throttle.Pacer) Option {
	return func(c *Client) {
		if p != nil {
			c.pacer = p
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

// New creates a killboard client rooted at baseURL (DefaultBaseURL when empty).
// Compressed responses are negotiated by the transport.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
		timeout:   upstream.DefaultTimeout,
		pacer:     throttle.NewPacer(),
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
		upstream.WithHeader("If-None-Match", "0"),
	)
	return c
}

// Stats returns the killboard statistics of a character, or nil.
func (c *Client) Stats(ctx context.Context, characterID int64) *model.KillboardStats {
	var stats *model.KillboardStats
	url := fmt.Sprintf("%s/stats/characterID/%d/", c.baseURL, characterID)
	err := c.get(ctx, "stats", url, &stats)
	if err != nil {
		c.log.Warn(ctx, "stats lookup failed", logger.Int64("characterId", characterID), logger.Error(err))
		return nil
	}
	return stats
}

// RecentKills returns the character's recent killmail references in the
// killboard's order. A payload that is not a list yields ErrNoKillData.
func (c *Client) RecentKills(ctx context.Context, characterID int64) ([]KillRef, error) {
	var raw json.RawMessage
	url := fmt.Sprintf("%s/characterID/%d/", c.baseURL, characterID)
	if err := c.get(ctx, "kills", url, &raw); err != nil {
		return nil, fmt.Errorf("recent kills %d: %w", characterID, err)
	}

	var refs []KillRef
	if err := json.Unmarshal(raw, &refs); err != nil || refs == nil {
		return nil, fmt.Errorf("recent kills %d: %w", characterID, ErrNoKillData)
	}
	return refs, nil
}

func (c *Client) get(ctx context.Context, endpoint, url string, out any) error {
	err := c.http.GetJSON(ctx, endpoint, url, out)
	if upstream.Responded(err) {
		if serr := c.pacer.Settle(ctx); serr != nil {
			c.log.Debug(ctx, "pacing interrupted", logger.Error(serr))
		}
	}
	return err
}
