package lookupcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/localscan/internal/domain/model"
)

// Client calls the lookup API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Lookup posts names and returns the records together with the request id
// sent, which the server echoes in its logs.
func (c *Client) Lookup(ctx context.Context, names []string) ([]model.CharacterRecord, string, error) {
	requestID := uuid.NewString()
	payload, err := json.Marshal(map[string][]string{"characterNames": names})
	if err != nil {
		return nil, requestID, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/characters", bytes.NewReader(payload))
	if err != nil {
		return nil, requestID, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, requestID, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, requestID, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, requestID, ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return nil, requestID, fmt.Errorf("%w: %s", ErrBadRequest, message(body))
	default:
		return nil, requestID, fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode, message(body))
	}

	var records []model.CharacterRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, requestID, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return records, requestID, nil
}

func message(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		return eb.Message
	}
	return strings.TrimSpace(string(body))
}
