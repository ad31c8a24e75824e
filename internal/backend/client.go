// Package backend talks to the hosted persistence backend through its REST
// and RPC endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/toplist/toplist/internal/config"
)

var (
	ErrNotConfigured = errors.New("backend is not configured")
	ErrTokenMissing  = errors.New("access token is required")
	ErrTokenExpired  = errors.New("access token has expired")
	ErrTokenInvalid  = errors.New("access token is malformed")
	ErrUnauthorized  = errors.New("backend rejected the credentials")
	ErrRejected      = errors.New("backend rejected the request")
	ErrAPIError      = errors.New("backend API error")
)

// tokenLeeway absorbs clock skew when checking expiry locally.
const tokenLeeway = 10 * time.Second

// Client is a backend API client.
type Client struct {
	httpClient *http.Client
	config     config.BackendConfig
	clock      clockwork.Clock
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithClock sets the clock used for token expiry checks.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// NewClient creates a new backend client.
func NewClient(cfg config.BackendConfig, logger zerolog.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")

	c := &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		config: cfg,
		clock:  clockwork.NewRealClock(),
		logger: logger.With().Str("component", "backend").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConfigured returns true if the backend URL and anon key are set.
func (c *Client) IsConfigured() bool {
	return c.config.URL != "" && c.config.AnonKey != ""
}

// CreateRankingWithItems stores a ranking and its items in one call and
// returns the new ranking id.
func (c *Client) CreateRankingWithItems(ctx context.Context, token string, req CreateRankingRequest) (string, error) {
	if err := c.checkToken(token); err != nil {
		return "", err
	}

	var raw json.RawMessage
	if err := c.doRequest(ctx, http.MethodPost, "/rest/v1/rpc/create_ranking_with_items", nil, token, req, &raw); err != nil {
		return "", err
	}

	rankingID, err := parseRankingID(raw)
	if err != nil {
		return "", err
	}

	c.logger.Info().
		Str("rankingId", rankingID).
		Str("title", req.Title).
		Int("items", len(req.Items)).
		Msg("Ranking created")

	return rankingID, nil
}

// UpdateItemScore changes the score of a persisted ranking item.
func (c *Client) UpdateItemScore(ctx context.Context, token, itemID string, score int) error {
	if err := c.checkToken(token); err != nil {
		return err
	}

	body := updateItemScoreRequest{ItemID: itemID, Score: score}
	if err := c.doRequest(ctx, http.MethodPost, "/rest/v1/rpc/update_item_score", nil, token, body, nil); err != nil {
		return err
	}

	c.logger.Debug().
		Str("itemId", itemID).
		Int("score", score).
		Msg("Item score updated")

	return nil
}

// ListCategories returns the ranking categories ordered by name.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	params := url.Values{}
	params.Set("select", "id,name,slug,media_type")
	params.Set("order", "name.asc")

	var categories []Category
	if err := c.doRequest(ctx, http.MethodGet, "/rest/v1/categories", params, "", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Ping checks that the backend answers with the configured key.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("select", "id")
	params.Set("limit", "1")

	var rows []struct {
		ID string `json:"id"`
	}
	return c.doRequest(ctx, http.MethodGet, "/rest/v1/categories", params, "", nil, &rows)
}

// SearchProfiles finds public profiles whose username contains query.
func (c *Client) SearchProfiles(ctx context.Context, query string, limit int) ([]Profile, error) {
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("select", "id,username,display_name,avatar_url")
	params.Set("username", "ilike.*"+escapeFilter(query)+"*")
	params.Set("order", "username.asc")
	params.Set("limit", fmt.Sprint(limit))

	var profiles []Profile
	if err := c.doRequest(ctx, http.MethodGet, "/rest/v1/profiles", params, "", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// checkToken rejects missing, malformed and expired user tokens before any
// request is made. The signature is verified by the backend.
func (c *Client) checkToken(token string) error {
	if token == "" {
		return ErrTokenMissing
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if claims.ExpiresAt != nil && c.clock.Now().After(claims.ExpiresAt.Add(tokenLeeway)) {
		return ErrTokenExpired
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, token string, body, result any) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	endpoint := c.config.URL + path
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = endpoint + "?" + params.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	bearer := token
	if bearer == "" {
		bearer = c.config.AnonKey
	}
	req.Header.Set("apikey", c.config.AnonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("code", errResp.Code).
				Str("message", errResp.Message).
				Msg("Backend API error")
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			if errResp.Message != "" {
				return fmt.Errorf("%w: %s", ErrRejected, errResp.Message)
			}
			return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// The function returns either the bare id or a row holding it.
func parseRankingID(raw json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil && id != "" {
		return id, nil
	}
	var row struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &row); err == nil && row.ID != "" {
		return row.ID, nil
	}
	return "", fmt.Errorf("%w: response carries no ranking id", ErrAPIError)
}

// escapeFilter drops characters with a meaning in filter expressions.
func escapeFilter(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '*', ',', '(', ')', '%':
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(s))
}
