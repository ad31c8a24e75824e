package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/toplist/toplist/internal/config"
)

var (
	ErrNotFound    = errors.New("volume not found")
	ErrAPIError    = errors.New("Google Books API error")
	ErrRateLimited = errors.New("Google Books API rate limited")
)

// Client is a Google Books API client. It works without an API key at a
// lower anonymous quota.
type Client struct {
	httpClient *http.Client
	config     config.GoogleBooksConfig
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new Google Books client.
func NewClient(cfg config.GoogleBooksConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		config:  cfg,
		limiter: rate.NewLimiter(limit, 3),
		logger:  logger.With().Str("component", "googlebooks").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "google_books"
}

// IsConfigured returns true when a base URL is set; the key is optional.
func (c *Client) IsConfigured() bool {
	return c.config.BaseURL != ""
}

// Test verifies connectivity with a minimal query.
func (c *Client) Test(ctx context.Context) error {
	params := c.baseParams()
	params.Set("q", "isbn:9780441013593")
	params.Set("maxResults", "1")

	var response VolumesResponse
	return c.doRequest(ctx, "/volumes", params, &response)
}

// SearchVolumes searches for books. Results keep Google's relevance order.
func (c *Client) SearchVolumes(ctx context.Context, query string) ([]NormalizedBookResult, error) {
	params := c.baseParams()
	params.Set("q", query)
	params.Set("printType", "books")
	if c.config.MaxResults > 0 {
		params.Set("maxResults", strconv.Itoa(c.config.MaxResults))
	}

	var response VolumesResponse
	if err := c.doRequest(ctx, "/volumes", params, &response); err != nil {
		return nil, err
	}

	results := make([]NormalizedBookResult, len(response.Items))
	for i := range response.Items {
		results[i] = toBookResult(&response.Items[i])
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Book search completed")

	return results, nil
}

// GetVolume gets a single volume by id.
func (c *Client) GetVolume(ctx context.Context, id string) (*NormalizedBookResult, error) {
	var volume Volume
	if err := c.doRequest(ctx, "/volumes/"+url.PathEscape(id), c.baseParams(), &volume); err != nil {
		return nil, err
	}

	result := toBookResult(&volume)

	c.logger.Debug().
		Str("id", id).
		Str("title", result.Title).
		Msg("Got volume details")

	return &result, nil
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	if c.config.APIKey != "" {
		params.Set("key", c.config.APIKey)
	}
	return params
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.config.BaseURL + path
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.Error.Message).
				Msg("Google Books API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func toBookResult(v *Volume) NormalizedBookResult {
	info := &v.VolumeInfo

	result := NormalizedBookResult{
		ID:          v.ID,
		Title:       info.Title,
		Subtitle:    info.Subtitle,
		Description: info.Description,
		Authors:     info.Authors,
		Publisher:   info.Publisher,
		Year:        parseYear(info.PublishedDate),
		ISBN:        pickISBN(info.IndustryIdentifiers),
		PageCount:   info.PageCount,
		Categories:  splitCategories(info.Categories),
		Rating:      info.AverageRating,
		Language:    info.Language,
		InfoURL:     info.InfoLink,
	}

	if info.ImageLinks != nil {
		cover := info.ImageLinks.Thumbnail
		if cover == "" {
			cover = info.ImageLinks.SmallThumbnail
		}
		result.CoverURL = secureURL(cover)
	}

	return result
}

// pickISBN prefers ISBN-13 over ISBN-10.
func pickISBN(ids []IndustryIdentifier) string {
	var isbn10 string
	for _, id := range ids {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			isbn10 = id.Identifier
		}
	}
	return isbn10
}

// splitCategories flattens "Fiction / Science Fiction / General" paths into
// unique genre names, keeping the provider's order.
func splitCategories(categories []string) []string {
	if len(categories) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, category := range categories {
		for _, part := range strings.Split(category, "/") {
			part = strings.TrimSpace(part)
			if part == "" || part == "General" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}

// Google returns cover links over plain http.
func secureURL(raw string) string {
	if strings.HasPrefix(raw, "http://") {
		return "https://" + strings.TrimPrefix(raw, "http://")
	}
	return raw
}

// parseYear accepts "2005", "2005-08" and "2005-08-02".
func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
