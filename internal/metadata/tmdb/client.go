package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/toplist/toplist/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrNotFound      = errors.New("TMDB resource not found")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

// Client is a TMDB API client for movies and series.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
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
		limiter: rate.NewLimiter(limit, 5),
		logger:  logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity by requesting the API configuration.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	var result struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}
	return c.doRequest(ctx, "/configuration", c.baseParams(), &result)
}

// SearchMovies searches for movies. Results keep TMDB's relevance order.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]NormalizedMovieResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.baseParams()
	params.Set("query", query)
	params.Set("include_adult", "false")

	var response SearchMoviesResponse
	if err := c.doRequest(ctx, "/search/movie", params, &response); err != nil {
		return nil, err
	}

	results := make([]NormalizedMovieResult, len(response.Results))
	for i := range response.Results {
		results[i] = c.toMovieResult(&response.Results[i])
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Movie search completed")

	return results, nil
}

// SearchSeries searches for TV series. Results keep TMDB's relevance order.
func (c *Client) SearchSeries(ctx context.Context, query string) ([]NormalizedSeriesResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.baseParams()
	params.Set("query", query)
	params.Set("include_adult", "false")

	var response SearchTVResponse
	if err := c.doRequest(ctx, "/search/tv", params, &response); err != nil {
		return nil, err
	}

	results := make([]NormalizedSeriesResult, len(response.Results))
	for i := range response.Results {
		results[i] = c.toSeriesResult(&response.Results[i])
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Series search completed")

	return results, nil
}

// GetMovie gets movie details including runtime and director.
func (c *Client) GetMovie(ctx context.Context, id int) (*NormalizedMovieResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.baseParams()
	params.Set("append_to_response", "credits")

	var details MovieDetails
	if err := c.doRequest(ctx, fmt.Sprintf("/movie/%d", id), params, &details); err != nil {
		return nil, err
	}

	result := c.movieDetailsToResult(&details)

	c.logger.Debug().
		Int("id", id).
		Str("title", result.Title).
		Msg("Got movie details")

	return &result, nil
}

// GetSeries gets series details including season and episode counts.
func (c *Client) GetSeries(ctx context.Context, id int) (*NormalizedSeriesResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	var details TVDetails
	if err := c.doRequest(ctx, fmt.Sprintf("/tv/%d", id), c.baseParams(), &details); err != nil {
		return nil, err
	}

	result := c.tvDetailsToResult(&details)

	c.logger.Debug().
		Int("id", id).
		Str("title", result.Title).
		Msg("Got series details")

	return &result, nil
}

// GetImageURL returns a full image URL for a TMDB image path.
func (c *Client) GetImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.config.ImageBaseURL, size, path)
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	if c.config.Language != "" {
		params.Set("language", c.config.Language)
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
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
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

func (c *Client) toMovieResult(movie *MovieResult) NormalizedMovieResult {
	result := NormalizedMovieResult{
		ID:            movie.ID,
		Title:         movie.Title,
		OriginalTitle: movie.OriginalTitle,
		Overview:      movie.Overview,
		Year:          parseYear(movie.ReleaseDate),
		Genres:        genreNames(movie.GenreIDs, movieGenres),
		Rating:        movie.VoteAverage,
		VoteCount:     movie.VoteCount,
		Language:      movie.OriginalLanguage,
	}
	if movie.PosterPath != nil {
		result.PosterURL = c.GetImageURL(*movie.PosterPath, "w500")
	}
	return result
}

func (c *Client) movieDetailsToResult(details *MovieDetails) NormalizedMovieResult {
	genres := make([]string, len(details.Genres))
	for i, g := range details.Genres {
		genres[i] = g.Name
	}

	result := NormalizedMovieResult{
		ID:            details.ID,
		Title:         details.Title,
		OriginalTitle: details.OriginalTitle,
		Overview:      details.Overview,
		Year:          parseYear(details.ReleaseDate),
		Genres:        genres,
		Rating:        details.VoteAverage,
		VoteCount:     details.VoteCount,
		Language:      details.OriginalLanguage,
		Runtime:       details.Runtime,
	}

	if len(details.ProductionCountries) > 0 {
		result.Country = details.ProductionCountries[0].ISO31661
	}
	if details.PosterPath != nil {
		result.PosterURL = c.GetImageURL(*details.PosterPath, "w500")
	}
	if details.Credits != nil {
		for _, member := range details.Credits.Crew {
			if member.Job == "Director" {
				result.Director = member.Name
				break
			}
		}
	}

	return result
}

func (c *Client) toSeriesResult(tv *TVResult) NormalizedSeriesResult {
	result := NormalizedSeriesResult{
		ID:            tv.ID,
		Title:         tv.Name,
		OriginalTitle: tv.OriginalName,
		Overview:      tv.Overview,
		Year:          parseYear(tv.FirstAirDate),
		Genres:        genreNames(tv.GenreIDs, tvGenres),
		Rating:        tv.VoteAverage,
		VoteCount:     tv.VoteCount,
		Language:      tv.OriginalLanguage,
	}
	if len(tv.OriginCountry) > 0 {
		result.Country = tv.OriginCountry[0]
	}
	if tv.PosterPath != nil {
		result.PosterURL = c.GetImageURL(*tv.PosterPath, "w500")
	}
	return result
}

func (c *Client) tvDetailsToResult(details *TVDetails) NormalizedSeriesResult {
	genres := make([]string, len(details.Genres))
	for i, g := range details.Genres {
		genres[i] = g.Name
	}

	result := NormalizedSeriesResult{
		ID:            details.ID,
		Title:         details.Name,
		OriginalTitle: details.OriginalName,
		Overview:      details.Overview,
		Year:          parseYear(details.FirstAirDate),
		Genres:        genres,
		Rating:        details.VoteAverage,
		VoteCount:     details.VoteCount,
		Language:      details.OriginalLanguage,
		SeasonsCount:  details.NumberOfSeasons,
		EpisodesCount: details.NumberOfEpisodes,
	}

	if len(details.OriginCountry) > 0 {
		result.Country = details.OriginCountry[0]
	}
	if len(details.EpisodeRunTime) > 0 {
		result.Runtime = details.EpisodeRunTime[0]
	}
	if len(details.CreatedBy) > 0 {
		result.Creator = details.CreatedBy[0].Name
	}
	if details.PosterPath != nil {
		result.PosterURL = c.GetImageURL(*details.PosterPath, "w500")
	}

	return result
}

// parseYear returns the year of a YYYY-MM-DD date, or 0.
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
