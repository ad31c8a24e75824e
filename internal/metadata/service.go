package metadata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/toplist/toplist/internal/apperr"
	"github.com/toplist/toplist/internal/config"
	"github.com/toplist/toplist/internal/media"
	"github.com/toplist/toplist/internal/metadata/googlebooks"
	"github.com/toplist/toplist/internal/metadata/tmdb"
)

// DefaultMinQueryLength is the shortest query sent to a provider.
const DefaultMinQueryLength = 2

var ErrProviderNotConfigured = errors.New("metadata provider not configured")

// Service looks media up in the external catalogs and normalizes every
// provider's answer into media.SearchResult. It keeps no state between calls:
// an identical query issued twice reaches the provider twice.
type Service struct {
	tmdb           TMDBClient
	books          BooksClient
	minQueryLength int
	logger         zerolog.Logger
}

// NewService creates a metadata service with real API clients.
func NewService(cfg config.MetadataConfig, search config.SearchConfig, logger zerolog.Logger) *Service {
	return NewServiceWithClients(
		tmdb.NewClient(cfg.TMDB, logger),
		googlebooks.NewClient(cfg.GoogleBooks, logger),
		search.MinQueryLength,
		logger,
	)
}

// NewServiceWithClients creates a metadata service with custom clients.
func NewServiceWithClients(tmdbClient TMDBClient, booksClient BooksClient, minQueryLength int, logger zerolog.Logger) *Service {
	if minQueryLength <= 0 {
		minQueryLength = DefaultMinQueryLength
	}
	return &Service{
		tmdb:           tmdbClient,
		books:          booksClient,
		minQueryLength: minQueryLength,
		logger:         logger.With().Str("component", "metadata").Logger(),
	}
}

// Search returns catalog entries for query in the provider's own relevance
// order. Queries shorter than the minimum length return no results without a
// network call. Provider failures come back as apperr.ErrSearch; callers are
// expected to show them as zero results.
func (s *Service) Search(ctx context.Context, query string, mediaType media.Type) ([]media.SearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < s.minQueryLength {
		return []media.SearchResult{}, nil
	}

	var (
		results []media.SearchResult
		err     error
	)

	switch mediaType {
	case media.TypeMovie:
		results, err = s.searchMovies(ctx, query)
	case media.TypeSeries:
		results, err = s.searchSeries(ctx, query)
	case media.TypeBook:
		results, err = s.searchBooks(ctx, query)
	default:
		return nil, apperr.Validationf("unknown media type %q", mediaType)
	}

	if err != nil {
		s.logger.Warn().Err(err).
			Str("query", query).
			Str("type", string(mediaType)).
			Msg("Media search failed")
		return nil, apperr.Search(err, fmt.Sprintf("%s search failed", mediaType))
	}

	s.logger.Info().
		Str("query", query).
		Str("type", string(mediaType)).
		Int("results", len(results)).
		Msg("Media search completed")

	return results, nil
}

func (s *Service) searchMovies(ctx context.Context, query string) ([]media.SearchResult, error) {
	if !s.tmdb.IsConfigured() {
		return nil, ErrProviderNotConfigured
	}
	movies, err := s.tmdb.SearchMovies(ctx, query)
	if err != nil {
		return nil, err
	}
	results := make([]media.SearchResult, len(movies))
	for i := range movies {
		results[i] = movieToResult(&movies[i])
	}
	return results, nil
}

func (s *Service) searchSeries(ctx context.Context, query string) ([]media.SearchResult, error) {
	if !s.tmdb.IsConfigured() {
		return nil, ErrProviderNotConfigured
	}
	series, err := s.tmdb.SearchSeries(ctx, query)
	if err != nil {
		return nil, err
	}
	results := make([]media.SearchResult, len(series))
	for i := range series {
		results[i] = seriesToResult(&series[i])
	}
	return results, nil
}

func (s *Service) searchBooks(ctx context.Context, query string) ([]media.SearchResult, error) {
	if !s.books.IsConfigured() {
		return nil, ErrProviderNotConfigured
	}
	books, err := s.books.SearchVolumes(ctx, query)
	if err != nil {
		return nil, err
	}
	results := make([]media.SearchResult, len(books))
	for i := range books {
		results[i] = bookToResult(&books[i])
	}
	return results, nil
}

// Details fetches the full record of a picked search result, filling the
// type-specific attributes search listings leave out (runtime, director,
// season counts, page count).
func (s *Service) Details(ctx context.Context, source media.Source, mediaType media.Type, externalID string) (*media.SearchResult, error) {
	expected, err := media.SourceFor(mediaType)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if source != expected {
		return nil, apperr.Validationf("%s entries do not come from %s", mediaType, source)
	}

	result, err := s.fetchDetails(ctx, mediaType, externalID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) || errors.Is(err, googlebooks.ErrNotFound) {
			return nil, apperr.NotFoundf("%s %s not found", mediaType, externalID)
		}
		if errors.Is(err, apperr.ErrValidation) {
			return nil, err
		}
		s.logger.Warn().Err(err).
			Str("id", externalID).
			Str("type", string(mediaType)).
			Msg("Media details lookup failed")
		return nil, apperr.Search(err, fmt.Sprintf("%s details lookup failed", mediaType))
	}

	s.logger.Debug().
		Str("id", externalID).
		Str("type", string(mediaType)).
		Str("title", result.Title).
		Msg("Got media details")

	return result, nil
}

func (s *Service) fetchDetails(ctx context.Context, mediaType media.Type, externalID string) (*media.SearchResult, error) {
	switch mediaType {
	case media.TypeMovie, media.TypeSeries:
		if !s.tmdb.IsConfigured() {
			return nil, ErrProviderNotConfigured
		}
		id, err := strconv.Atoi(externalID)
		if err != nil || id <= 0 {
			return nil, apperr.Validationf("invalid TMDB id %q", externalID)
		}
		if mediaType == media.TypeMovie {
			movie, err := s.tmdb.GetMovie(ctx, id)
			if err != nil {
				return nil, err
			}
			result := movieToResult(movie)
			return &result, nil
		}
		series, err := s.tmdb.GetSeries(ctx, id)
		if err != nil {
			return nil, err
		}
		result := seriesToResult(series)
		return &result, nil

	case media.TypeBook:
		if !s.books.IsConfigured() {
			return nil, ErrProviderNotConfigured
		}
		book, err := s.books.GetVolume(ctx, externalID)
		if err != nil {
			return nil, err
		}
		result := bookToResult(book)
		return &result, nil

	default:
		return nil, apperr.Validationf("unknown media type %q", mediaType)
	}
}

// ProviderStatus reports which catalogs are usable.
type ProviderStatus struct {
	TMDB        bool `json:"tmdb"`
	GoogleBooks bool `json:"googleBooks"`
}

// Status returns the configuration state of each provider.
func (s *Service) Status() ProviderStatus {
	return ProviderStatus{
		TMDB:        s.tmdb.IsConfigured(),
		GoogleBooks: s.books.IsConfigured(),
	}
}

// Test checks connectivity of the provider serving mediaType.
func (s *Service) Test(ctx context.Context, mediaType media.Type) error {
	switch mediaType {
	case media.TypeMovie, media.TypeSeries:
		return s.tmdb.Test(ctx)
	case media.TypeBook:
		return s.books.Test(ctx)
	default:
		return apperr.Validationf("unknown media type %q", mediaType)
	}
}
