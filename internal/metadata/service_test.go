package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toplist/toplist/internal/apperr"
	"github.com/toplist/toplist/internal/config"
	"github.com/toplist/toplist/internal/media"
	"github.com/toplist/toplist/internal/metadata/googlebooks"
	"github.com/toplist/toplist/internal/metadata/tmdb"
)

type fakeTMDB struct {
	configured bool
	movies     []tmdb.NormalizedMovieResult
	series     []tmdb.NormalizedSeriesResult
	movie      *tmdb.NormalizedMovieResult
	err        error
	calls      int
}

func (f *fakeTMDB) Name() string { return "tmdb" }
func (f *fakeTMDB) IsConfigured() bool { return f.configured }
func (f *fakeTMDB) Test(ctx context.Context) error { return f.err }

func (f *fakeTMDB) SearchMovies(ctx context.Context, query string) ([]tmdb.NormalizedMovieResult, error) {
	f.calls++
	return f.movies, f.err
}

func (f *fakeTMDB) SearchSeries(ctx context.Context, query string) ([]tmdb.NormalizedSeriesResult, error) {
	f.calls++
	return f.series, f.err
}

func (f *fakeTMDB) GetMovie(ctx context.Context, id int) (*tmdb.NormalizedMovieResult, error) {
	f.calls++
	if f.movie == nil {
		return nil, tmdb.ErrNotFound
	}
	return f.movie, f.err
}

func (f *fakeTMDB) GetSeries(ctx context.Context, id int) (*tmdb.NormalizedSeriesResult, error) {
	f.calls++
	return nil, tmdb.ErrNotFound
}

type fakeBooks struct {
	books []googlebooks.NormalizedBookResult
	err   error
	calls int
}

func (f *fakeBooks) Name() string { return "google_books" }
func (f *fakeBooks) IsConfigured() bool { return true }
func (f *fakeBooks) Test(ctx context.Context) error { return f.err }

func (f *fakeBooks) SearchVolumes(ctx context.Context, query string) ([]googlebooks.NormalizedBookResult, error) {
	f.calls++
	return f.books, f.err
}

func (f *fakeBooks) GetVolume(ctx context.Context, id string) (*googlebooks.NormalizedBookResult, error) {
	f.calls++
	if len(f.books) == 0 {
		return nil, googlebooks.ErrNotFound
	}
	return &f.books[0], f.err
}

func newFakeService(tm *fakeTMDB, bk *fakeBooks) *Service {
	return NewServiceWithClients(tm, bk, 2, zerolog.Nop())
}

func TestService_Search_ShortQueryShortCircuits(t *testing.T) {
	tm := &fakeTMDB{configured: true}
	svc := newFakeService(tm, &fakeBooks{})

	for _, q := range []string{"", "a", "  b  ", "é"} {
		results, err := svc.Search(context.Background(), q, media.TypeMovie)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.NotNil(t, results)
	}
	assert.Equal(t, 0, tm.calls)
}

func TestService_Search_NoCaching(t *testing.T) {
	tm := &fakeTMDB{configured: true, movies: []tmdb.NormalizedMovieResult{{ID: 603, Title: "The Matrix"}}}
	svc := newFakeService(tm, &fakeBooks{})

	for range 2 {
		_, err := svc.Search(context.Background(), "matrix", media.TypeMovie)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, tm.calls)
}

func TestService_Search_ProviderFailureIsSearchError(t *testing.T) {
	tm := &fakeTMDB{configured: true, err: tmdb.ErrRateLimited}
	svc := newFakeService(tm, &fakeBooks{})

	_, err := svc.Search(context.Background(), "matrix", media.TypeSeries)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrSearch))
	assert.True(t, errors.Is(err, tmdb.ErrRateLimited))
}

func TestService_Search_UnconfiguredProviderIsSearchError(t *testing.T) {
	svc := newFakeService(&fakeTMDB{configured: false}, &fakeBooks{})

	_, err := svc.Search(context.Background(), "matrix", media.TypeMovie)
	assert.True(t, errors.Is(err, apperr.ErrSearch))
	assert.True(t, errors.Is(err, ErrProviderNotConfigured))
}

func TestService_Search_UnknownType(t *testing.T) {
	svc := newFakeService(&fakeTMDB{configured: true}, &fakeBooks{})

	_, err := svc.Search(context.Background(), "matrix", media.Type("game"))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestService_Search_Books(t *testing.T) {
	bk := &fakeBooks{books: []googlebooks.NormalizedBookResult{
		{ID: "vol1", Title: "Dune", Authors: []string{"Frank Herbert"}, Year: 1965, Rating: 4.5, PageCount: 412, Language: "en"},
		{ID: "vol2", Title: "Dune Messiah"},
	}}
	svc := newFakeService(&fakeTMDB{configured: true}, bk)

	results, err := svc.Search(context.Background(), "dune", media.TypeBook)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "vol1", results[0].ExternalID)
	assert.Equal(t, "vol2", results[1].ExternalID)
	assert.Equal(t, media.SourceGoogleBooks, results[0].ExternalSource)
	require.NotNil(t, results[0].ExternalRating)
	assert.Equal(t, 9.0, *results[0].ExternalRating)
	require.NotNil(t, results[0].Book)
	assert.Equal(t, "Frank Herbert", results[0].Book.Author)
	assert.Nil(t, results[0].Video)
	assert.Nil(t, results[1].Book)

	for i := range results {
		assert.NoError(t, results[i].Validate())
	}
}

func TestService_Details_Movie(t *testing.T) {
	tm := &fakeTMDB{configured: true, movie: &tmdb.NormalizedMovieResult{
		ID: 603, Title: "The Matrix", Year: 1999, Runtime: 136, Director: "Lana Wachowski",
	}}
	svc := newFakeService(tm, &fakeBooks{})

	result, err := svc.Details(context.Background(), media.SourceTMDB, media.TypeMovie, "603")
	require.NoError(t, err)
	require.NotNil(t, result.Video)
	assert.Equal(t, "Lana Wachowski", result.Video.Director)
	assert.Equal(t, 136, *result.Video.DurationMinutes)
}

func TestService_Details_Errors(t *testing.T) {
	svc := newFakeService(&fakeTMDB{configured: true}, &fakeBooks{})
	ctx := context.Background()

	_, err := svc.Details(ctx, media.SourceGoogleBooks, media.TypeMovie, "603")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.Details(ctx, media.SourceTMDB, media.TypeMovie, "abc")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.Details(ctx, media.SourceTMDB, media.TypeMovie, "603")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = svc.Details(ctx, media.SourceGoogleBooks, media.TypeBook, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestService_WithRealClients(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/movie":
			json.NewEncoder(w).Encode(tmdb.SearchMoviesResponse{
				Results: []tmdb.MovieResult{{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", OriginalLanguage: "en"}},
			})
		case "/volumes":
			json.NewEncoder(w).Encode(googlebooks.VolumesResponse{
				Items: []googlebooks.Volume{{ID: "vol1", VolumeInfo: googlebooks.VolumeInfo{Title: "Dune"}}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := config.MetadataConfig{
		TMDB:        config.TMDBConfig{APIKey: "k", BaseURL: server.URL, Timeout: 5},
		GoogleBooks: config.GoogleBooksConfig{BaseURL: server.URL, Timeout: 5},
	}
	svc := NewService(cfg, config.SearchConfig{MinQueryLength: 2}, zerolog.Nop())

	movies, err := svc.Search(context.Background(), "Matrix", media.TypeMovie)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "603", movies[0].ExternalID)
	assert.Equal(t, 1999, *movies[0].ReleaseYear)
	assert.Equal(t, "en", movies[0].Language)

	books, err := svc.Search(context.Background(), "Dune", media.TypeBook)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	assert.Equal(t, ProviderStatus{TMDB: true, GoogleBooks: true}, svc.Status())
}
