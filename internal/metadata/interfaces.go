package metadata

import (
	"context"

	"github.com/toplist/toplist/internal/metadata/googlebooks"
	"github.com/toplist/toplist/internal/metadata/tmdb"
)

// TMDBClient is the video-media catalog.
type TMDBClient interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	SearchMovies(ctx context.Context, query string) ([]tmdb.NormalizedMovieResult, error)
	SearchSeries(ctx context.Context, query string) ([]tmdb.NormalizedSeriesResult, error)
	GetMovie(ctx context.Context, id int) (*tmdb.NormalizedMovieResult, error)
	GetSeries(ctx context.Context, id int) (*tmdb.NormalizedSeriesResult, error)
}

// BooksClient is the book catalog.
type BooksClient interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	SearchVolumes(ctx context.Context, query string) ([]googlebooks.NormalizedBookResult, error)
	GetVolume(ctx context.Context, id string) (*googlebooks.NormalizedBookResult, error)
}
