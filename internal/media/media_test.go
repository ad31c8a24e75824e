package media

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func TestParseType(t *testing.T) {
	got, err := ParseType(" Movie ")
	require.NoError(t, err)
	assert.Equal(t, TypeMovie, got)

	_, err = ParseType("podcast")
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestParseSource(t *testing.T) {
	got, err := ParseSource("google_books")
	require.NoError(t, err)
	assert.Equal(t, SourceGoogleBooks, got)

	_, err = ParseSource("imdb")
	assert.True(t, errors.Is(err, ErrUnknownSource))
}

func TestSearchResult_Validate(t *testing.T) {
	tests := []struct {
		name    string
		result  SearchResult
		wantErr error
	}{
		{
			name: "movie with video details",
			result: SearchResult{
				ExternalID: "603", ExternalSource: SourceTMDB, Type: TypeMovie,
				Video: &VideoDetails{Director: "Lana Wachowski", DurationMinutes: intPtr(136)},
			},
		},
		{
			name: "series with seasons",
			result: SearchResult{
				ExternalID: "1396", ExternalSource: SourceTMDB, Type: TypeSeries,
				Video: &VideoDetails{SeasonsCount: intPtr(5), EpisodesCount: intPtr(62)},
			},
		},
		{
			name: "book with book details",
			result: SearchResult{
				ExternalID: "zyTCAlFPjgYC", ExternalSource: SourceGoogleBooks, Type: TypeBook,
				Book: &BookDetails{Author: "Frank Herbert", PageCount: intPtr(412)},
			},
		},
		{
			name: "book carrying a director",
			result: SearchResult{
				ExternalID: "x", ExternalSource: SourceGoogleBooks, Type: TypeBook,
				Video: &VideoDetails{Director: "nope"},
			},
			wantErr: ErrShapeMismatch,
		},
		{
			name: "movie carrying seasons",
			result: SearchResult{
				ExternalID: "x", ExternalSource: SourceTMDB, Type: TypeMovie,
				Video: &VideoDetails{SeasonsCount: intPtr(2)},
			},
			wantErr: ErrShapeMismatch,
		},
		{
			name: "book from the video provider",
			result: SearchResult{
				ExternalID: "x", ExternalSource: SourceTMDB, Type: TypeBook,
			},
			wantErr: ErrShapeMismatch,
		},
		{
			name: "rating out of range",
			result: SearchResult{
				ExternalID: "x", ExternalSource: SourceTMDB, Type: TypeMovie,
				ExternalRating: floatPtr(11),
			},
			wantErr: ErrRatingRange,
		},
		{
			name:    "unknown type",
			result:  SearchResult{ExternalID: "x", ExternalSource: SourceTMDB, Type: "game"},
			wantErr: ErrUnknownType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestSearchResult_Key(t *testing.T) {
	r := SearchResult{ExternalID: "603", ExternalSource: SourceTMDB}
	assert.Equal(t, "tmdb:603", r.Key())
}

func TestSearchResult_LinkURL(t *testing.T) {
	tests := []struct {
		result SearchResult
		want   string
	}{
		{SearchResult{ExternalID: "603", Type: TypeMovie}, "https://www.themoviedb.org/movie/603"},
		{SearchResult{ExternalID: "1396", Type: TypeSeries}, "https://www.themoviedb.org/tv/1396"},
		{SearchResult{ExternalID: "zyTCAlFPjgYC", Type: TypeBook}, "https://books.google.com/books?id=zyTCAlFPjgYC"},
		{SearchResult{Type: TypeBook}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.result.LinkURL())
	}
}
