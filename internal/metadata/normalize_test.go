package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toplist/toplist/internal/media"
	"github.com/toplist/toplist/internal/metadata/tmdb"
)

func TestMovieToResult(t *testing.T) {
	r := movieToResult(&tmdb.NormalizedMovieResult{
		ID: 603, Title: "The Matrix", OriginalTitle: "The Matrix", Year: 1999,
		Rating: 8.2, VoteCount: 100, Language: "en", Country: "us",
	})

	assert.Equal(t, media.TypeMovie, r.Type)
	assert.Empty(t, r.OriginalTitle)
	assert.Nil(t, r.Video)
	require.NotNil(t, r.ExternalRating)
	assert.Equal(t, 8.2, *r.ExternalRating)
	assert.Equal(t, "US", r.Country)
	assert.NoError(t, r.Validate())
}

func TestMovieToResult_UnratedAndUnknownYear(t *testing.T) {
	r := movieToResult(&tmdb.NormalizedMovieResult{ID: 1, Title: "Untitled", Rating: 0, VoteCount: 0})

	assert.Nil(t, r.ExternalRating)
	assert.Nil(t, r.ReleaseYear)
}

func TestSeriesToResult(t *testing.T) {
	r := seriesToResult(&tmdb.NormalizedSeriesResult{
		ID: 1396, Title: "Breaking Bad", Creator: "Vince Gilligan",
		SeasonsCount: 5, EpisodesCount: 62, Language: "en", Country: "US",
	})

	require.NotNil(t, r.Video)
	assert.Equal(t, "Vince Gilligan", r.Video.Director)
	assert.Equal(t, 5, *r.Video.SeasonsCount)
	assert.Equal(t, 62, *r.Video.EpisodesCount)
	assert.Nil(t, r.Book)
	assert.NoError(t, r.Validate())
}

func TestCanonicalLanguage(t *testing.T) {
	tests := map[string]string{
		"en":    "en",
		"en-US": "en",
		"pt_BR": "pt",
		"":      "",
		"!!":    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, canonicalLanguage(in), "input %q", in)
	}
}

func TestCanonicalCountry(t *testing.T) {
	assert.Equal(t, "GB", canonicalCountry("gb"))
	assert.Equal(t, "", canonicalCountry(""))
	assert.Equal(t, "", canonicalCountry("not-a-country"))
}
