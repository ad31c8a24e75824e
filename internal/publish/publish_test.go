package publish

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toplist/toplist/internal/apperr"
	"github.com/toplist/toplist/internal/backend"
	"github.com/toplist/toplist/internal/composer"
	"github.com/toplist/toplist/internal/media"
)

type fakeCreator struct {
	requests []backend.CreateRankingRequest
	id       string
	err      error
}

func (f *fakeCreator) CreateRankingWithItems(ctx context.Context, token string, req backend.CreateRankingRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.id, f.err
}

func validMetadata() Metadata {
	return Metadata{
		Title:      "  Best sci-fi  ",
		CategoryID: "cat-1",
		MediaType:  media.TypeMovie,
		IsPublic:   true,
	}
}

func compose(t *testing.T, scores ...int) *composer.Composition {
	t.Helper()
	c := composer.New()
	for i, score := range scores {
		year := 1990 + i
		_, err := c.AddItem(media.SearchResult{
			ExternalID:     fmt.Sprint(100 + i),
			ExternalSource: media.SourceTMDB,
			Type:           media.TypeMovie,
			Title:          fmt.Sprintf("Movie %d", i),
			ReleaseYear:    &year,
		}, score, fmt.Sprintf("review %d", i))
		require.NoError(t, err)
	}
	return c
}

func TestAssemble_PositionsAreContiguous(t *testing.T) {
	a := NewAssembler(&fakeCreator{}, zerolog.Nop())

	for n := MinItems; n <= 12; n++ {
		scores := make([]int, n)
		for i := range scores {
			scores[i] = (i*7)%10 + 1
		}
		c := compose(t, scores...)
		if n%2 == 0 {
			require.NoError(t, c.Reorder(n-1, 0))
		}

		req, err := a.Assemble(c, validMetadata())
		require.NoError(t, err)
		require.Len(t, req.Items, n)

		display := c.Items()
		for i, item := range req.Items {
			assert.Equal(t, i+1, item.Position)
			assert.Equal(t, display[i].Title, item.Title)
		}
	}
}

func TestAssemble_CarriesDraftFields(t *testing.T) {
	c := compose(t, 5, 9, 7)
	require.NoError(t, c.Reorder(1, 0))

	req, err := NewAssembler(&fakeCreator{}, zerolog.Nop()).Assemble(c, validMetadata())
	require.NoError(t, err)

	assert.Equal(t, "Best sci-fi", req.Title)
	assert.Equal(t, "cat-1", req.CategoryID)
	assert.Equal(t, "movie", req.MediaType)
	assert.Equal(t, "manual", req.SortMode)
	assert.True(t, req.IsPublic)

	first := req.Items[0]
	assert.Equal(t, "Movie 2", first.Title)
	assert.Equal(t, 7, *first.Score)
	assert.Equal(t, "review 2", first.Review)
	assert.True(t, first.IsManualPosition)
	assert.Equal(t, "102", first.ExternalID)
	assert.Equal(t, "tmdb", first.ExternalSource)
	assert.Equal(t, "https://www.themoviedb.org/movie/102", first.LinkURL)
	assert.Equal(t, 1992, *first.ReleaseYear)
}

func TestAssemble_MinimumCardinality(t *testing.T) {
	a := NewAssembler(&fakeCreator{}, zerolog.Nop())

	for n := range 3 {
		scores := make([]int, n)
		for i := range scores {
			scores[i] = 5
		}
		_, err := a.Assemble(compose(t, scores...), validMetadata())
		require.Error(t, err, "%d items", n)
		assert.True(t, errors.Is(err, apperr.ErrValidation))

		appErr, ok := apperr.As(err)
		require.True(t, ok)
		assert.Contains(t, appErr.Fields, "items")
	}

	for _, n := range []int{3, 4, 10} {
		scores := make([]int, n)
		for i := range scores {
			scores[i] = 5
		}
		_, err := a.Assemble(compose(t, scores...), validMetadata())
		assert.NoError(t, err, "%d items", n)
	}
}

func TestAssemble_ValidatesMetadata(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(m *Metadata)
		field string
	}{
		{"blank title", func(m *Metadata) { m.Title = "   " }, "title"},
		{"missing category", func(m *Metadata) { m.CategoryID = "" }, "categoryId"},
		{"missing media type", func(m *Metadata) { m.MediaType = "" }, "mediaType"},
		{"unknown media type", func(m *Metadata) { m.MediaType = "game" }, "mediaType"},
	}

	a := NewAssembler(&fakeCreator{}, zerolog.Nop())
	c := compose(t, 5, 6, 7)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := validMetadata()
			tt.mod(&meta)

			_, err := a.Assemble(c, meta)
			appErr, ok := apperr.As(err)
			require.True(t, ok, "error = %v", err)
			assert.Equal(t, apperr.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Fields, tt.field)
		})
	}
}

func TestPublish_Success(t *testing.T) {
	creator := &fakeCreator{id: "ranking-1"}
	a := NewAssembler(creator, zerolog.Nop())

	result, err := a.Publish(context.Background(), "token", compose(t, 3, 8, 6), validMetadata())
	require.NoError(t, err)

	assert.Equal(t, Result{RankingID: "ranking-1", ItemCount: 3}, result)
	require.Len(t, creator.requests, 1)
	assert.Equal(t, "score", creator.requests[0].SortMode)
}

func TestPublish_ValidationFailureSendsNothing(t *testing.T) {
	creator := &fakeCreator{id: "ranking-1"}
	a := NewAssembler(creator, zerolog.Nop())

	_, err := a.Publish(context.Background(), "token", compose(t, 3, 8), validMetadata())

	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Empty(t, creator.requests)
}

func TestPublish_BackendFailureKeepsComposition(t *testing.T) {
	creator := &fakeCreator{err: backend.ErrTokenExpired}
	a := NewAssembler(creator, zerolog.Nop())
	c := compose(t, 3, 8, 6)
	before := c.Snapshot()

	_, err := a.Publish(context.Background(), "token", c, validMetadata())

	assert.True(t, errors.Is(err, apperr.ErrPublication))
	assert.True(t, errors.Is(err, backend.ErrTokenExpired))
	assert.Equal(t, before, c.Snapshot())

	// Retry succeeds with the same state.
	creator.err = nil
	creator.id = "ranking-2"
	result, err := a.Publish(context.Background(), "token", c, validMetadata())
	require.NoError(t, err)
	assert.Equal(t, "ranking-2", result.RankingID)
	assert.Equal(t, creator.requests[0], creator.requests[1])
}
