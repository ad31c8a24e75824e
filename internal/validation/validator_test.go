package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toplist/toplist/internal/apperr"
)

type sample struct {
	Title string `json:"title" validate:"notblank,max=10"`
	Kind  string `json:"kind" validate:"oneof=movie book"`
	Score int    `json:"score" validate:"gte=1,lte=10"`
}

func TestValidate_OK(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(sample{Title: "Top", Kind: "movie", Score: 5}))
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Validate(sample{Title: "   ", Kind: "game", Score: 11})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "is required", appErr.Fields["title"])
	assert.Equal(t, "must be one of: movie book", appErr.Fields["kind"])
	assert.Equal(t, "must be less than or equal to 10", appErr.Fields["score"])
}

func TestVar(t *testing.T) {
	v := New()
	assert.NoError(t, v.Var("score", 7, "gte=1,lte=10"))

	err := v.Var("score", 0, "gte=1,lte=10")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Contains(t, err.Error(), "score must be greater than or equal to 1")
}
