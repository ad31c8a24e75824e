// Package publish turns a finished composition into a persisted ranking.
package publish

import (
	"context"
	"maps"
	"strings"

	"github.com/rs/zerolog"

	"github.com/toplist/toplist/internal/apperr"
	"github.com/toplist/toplist/internal/backend"
	"github.com/toplist/toplist/internal/composer"
	"github.com/toplist/toplist/internal/media"
	"github.com/toplist/toplist/internal/validation"
)

// MinItems is the smallest ranking that can be published.
const MinItems = 3

// Metadata describes the ranking as a whole.
type Metadata struct {
	Title       string     `json:"title" validate:"notblank,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	CategoryID  string     `json:"categoryId" validate:"notblank"`
	MediaType   media.Type `json:"mediaType" validate:"required,oneof=movie series book"`
	IsPublic    bool       `json:"isPublic"`
}

// Composition is the state being published.
type Composition interface {
	Snapshot() composer.Snapshot
}

// RankingCreator persists a ranking with its items.
type RankingCreator interface {
	CreateRankingWithItems(ctx context.Context, token string, req backend.CreateRankingRequest) (string, error)
}

// Result is a published ranking.
type Result struct {
	RankingID string `json:"rankingId"`
	ItemCount int    `json:"itemCount"`
}

// Assembler validates a composition and submits it.
type Assembler struct {
	creator   RankingCreator
	validator *validation.Validator
	logger    zerolog.Logger
}

// NewAssembler creates an assembler that submits through creator.
func NewAssembler(creator RankingCreator, logger zerolog.Logger) *Assembler {
	return &Assembler{
		creator:   creator,
		validator: validation.New(),
		logger:    logger.With().Str("component", "publish").Logger(),
	}
}

// Assemble validates the metadata and item count, then lays the items out in
// display order with positions 1..N, whatever the sort mode.
func (a *Assembler) Assemble(comp Composition, meta Metadata) (backend.CreateRankingRequest, error) {
	snap := comp.Snapshot()
	if err := a.validate(meta, len(snap.Items)); err != nil {
		return backend.CreateRankingRequest{}, err
	}

	items := make([]backend.RankingItem, len(snap.Items))
	for i, d := range snap.Items {
		item := backend.RankingItem{
			Position:         composer.Position(i),
			Title:            d.Title,
			ImageURL:         d.ImageURL,
			LinkURL:          d.LinkURL,
			Score:            d.Score,
			Review:           d.Review,
			IsManualPosition: d.IsManualPosition,
		}
		if d.Media != nil {
			item.ExternalID = d.Media.ExternalID
			item.ExternalSource = string(d.Media.ExternalSource)
			item.MediaType = string(d.Media.Type)
			item.ReleaseYear = d.Media.ReleaseYear
		}
		items[i] = item
	}

	return backend.CreateRankingRequest{
		Title:       strings.TrimSpace(meta.Title),
		Description: strings.TrimSpace(meta.Description),
		CategoryID:  meta.CategoryID,
		MediaType:   string(meta.MediaType),
		IsPublic:    meta.IsPublic,
		SortMode:    string(snap.SortMode),
		Items:       items,
	}, nil
}

// Publish assembles the composition and submits it with the user's token.
// Invalid input fails with a validation error before anything is sent; a
// backend failure comes back as a publication error. The composition is only
// read, so a failed attempt can be retried as is.
func (a *Assembler) Publish(ctx context.Context, token string, comp Composition, meta Metadata) (Result, error) {
	req, err := a.Assemble(comp, meta)
	if err != nil {
		return Result{}, err
	}

	rankingID, err := a.creator.CreateRankingWithItems(ctx, token, req)
	if err != nil {
		a.logger.Warn().Err(err).
			Str("title", req.Title).
			Int("items", len(req.Items)).
			Msg("Ranking publication failed")
		return Result{}, apperr.Publication(err, "ranking could not be published, try again")
	}

	a.logger.Info().
		Str("rankingId", rankingID).
		Str("sortMode", req.SortMode).
		Int("items", len(req.Items)).
		Msg("Ranking published")

	return Result{RankingID: rankingID, ItemCount: len(req.Items)}, nil
}

func (a *Assembler) validate(meta Metadata, count int) error {
	fields := map[string]string{}

	if err := a.validator.Validate(meta); err != nil {
		appErr, ok := apperr.As(err)
		if !ok {
			return err
		}
		maps.Copy(fields, appErr.Fields)
	}
	if count < MinItems {
		fields["items"] = "at least 3 items are required"
	}

	if len(fields) > 0 {
		return apperr.ValidationWithFields("ranking is not ready to publish", fields)
	}
	return nil
}
