// Package media defines the normalized catalog entry shared by both providers.
package media

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Type identifies the kind of media an entry describes.
type Type string

const (
	TypeMovie  Type = "movie"
	TypeSeries Type = "series"
	TypeBook   Type = "book"
)

// Source identifies the catalog provider an entry came from.
type Source string

const (
	SourceTMDB        Source = "tmdb"
	SourceGoogleBooks Source = "google_books"
)

var (
	ErrUnknownType   = errors.New("unknown media type")
	ErrUnknownSource = errors.New("unknown media source")
	ErrShapeMismatch = errors.New("media details do not match media type")
	ErrRatingRange   = errors.New("external rating must be between 0 and 10")
)

// ParseType parses a media type name.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeMovie, TypeSeries, TypeBook:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// ParseSource parses a provider name.
func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
	case SourceTMDB, SourceGoogleBooks:
		return src, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
	}
}

// IsVideo reports whether t is served by the video-media provider.
func (t Type) IsVideo() bool {
	return t == TypeMovie || t == TypeSeries
}

// SourceFor returns the provider responsible for t.
func SourceFor(t Type) (Source, error) {
	switch t {
	case TypeMovie, TypeSeries:
		return SourceTMDB, nil
	case TypeBook:
		return SourceGoogleBooks, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

// VideoDetails holds attributes only movies and series carry.
type VideoDetails struct {
	Director        string `json:"director,omitempty"`
	DurationMinutes *int   `json:"durationMinutes,omitempty"`
	SeasonsCount    *int   `json:"seasonsCount,omitempty"`
	EpisodesCount   *int   `json:"episodesCount,omitempty"`
}

// BookDetails holds attributes only books carry.
type BookDetails struct {
	Author    string `json:"author,omitempty"`
	ISBN      string `json:"isbn,omitempty"`
	PageCount *int   `json:"pageCount,omitempty"`
	Publisher string `json:"publisher,omitempty"`
}

// SearchResult is a catalog entry normalized from either provider. Exactly one
// of Video and Book may be set, selected by Type.
type SearchResult struct {
	ExternalID     string        `json:"externalId"`
	ExternalSource Source        `json:"externalSource"`
	Title          string        `json:"title"`
	OriginalTitle  string        `json:"originalTitle,omitempty"`
	Description    string        `json:"description,omitempty"`
	CoverImageURL  string        `json:"coverImageUrl,omitempty"`
	ReleaseYear    *int          `json:"releaseYear,omitempty"`
	Type           Type          `json:"type"`
	Video          *VideoDetails `json:"video,omitempty"`
	Book           *BookDetails  `json:"book,omitempty"`
	Genres         []string      `json:"genres,omitempty"`
	ExternalRating *float64      `json:"externalRating,omitempty"`
	Language       string        `json:"language,omitempty"`
	Country        string        `json:"country,omitempty"`
}

// Validate checks that the populated payload matches Type and Source.
func (r *SearchResult) Validate() error {
	expected, err := SourceFor(r.Type)
	if err != nil {
		return err
	}
	if r.ExternalSource != expected {
		return fmt.Errorf("%w: %s entry from %s", ErrShapeMismatch, r.Type, r.ExternalSource)
	}

	switch r.Type {
	case TypeMovie:
		if r.Book != nil {
			return fmt.Errorf("%w: movie carries book details", ErrShapeMismatch)
		}
		if r.Video != nil && (r.Video.SeasonsCount != nil || r.Video.EpisodesCount != nil) {
			return fmt.Errorf("%w: movie carries season counts", ErrShapeMismatch)
		}
	case TypeSeries:
		if r.Book != nil {
			return fmt.Errorf("%w: series carries book details", ErrShapeMismatch)
		}
	case TypeBook:
		if r.Video != nil {
			return fmt.Errorf("%w: book carries video details", ErrShapeMismatch)
		}
	}

	if r.ExternalRating != nil && (*r.ExternalRating < 0 || *r.ExternalRating > 10) {
		return ErrRatingRange
	}
	return nil
}

// Key returns an identifier unique across providers.
func (r *SearchResult) Key() string {
	return string(r.ExternalSource) + ":" + r.ExternalID
}

// LinkURL returns the provider page for the entry.
func (r *SearchResult) LinkURL() string {
	if r.ExternalID == "" {
		return ""
	}
	switch r.Type {
	case TypeMovie:
		return "https://www.themoviedb.org/movie/" + url.PathEscape(r.ExternalID)
	case TypeSeries:
		return "https://www.themoviedb.org/tv/" + url.PathEscape(r.ExternalID)
	case TypeBook:
		return "https://books.google.com/books?id=" + url.QueryEscape(r.ExternalID)
	default:
		return ""
	}
}
