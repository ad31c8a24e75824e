package metadata

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/toplist/toplist/internal/media"
	"github.com/toplist/toplist/internal/metadata/googlebooks"
	"github.com/toplist/toplist/internal/metadata/tmdb"
)

func movieToResult(m *tmdb.NormalizedMovieResult) media.SearchResult {
	result := media.SearchResult{
		ExternalID:     strconv.Itoa(m.ID),
		ExternalSource: media.SourceTMDB,
		Type:           media.TypeMovie,
		Title:          m.Title,
		OriginalTitle:  originalTitle(m.Title, m.OriginalTitle),
		Description:    m.Overview,
		CoverImageURL:  m.PosterURL,
		ReleaseYear:    positive(m.Year),
		Genres:         m.Genres,
		ExternalRating: tmdbRating(m.Rating, m.VoteCount),
		Language:       canonicalLanguage(m.Language),
		Country:        canonicalCountry(m.Country),
	}

	video := media.VideoDetails{
		Director:        m.Director,
		DurationMinutes: positive(m.Runtime),
	}
	if video != (media.VideoDetails{}) {
		result.Video = &video
	}

	return result
}

// Series have creators rather than directors; the creator fills Director.
func seriesToResult(s *tmdb.NormalizedSeriesResult) media.SearchResult {
	result := media.SearchResult{
		ExternalID:     strconv.Itoa(s.ID),
		ExternalSource: media.SourceTMDB,
		Type:           media.TypeSeries,
		Title:          s.Title,
		OriginalTitle:  originalTitle(s.Title, s.OriginalTitle),
		Description:    s.Overview,
		CoverImageURL:  s.PosterURL,
		ReleaseYear:    positive(s.Year),
		Genres:         s.Genres,
		ExternalRating: tmdbRating(s.Rating, s.VoteCount),
		Language:       canonicalLanguage(s.Language),
		Country:        canonicalCountry(s.Country),
	}

	video := media.VideoDetails{
		Director:        s.Creator,
		DurationMinutes: positive(s.Runtime),
		SeasonsCount:    positive(s.SeasonsCount),
		EpisodesCount:   positive(s.EpisodesCount),
	}
	if video != (media.VideoDetails{}) {
		result.Video = &video
	}

	return result
}

func bookToResult(b *googlebooks.NormalizedBookResult) media.SearchResult {
	result := media.SearchResult{
		ExternalID:     b.ID,
		ExternalSource: media.SourceGoogleBooks,
		Type:           media.TypeBook,
		Title:          b.Title,
		Description:    b.Description,
		CoverImageURL:  b.CoverURL,
		ReleaseYear:    positive(b.Year),
		Genres:         b.Categories,
		Language:       canonicalLanguage(b.Language),
	}

	// Google rates 0-5.
	if b.Rating > 0 {
		rating := b.Rating * 2
		result.ExternalRating = &rating
	}

	book := media.BookDetails{
		Author:    strings.Join(b.Authors, ", "),
		ISBN:      b.ISBN,
		PageCount: positive(b.PageCount),
		Publisher: b.Publisher,
	}
	if book != (media.BookDetails{}) {
		result.Book = &book
	}

	return result
}

// TMDB reports 0.0 for titles nobody has voted on.
func tmdbRating(avg float64, votes int) *float64 {
	if votes == 0 || avg <= 0 {
		return nil
	}
	rating := min(avg, 10)
	return &rating
}

func originalTitle(title, original string) string {
	if original == "" || original == title {
		return ""
	}
	return original
}

func positive(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

// canonicalLanguage reduces a BCP 47 tag ("en-US", "pt_BR") to its base
// language; unknown codes such as TMDB's "xx" become empty.
func canonicalLanguage(code string) string {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}

func canonicalCountry(code string) string {
	if code == "" {
		return ""
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return ""
	}
	return region.String()
}
