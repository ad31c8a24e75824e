// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/toplist/toplist/internal/media"
)

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NopLogger returns a no-op logger for tests that don't need output.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// IntPtr returns a pointer to an int.
func IntPtr(i int) *int {
	return &i
}

// Movie returns a movie search result. A zero year leaves the release year
// unknown.
func Movie(id int, title string, year int) media.SearchResult {
	r := media.SearchResult{
		ExternalID:     strconv.Itoa(id),
		ExternalSource: media.SourceTMDB,
		Title:          title,
		Type:           media.TypeMovie,
		Video:          &media.VideoDetails{},
	}
	if year > 0 {
		r.ReleaseYear = IntPtr(year)
	}
	return r
}

// Book returns a book search result.
func Book(id, title, author string) media.SearchResult {
	return media.SearchResult{
		ExternalID:     id,
		ExternalSource: media.SourceGoogleBooks,
		Title:          title,
		Type:           media.TypeBook,
		Book:           &media.BookDetails{Author: author},
	}
}

// SignToken returns an HS256 access token for user expiring at expiresAt.
// The backend client only reads the claims, so any key works.
func SignToken(t *testing.T, user string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}
