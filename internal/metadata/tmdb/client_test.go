package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/toplist/toplist/internal/config"
)

func newTestClient(server *httptest.Server) *Client {
	cfg := config.TMDBConfig{
		APIKey:       "test-api-key",
		BaseURL:      server.URL,
		ImageBaseURL: "https://image.tmdb.org/t/p",
		Timeout:      5,
	}
	return NewClient(cfg, zerolog.Nop())
}

func strPtr(s string) *string { return &s }

func TestClient_Name(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())
	if client.Name() != "tmdb" {
		t.Errorf("Name() = %q, want %q", client.Name(), "tmdb")
	}
}

func TestClient_IsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		want   bool
	}{
		{"with key", "abc123", true},
		{"without key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(config.TMDBConfig{APIKey: tt.apiKey}, zerolog.Nop())
			if got := client.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_SearchMovies_KeepsProviderOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if q := r.URL.Query().Get("query"); q != "Matrix" {
			t.Errorf("unexpected query: %s", q)
		}
		if key := r.URL.Query().Get("api_key"); key != "test-api-key" {
			t.Errorf("unexpected api_key: %s", key)
		}

		// Low-vote entry first: the client must not re-rank.
		json.NewEncoder(w).Encode(SearchMoviesResponse{
			Results: []MovieResult{
				{ID: 604, Title: "The Matrix Reloaded", ReleaseDate: "2003-05-15", VoteCount: 10},
				{
					ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", VoteCount: 25000,
					VoteAverage: 8.2, GenreIDs: []int{28, 878}, PosterPath: strPtr("/m.jpg"),
					OriginalLanguage: "en",
				},
			},
		})
	}))
	defer server.Close()

	results, err := newTestClient(server).SearchMovies(context.Background(), "Matrix")
	if err != nil {
		t.Fatalf("SearchMovies() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("SearchMovies() returned %d results, want 2", len(results))
	}
	if results[0].ID != 604 || results[1].ID != 603 {
		t.Errorf("order = [%d %d], want [604 603]", results[0].ID, results[1].ID)
	}

	m := results[1]
	if m.Year != 1999 {
		t.Errorf("Year = %d, want 1999", m.Year)
	}
	if m.PosterURL != "https://image.tmdb.org/t/p/w500/m.jpg" {
		t.Errorf("PosterURL = %q", m.PosterURL)
	}
	if len(m.Genres) != 2 || m.Genres[0] != "Action" || m.Genres[1] != "Science Fiction" {
		t.Errorf("Genres = %v", m.Genres)
	}
	if m.Rating != 8.2 {
		t.Errorf("Rating = %v, want 8.2", m.Rating)
	}
}

func TestClient_SearchSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(SearchTVResponse{
			Results: []TVResult{
				{ID: 1396, Name: "Breaking Bad", FirstAirDate: "2008-01-20", OriginCountry: []string{"US"}, GenreIDs: []int{18, 80}},
			},
		})
	}))
	defer server.Close()

	results, err := newTestClient(server).SearchSeries(context.Background(), "Breaking")
	if err != nil {
		t.Fatalf("SearchSeries() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("SearchSeries() returned %d results, want 1", len(results))
	}
	if results[0].Title != "Breaking Bad" || results[0].Year != 2008 || results[0].Country != "US" {
		t.Errorf("unexpected result: %+v", results[0])
	}
}

func TestClient_GetMovie_ExtractsDirector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("append_to_response"); got != "credits" {
			t.Errorf("append_to_response = %q, want credits", got)
		}
		json.NewEncoder(w).Encode(MovieDetails{
			ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", Runtime: 136,
			Genres:              []Genre{{ID: 28, Name: "Action"}},
			ProductionCountries: []ProductionCountry{{ISO31661: "US", Name: "United States of America"}},
			Credits: &Credits{Crew: []CrewMember{
				{Name: "Bill Pope", Job: "Director of Photography"},
				{Name: "Lana Wachowski", Job: "Director"},
			}},
		})
	}))
	defer server.Close()

	movie, err := newTestClient(server).GetMovie(context.Background(), 603)
	if err != nil {
		t.Fatalf("GetMovie() error = %v", err)
	}
	if movie.Director != "Lana Wachowski" {
		t.Errorf("Director = %q, want %q", movie.Director, "Lana Wachowski")
	}
	if movie.Runtime != 136 {
		t.Errorf("Runtime = %d, want 136", movie.Runtime)
	}
	if movie.Country != "US" {
		t.Errorf("Country = %q, want US", movie.Country)
	}
}

func TestClient_GetSeries_Counts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TVDetails{
			ID: 1396, Name: "Breaking Bad", FirstAirDate: "2008-01-20",
			NumberOfSeasons: 5, NumberOfEpisodes: 62, EpisodeRunTime: []int{47},
			CreatedBy: []TVCreator{{Name: "Vince Gilligan"}},
		})
	}))
	defer server.Close()

	series, err := newTestClient(server).GetSeries(context.Background(), 1396)
	if err != nil {
		t.Fatalf("GetSeries() error = %v", err)
	}
	if series.SeasonsCount != 5 || series.EpisodesCount != 62 {
		t.Errorf("counts = %d/%d, want 5/62", series.SeasonsCount, series.EpisodesCount)
	}
	if series.Creator != "Vince Gilligan" || series.Runtime != 47 {
		t.Errorf("unexpected series: %+v", series)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, ErrAPIError},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(ErrorResponse{StatusCode: 7, StatusMessage: "nope"})
			}))
			defer server.Close()

			_, err := newTestClient(server).SearchMovies(context.Background(), "x")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())

	if _, err := client.SearchMovies(context.Background(), "x"); !errors.Is(err, ErrAPIKeyMissing) {
		t.Errorf("SearchMovies() error = %v, want ErrAPIKeyMissing", err)
	}
	if err := client.Test(context.Background()); !errors.Is(err, ErrAPIKeyMissing) {
		t.Errorf("Test() error = %v, want ErrAPIKeyMissing", err)
	}
}

func TestParseYear(t *testing.T) {
	tests := map[string]int{
		"1999-03-30": 1999,
		"":           0,
		"19":         0,
		"abcd-01-01": 0,
	}
	for in, want := range tests {
		if got := parseYear(in); got != want {
			t.Errorf("parseYear(%q) = %d, want %d", in, got, want)
		}
	}
}
