package livesearch

import (
	"encoding/json"

	"github.com/toplist/toplist/internal/backend"
	"github.com/toplist/toplist/internal/media"
)

// Message types.
const (
	TypeQuery   = "search:query"
	TypeResults = "search:results"
	TypeError   = "search:error"
)

// Kind selects what a query searches.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
	KindBook   Kind = "book"
	KindUser   Kind = "user"
)

func (k Kind) valid() bool {
	switch k {
	case KindMovie, KindSeries, KindBook, KindUser:
		return true
	default:
		return false
	}
}

// Message is the envelope of every message sent to a client.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Query is one keystroke's worth of search input.
type Query struct {
	Kind  Kind   `json:"kind"`
	Query string `json:"query"`
}

// ResultsPayload answers a settled query. Failed is set when the provider
// could not be reached; the result lists are then empty.
type ResultsPayload struct {
	Kind     Kind                 `json:"kind"`
	Query    string               `json:"query"`
	Results  []media.SearchResult `json:"results"`
	Profiles []backend.Profile    `json:"profiles,omitempty"`
	Failed   bool                 `json:"failed,omitempty"`
	Message  string               `json:"message,omitempty"`
}

// ErrorPayload reports a message the hub could not understand.
type ErrorPayload struct {
	Message string `json:"message"`
}
