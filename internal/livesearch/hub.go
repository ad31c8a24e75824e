// Package livesearch serves search-as-you-type over a WebSocket. Every
// connection debounces its own keystrokes and only ever delivers the
// results of its latest settled query.
package livesearch

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/toplist/toplist/internal/backend"
	"github.com/toplist/toplist/internal/debounce"
	"github.com/toplist/toplist/internal/media"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MediaSearcher looks media up in the catalogs.
type MediaSearcher interface {
	Search(ctx context.Context, query string, mediaType media.Type) ([]media.SearchResult, error)
}

// ProfileSearcher looks user profiles up.
type ProfileSearcher interface {
	SearchProfiles(ctx context.Context, query string, limit int) ([]backend.Profile, error)
}

// Option configures a Hub.
type Option func(*Hub)

// WithWindow sets the quiescence window of every connection.
func WithWindow(window time.Duration) Option {
	return func(h *Hub) {
		h.window = window
	}
}

// WithClock replaces the wall clock.
func WithClock(clock clockwork.Clock) Option {
	return func(h *Hub) {
		h.clock = clock
	}
}

// WithMinQueryLength sets the shortest user query sent to the backend.
func WithMinQueryLength(n int) Option {
	return func(h *Hub) {
		h.minQueryLength = n
	}
}

// incomingMessage wraps a message from a client.
type incomingMessage struct {
	client  *Client
	message []byte
}

// Hub tracks live search connections.
type Hub struct {
	media          MediaSearcher
	profiles       ProfileSearcher
	window         time.Duration
	minQueryLength int
	clock          clockwork.Clock
	logger         zerolog.Logger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	incoming   chan incomingMessage
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub answering with the given searchers.
func NewHub(mediaSearcher MediaSearcher, profileSearcher ProfileSearcher, logger zerolog.Logger, opts ...Option) *Hub {
	h := &Hub{
		media:          mediaSearcher,
		profiles:       profileSearcher,
		window:         debounce.DefaultWindow,
		minQueryLength: 2,
		clock:          clockwork.NewRealClock(),
		logger:         logger.With().Str("component", "livesearch").Logger(),
		clients:        make(map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		incoming:       make(chan incomingMessage, 256),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's main loop. It returns when ctx is done, after
// closing every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()

		case incoming := <-h.incoming:
			h.handleIncoming(incoming)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			return
		}
	}
}

// handleIncoming processes messages received from clients.
func (h *Hub) handleIncoming(incoming incomingMessage) {
	var msg inboundMessage
	if err := json.Unmarshal(incoming.message, &msg); err != nil {
		incoming.client.sendMessage(TypeError, ErrorPayload{Message: "malformed message"})
		return
	}

	switch msg.Type {
	case TypeQuery:
		var q Query
		if err := json.Unmarshal(msg.Payload, &q); err != nil {
			incoming.client.sendMessage(TypeError, ErrorPayload{Message: "malformed query"})
			return
		}
		if !q.Kind.valid() {
			incoming.client.sendMessage(TypeError, ErrorPayload{Message: "unknown search kind " + string(q.Kind)})
			return
		}
		incoming.client.debouncer.Push(q)

	default:
		h.logger.Debug().Str("type", msg.Type).Msg("Ignoring unknown message type")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles WebSocket connection upgrade.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newClient(h, conn)
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
		return conn.Close()
	}

	go client.writePump()
	go client.readPump()

	return nil
}

// encode builds a wire message stamped with the hub clock.
func (h *Hub) encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: h.clock.Now().UTC().Format(time.RFC3339Nano),
	})
}
