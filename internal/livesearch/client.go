package livesearch

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/toplist/toplist/internal/debounce"
	"github.com/toplist/toplist/internal/media"
)

const profileLimit = 20

// Client is one live search connection.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	debouncer *debounce.Debouncer[Query]
	seq       debounce.Sequence

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
	c.debouncer = debounce.New(h.window, c.search, debounce.WithClock(h.clock))
	return c
}

// search runs a settled query. Its answer is dropped if a newer query
// settled while it was in flight.
func (c *Client) search(q Query) {
	token := c.seq.Next()
	payload := c.hub.run(c.ctx, q)

	if !c.seq.IsCurrent(token) {
		c.hub.logger.Debug().
			Str("kind", string(q.Kind)).
			Str("query", q.Query).
			Msg("Dropping stale search results")
		return
	}
	c.sendMessage(TypeResults, payload)
}

func (h *Hub) run(ctx context.Context, q Query) ResultsPayload {
	payload := ResultsPayload{Kind: q.Kind, Query: q.Query, Results: []media.SearchResult{}}

	if q.Kind == KindUser {
		query := strings.TrimSpace(q.Query)
		if utf8.RuneCountInString(query) < h.minQueryLength {
			return payload
		}
		profiles, err := h.profiles.SearchProfiles(ctx, query, profileLimit)
		if err != nil {
			h.logger.Warn().Err(err).Str("query", query).Msg("User search failed")
			payload.Failed = true
			payload.Message = "search is unavailable right now, try again"
			return payload
		}
		payload.Profiles = profiles
		return payload
	}

	results, err := h.media.Search(ctx, q.Query, media.Type(q.Kind))
	if err != nil {
		payload.Failed = true
		payload.Message = "search is unavailable right now, try again"
		return payload
	}
	payload.Results = results
	return payload
}

// sendMessage queues a message, dropping it if the client is gone or too
// slow to keep up.
func (c *Client) sendMessage(msgType string, payload any) {
	data, err := c.hub.encode(msgType, payload)
	if err != nil {
		c.hub.logger.Error().Err(err).Str("type", msgType).Msg("Failed to encode message")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn().Msg("Live search client too slow, dropping message")
	}
}

// close stops pending and in-flight searches and ends the write pump.
func (c *Client) close() {
	c.debouncer.Stop()
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.debouncer.Stop()
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Msg("Live search connection closed")
			}
			break
		}

		select {
		case c.hub.incoming <- incomingMessage{client: c, message: message}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
