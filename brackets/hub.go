package brackets

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Event is a live update pushed to clients watching one tournament.
type Event struct {
	Type         string      `json:"type"` // e.g. MATCH_COMPLETED, STATUS_CHANGED
	TournamentID int         `json:"tournament_id"`
	Payload      interface{} `json:"payload,omitempty"`
}

// Client is one websocket subscriber, attached to a tournament room.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	room   string
	closed bool
	mu     sync.Mutex
}

// Hub fans live bracket events out to websocket clients, one room per
// tournament id. It is the in-process half of the notification surface;
// delivery is best effort and clients that fall behind are dropped.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	events     chan Event
	rooms      map[string]map[*Client]bool
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan Event, 64),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until the context is
// cancelled, then closes every remaining client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for room, clients := range h.rooms {
				for client := range clients {
					client.close()
				}
				delete(h.rooms, room)
			}
			return

		case client := <-h.register:
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true

		case client := <-h.unregister:
			if clients, ok := h.rooms[client.room]; ok {
				if _, known := clients[client]; known {
					client.close()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}

		case ev := <-h.events:
			room := strconv.Itoa(ev.TournamentID)
			clients, ok := h.rooms[room]
			if !ok {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("failed to marshal hub event", slog.Any("error", err))
				continue
			}
			for client := range clients {
				select {
				case client.send <- data:
				default:
					client.close()
					delete(clients, client)
				}
			}
		}
	}
}

// Publish queues an event for broadcast. It never blocks the caller: if the
// hub's buffer is full the event is dropped.
func (h *Hub) Publish(ev Event) {
	select {
	case h.events <- ev:
	default:
		h.logger.Warn("hub event buffer full, dropping event",
			slog.String("type", ev.Type), slog.Int("tournament_id", ev.TournamentID))
	}
}

// Subscribe attaches a websocket connection to a tournament room and starts
// its read/write pumps.
func (h *Hub) Subscribe(conn *websocket.Conn, tournamentID int) {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 16),
		room: strconv.Itoa(tournamentID),
	}
	h.register <- client
	go client.writePump()
	go client.readPump()
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// Clients only listen; any read error means the peer is gone.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

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
