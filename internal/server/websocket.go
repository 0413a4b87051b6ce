package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jianghu-duel/duel-server-go/internal/config"
	apperrors "github.com/jianghu-duel/duel-server-go/internal/errors"
	"github.com/jianghu-duel/duel-server-go/internal/game"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/jianghu-duel/duel-server-go/internal/match"
	"go.uber.org/zap"
)

const (
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Message types exchanged over the socket.
const (
	MessageSnapshot = "snapshot"
	MessageUpdate   = "update"
	MessageError    = "error"
	MessagePlayCard = "play_card"
	MessagePassTurn = "pass_turn"
)

// WSMessage is the envelope of every socket frame. Outbound updates carry
// the version, checksum, patches and new events of one committed action.
type WSMessage struct {
	Type       string            `json:"type"`
	MatchID    string            `json:"matchId,omitempty"`
	Version    int               `json:"version,omitempty"`
	Checksum   string            `json:"checksum,omitempty"`
	Patches    []game.Patch      `json:"patches,omitempty"`
	Events     []state.GameEvent `json:"events,omitempty"`
	State      *state.GameState  `json:"state,omitempty"`
	UserID     string            `json:"userId,omitempty"`
	InstanceID string            `json:"instanceId,omitempty"`
	Code       string            `json:"code,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Client is one socket subscribed to one match.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	matchID string
	send    chan []byte
	// since is the snapshot version; owned by the hub goroutine.
	since  int
	mu     sync.Mutex
	closed bool
}

func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub fans committed match updates out to the sockets watching each match.
// It implements match.Notifier.
type Hub struct {
	logger     *zap.Logger
	cfg        config.WebSocketConfig
	matches    *match.Manager
	upgrader   websocket.Upgrader
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan match.Update
	done       chan struct{}
}

var _ match.Notifier = (*Hub)(nil)

// NewHub creates a hub. Call Run before serving connections.
func NewHub(cfg config.WebSocketConfig, matches *match.Manager, logger *zap.Logger) *Hub {
	h := &Hub{
		logger:     logger,
		cfg:        cfg,
		matches:    matches,
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan match.Update, sendBuffer),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Run owns the subscriber table until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, watchers := range h.clients {
				for client := range watchers {
					client.close()
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			return

		case client := <-h.register:
			h.subscribe(ctx, client)

		case client := <-h.unregister:
			if watchers, ok := h.clients[client.matchID]; ok && watchers[client] {
				delete(watchers, client)
				if len(watchers) == 0 {
					delete(h.clients, client.matchID)
				}
				client.close()
				h.logger.Debug("websocket client unregistered", zap.String("match_id", client.matchID))
			}

		case update := <-h.broadcast:
			msg, err := json.Marshal(WSMessage{
				Type:     MessageUpdate,
				MatchID:  update.MatchID,
				Version:  update.Version,
				Checksum: update.Checksum,
				Patches:  update.Patches,
				Events:   update.Events,
			})
			if err != nil {
				h.logger.Error("failed to encode match update", zap.Error(err))
				continue
			}
			for client := range h.clients[update.MatchID] {
				if update.Version <= client.since {
					continue
				}
				if !client.enqueue(msg) {
					// Slow or gone; the client resyncs through GetMatchDiff or a new socket.
					delete(h.clients[update.MatchID], client)
					client.close()
				}
			}
		}
	}
}

// subscribe queues the snapshot and adds the client in one step of the hub
// loop, so every update committed after the snapshot reaches the client and
// every update already folded into it is skipped.
func (h *Hub) subscribe(ctx context.Context, client *Client) {
	m, err := h.matches.Get(ctx, client.matchID)
	if err != nil {
		h.logger.Warn("failed to load match snapshot",
			zap.String("match_id", client.matchID),
			zap.Error(err),
		)
		client.sendJSON(WSMessage{
			Type:    MessageError,
			MatchID: client.matchID,
			Code:    string(apperrors.GetCode(err)),
			Error:   err.Error(),
		})
		client.close()
		return
	}

	snapshot := WSMessage{Type: MessageSnapshot, MatchID: m.ID, State: m.State}
	if m.State != nil {
		snapshot.Version = m.State.Version
		snapshot.Checksum = game.Checksum(m.State)
	}
	client.since = snapshot.Version
	client.sendJSON(snapshot)

	watchers, ok := h.clients[client.matchID]
	if !ok {
		watchers = make(map[*Client]bool)
		h.clients[client.matchID] = watchers
	}
	watchers[client] = true
	h.logger.Debug("websocket client registered",
		zap.String("match_id", client.matchID),
		zap.Int("version", snapshot.Version),
		zap.Int("watchers", len(watchers)),
	)
}

// Publish queues an update for the match's watchers.
func (h *Hub) Publish(update match.Update) {
	select {
	case h.broadcast <- update:
	case <-h.done:
	}
}

// ServeHTTP upgrades /ws?match=<id> and subscribes the socket to the match.
// The hub sends the snapshot when it registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("match")
	if matchID == "" {
		http.Error(w, "match query parameter is required", http.StatusBadRequest)
		return
	}
	if _, err := h.matches.Get(r.Context(), matchID); err != nil {
		if apperrors.IsCode(err, apperrors.CodeMatchNotFound) {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load match for websocket", zap.String("match_id", matchID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		matchID: matchID,
		send:    make(chan []byte, sendBuffer),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) sendJSON(msg WSMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("failed to encode websocket message", zap.Error(err))
		return
	}
	c.enqueue(raw)
}

func (c *Client) pongWait() time.Duration {
	if c.hub.cfg.PingInterval <= 0 {
		return 0
	}
	return c.hub.cfg.PingInterval * 2
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if wait := c.pongWait(); wait > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(wait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendJSON(WSMessage{Type: MessageError, Code: string(apperrors.CodeInvalidArgument), Error: "malformed message"})
			continue
		}
		c.handle(msg)
	}
}

// handle runs a player action sent over the socket. The resulting update
// reaches every watcher through the hub.
func (c *Client) handle(msg WSMessage) {
	ctx := context.Background()
	var err error
	switch msg.Type {
	case MessagePlayCard:
		_, err = c.hub.matches.PlayCard(ctx, c.matchID, msg.UserID, msg.InstanceID)
	case MessagePassTurn:
		_, err = c.hub.matches.PassTurn(ctx, c.matchID, msg.UserID)
	default:
		err = apperrors.Newf(apperrors.CodeInvalidArgument, "unknown message type %q", msg.Type)
	}
	if err != nil {
		c.sendJSON(WSMessage{
			Type:    MessageError,
			MatchID: c.matchID,
			Code:    string(apperrors.GetCode(err)),
			Error:   err.Error(),
		})
	}
}

func (c *Client) writePump() {
	var ping <-chan time.Time
	if c.hub.cfg.PingInterval > 0 {
		ticker := time.NewTicker(c.hub.cfg.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer c.conn.Close()

	for {
		select {
		case message, ok := <-c.send:
			c.setWriteDeadline()
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ping:
			c.setWriteDeadline()
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) setWriteDeadline() {
	if c.hub.cfg.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
	}
}

// NewWebSocketServer returns the HTTP server exposing the hub at cfg.Path.
func NewWebSocketServer(cfg config.WebSocketConfig, hub *Hub) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, hub)
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
