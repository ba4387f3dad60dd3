package sse

import (
	"path/filepath"
	"sync"

	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/notify"
)

const clientBuffer = 256

// Client represents a connected SSE client.
type Client struct {
	id       string
	metadata map[string]string
	events   chan []byte
	log      *logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMetadata adds a metadata key-value pair to the client.
func WithMetadata(key, value string) ClientOption {
	return func(c *Client) {
		c.metadata[key] = value
	}
}

// NewClient creates a new SSE client.
func NewClient(id string, opts ...ClientOption) *Client {
	c := &Client{
		id:       id,
		metadata: make(map[string]string),
		events:   make(chan []byte, clientBuffer),
		log:      logger.Get("sse"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the client's identifier.
func (c *Client) ID() string { return c.id }

// Metadata returns all client metadata.
func (c *Client) Metadata() map[string]string { return c.metadata }

// Events returns the channel of encoded frames for this client.
func (c *Client) Events() <-chan []byte { return c.events }

// Send queues a frame. Returns false if the client is too slow and the
// frame was dropped.
func (c *Client) Send(frame []byte) bool {
	select {
	case c.events <- frame:
		return true
	default:
		c.log.Warn("client channel full, dropping frame", logger.Fields("client_id", c.id))
		return false
	}
}

// Close closes the client's event channel.
func (c *Client) Close() {
	close(c.events)
}

// Message is a frame routed to clients whose ID matches Pattern.
type Message struct {
	Pattern string
	Data    []byte
}

// Hub manages SSE clients and routes frames to them.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
	log        *logger.Logger
}

var _ notify.Sink = (*Hub)(nil)

// NewHub creates a new SSE hub. Run must be called to start routing.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, clientBuffer),
		done:       make(chan struct{}),
		log:        logger.Get("sse"),
	}
}

// Run is the hub's event loop. It blocks until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.id]; ok {
				old.Close()
			}
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client_id", client.id, "total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.id]; ok && cur == client {
				delete(h.clients, client.id)
				client.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client_id", client.id, "total_clients", total))

		case msg := <-h.broadcast:
			h.broadcastWithPattern(msg.Pattern, msg.Data)
		}
	}
}

// Stop shuts the hub down, closing every client. Safe to call multiple times.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.Close()
		delete(h.clients, id)
	}
	h.log.Debug("all clients closed during shutdown")
}

// Register adds a client to the hub. It returns false if the hub has
// stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToPattern routes data to every client whose ID matches the
// glob pattern. It never blocks: when the hub is stopped or backed up the
// frame is dropped.
func (h *Hub) BroadcastToPattern(pattern string, data []byte) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.broadcast <- &Message{Pattern: pattern, Data: data}:
	default:
		h.log.Warn("broadcast queue full, dropping frame", logger.Fields("pattern", pattern))
	}
}

// Notify implements notify.Sink.
func (h *Hub) Notify(ev notify.Event) {
	frame, err := EventFrame(ev)
	if err != nil {
		h.log.Error("encode event", logger.ErrorFields("sse.notify", err))
		return
	}
	for _, pattern := range patternsFor(ev) {
		h.BroadcastToPattern(pattern, frame)
	}
}

func (h *Hub) broadcastWithPattern(pattern string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	matchCount := 0
	for clientID, client := range h.clients {
		matched, err := filepath.Match(pattern, clientID)
		if err != nil {
			h.log.Error("pattern match error", logger.Fields("pattern", pattern, logger.FieldError, err.Error()))
			return
		}
		if matched && client.Send(data) {
			matchCount++
		}
	}
	h.log.Debug("broadcast sent", logger.Fields("pattern", pattern, "match_count", matchCount, "data_size", len(data)))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ClientIDs returns the IDs of all connected clients.
func (h *Hub) ClientIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}
