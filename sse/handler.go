package sse

import (
	"net/http"
	"time"

	"github.com/kbukum/walletkit/logger"
)

// KeepAliveInterval is how often idle streams receive a comment line.
var KeepAliveInterval = 30 * time.Second

// ConnectedEvent is the first frame a client receives.
type ConnectedEvent struct {
	ClientID string            `json:"client_id"`
	Kind     string            `json:"kind,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Session  any               `json:"session,omitempty"`
}

// StreamOption configures a single stream.
type StreamOption func(*stream)

type stream struct {
	client  []ClientOption
	session func() any
}

// WithClientOptions passes options to the registered Client.
func WithClientOptions(opts ...ClientOption) StreamOption {
	return func(s *stream) { s.client = append(s.client, opts...) }
}

// WithSession includes the value returned by fn in the connected frame,
// typically the current session snapshot.
func WithSession(fn func() any) StreamOption {
	return func(s *stream) { s.session = fn }
}

// ServeSSE streams events for clientID until the request ends or the hub
// stops.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, clientID string, opts ...StreamOption) {
	log := logger.Get("sse").WithFields(logger.Fields("client_id", clientID))

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var s stream
	for _, opt := range opts {
		opt(&s)
	}

	// Long-lived stream; the server's WriteTimeout must not apply.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Warn("could not disable write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	client := NewClient(clientID, s.client...)
	if !hub.Register(client) {
		http.Error(w, "event stream closed", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	hello := ConnectedEvent{
		ClientID: clientID,
		Kind:     string(KindOf(clientID)),
		Metadata: client.Metadata(),
	}
	if s.session != nil {
		hello.Session = s.session()
	}
	frame, err := Frame(EventTypeConnected, "", hello)
	if err != nil {
		log.Error("encode connected frame", logger.ErrorFields("sse.serve", err))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame)
	flusher.Flush()

	log.Debug("client connected", logger.Fields("remote_addr", r.RemoteAddr))

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("client disconnected", logger.Fields("reason", ctx.Err().Error()))
			return

		case frame, ok := <-client.Events():
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()

		case <-keepAlive.C:
			_, _ = w.Write([]byte(": " + EventTypeKeepAlive + "\n\n"))
			flusher.Flush()
		}
	}
}
