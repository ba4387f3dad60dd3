package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/walletkit/notify"
	"github.com/kbukum/walletkit/wallet"
)

// Infrastructure event names. Session events use their notify.Type.
const (
	EventTypeConnected = "connected"
	EventTypeKeepAlive = "keepalive"
)

// AllPrefix is the client ID prefix that receives events of every kind.
const AllPrefix = "all"

// NewClientID returns a client ID subscribed to kind, or to all kinds when
// kind is empty.
func NewClientID(kind wallet.Kind) string {
	prefix := string(kind)
	if prefix == "" {
		prefix = AllPrefix
	}
	return prefix + ":" + uuid.NewString()
}

// KindOf returns the kind a client ID subscribes to; empty for "all".
func KindOf(clientID string) wallet.Kind {
	prefix, _, _ := strings.Cut(clientID, ":")
	if prefix == AllPrefix {
		return ""
	}
	return wallet.Kind(prefix)
}

// Frame encodes one SSE frame. The payload is JSON encoded on a single
// data line.
func Frame(event, id string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if id != "" {
		fmt.Fprintf(&b, "id: %s\n", id)
	}
	fmt.Fprintf(&b, "event: %s\ndata: %s\n\n", event, data)
	return b.Bytes(), nil
}

// EventFrame encodes a session event.
func EventFrame(ev notify.Event) ([]byte, error) {
	return Frame(string(ev.Type), ev.ID, ev)
}

// patternsFor returns the client patterns that should see an event.
func patternsFor(ev notify.Event) []string {
	patterns := []string{AllPrefix + ":*"}
	if ev.Kind != "" {
		patterns = append(patterns, string(ev.Kind)+":*")
	}
	return patterns
}
