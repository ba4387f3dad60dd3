package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/walletkit/notify"
	"github.com/kbukum/walletkit/wallet"
)

const addr = wallet.Address("0x00000000000000000000000000000000000000aa")

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case frame, ok := <-c.Events():
		if !ok {
			t.Fatalf("client %s closed", c.ID())
		}
		return frame
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.ID())
		return nil
	}
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func TestClientID(t *testing.T) {
	all := NewClientID("")
	if !strings.HasPrefix(all, "all:") || KindOf(all) != "" {
		t.Errorf("unexpected all client id %q", all)
	}
	mm := NewClientID(wallet.KindInjected)
	if !strings.HasPrefix(mm, "injected:") || KindOf(mm) != wallet.KindInjected {
		t.Errorf("unexpected kind client id %q", mm)
	}
	if NewClientID("") == all {
		t.Error("expected unique ids")
	}
}

func TestFrame(t *testing.T) {
	ev := notify.WalletConnected(wallet.KindInjected, addr, 146)
	frame, err := EventFrame(ev)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(frame), "\n")
	if len(lines) != 5 || lines[3] != "" || lines[4] != "" {
		t.Fatalf("expected three lines and a blank terminator, got %q", frame)
	}
	if lines[0] != "id: "+ev.ID || lines[1] != "event: wallet.connected" {
		t.Errorf("unexpected header lines %q", lines[:2])
	}
	var got notify.Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(lines[2], "data: ")), &got); err != nil {
		t.Fatalf("data line is not json: %v", err)
	}
	if got.Address != addr || got.ChainID != 146 || got.Kind != wallet.KindInjected {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestClientSendDropsWhenFull(t *testing.T) {
	client := NewClient("all:x")
	for i := 0; i < clientBuffer; i++ {
		if !client.Send([]byte("f")) {
			t.Fatalf("send %d failed", i)
		}
	}
	if client.Send([]byte("overflow")) {
		t.Error("expected send to fail when channel is full")
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := runHub(t)
	client := NewClient("all:abc", WithMetadata("origin", "test"))

	if !hub.Register(client) {
		t.Fatal("register failed")
	}
	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	if ids := hub.ClientIDs(); len(ids) != 1 || ids[0] != "all:abc" {
		t.Errorf("unexpected ids %v", ids)
	}

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
	if _, open := <-client.Events(); open {
		t.Error("expected channel closed after unregister")
	}
}

func TestHubRoutesByKind(t *testing.T) {
	hub := runHub(t)
	all := NewClient("all:1")
	injected := NewClient("injected:1")
	wc := NewClient("walletconnect:1")
	for _, c := range []*Client{all, injected, wc} {
		hub.Register(c)
	}
	waitFor(t, func() bool { return hub.ClientCount() == 3 })

	hub.Notify(notify.WalletConnected(wallet.KindInjected, addr, 1))
	hub.Notify(notify.WalletDisconnected(wallet.KindWalletConnect, addr))

	if f := recv(t, all); !strings.Contains(string(f), "event: wallet.connected") {
		t.Errorf("all: expected connected first, got %q", f)
	}
	if f := recv(t, all); !strings.Contains(string(f), "event: wallet.disconnected") {
		t.Errorf("all: expected disconnected second, got %q", f)
	}
	if f := recv(t, injected); !strings.Contains(string(f), "event: wallet.connected") {
		t.Errorf("injected: unexpected frame %q", f)
	}
	// Frames for one client arrive in publish order, so the walletconnect
	// client seeing its own event first means it never saw the injected one.
	if f := recv(t, wc); !strings.Contains(string(f), "event: wallet.disconnected") {
		t.Errorf("walletconnect: unexpected frame %q", f)
	}
}

func TestHubConcurrentOperations(t *testing.T) {
	hub := runHub(t)

	var wg sync.WaitGroup
	clients := make([]*Client, 10)
	for i := range clients {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			clients[idx] = NewClient("all:" + string(rune('a'+idx)))
			hub.Register(clients[idx])
		}(i)
	}
	wg.Wait()
	waitFor(t, func() bool { return hub.ClientCount() == 10 })

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Notify(notify.WalletSwitched(wallet.KindInjected, addr))
		}()
	}
	wg.Wait()

	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			hub.Unregister(c)
		}(c)
	}
	wg.Wait()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHubStopped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient("all:abc")
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Stop()
	hub.Stop()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	if hub.Register(NewClient("all:late")) {
		t.Error("expected register to fail after stop")
	}
	// Must not block once stopped.
	hub.Notify(notify.WalletSwitched(wallet.KindInjected, addr))
	hub.Unregister(client)
}

func TestComponentLifecycle(t *testing.T) {
	comp := NewComponent("/api/events")
	ctx := context.Background()

	if comp.Name() != "sse" {
		t.Errorf("expected name 'sse', got %q", comp.Name())
	}
	if err := comp.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	comp.Hub().Register(NewClient("all:1"))
	waitFor(t, func() bool { return comp.Hub().ClientCount() == 1 })

	health := comp.Health(ctx)
	if health.Status != "healthy" || !strings.Contains(health.Message, "1 clients") {
		t.Errorf("unexpected health %+v", health)
	}
	if health.Details["clients"] != 1 {
		t.Errorf("expected client count detail, got %v", health.Details)
	}

	desc := comp.Describe()
	if desc.Type != "sse" || !strings.Contains(desc.Details, "/api/events") {
		t.Errorf("unexpected description %+v", desc)
	}

	if err := comp.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func readFrame(t *testing.T, r *bufio.Reader) (event, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestServeSSE(t *testing.T) {
	hub := runHub(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(hub, w, r, "injected:client-1",
			WithSession(func() any { return map[string]string{"active_address": string(addr)} }),
			WithClientOptions(WithMetadata("origin", "test")),
		)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, http.NoBody)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected Content-Type 'text/event-stream', got %q", ct)
	}
	r := bufio.NewReader(resp.Body)

	event, data := readFrame(t, r)
	if event != EventTypeConnected {
		t.Fatalf("expected connected frame, got %q", event)
	}
	var hello ConnectedEvent
	if err := json.Unmarshal([]byte(data), &hello); err != nil {
		t.Fatal(err)
	}
	if hello.ClientID != "injected:client-1" || hello.Kind != "injected" || hello.Metadata["origin"] != "test" {
		t.Errorf("unexpected hello %+v", hello)
	}
	if hello.Session == nil {
		t.Error("expected session in connected frame")
	}

	hub.Notify(notify.WalletSwitched(wallet.KindWalletConnect, addr))
	hub.Notify(notify.ChainObserved(wallet.KindInjected, addr, 146))

	event, data = readFrame(t, r)
	if event != string(notify.TypeChainObserved) {
		t.Fatalf("expected chain frame, got %q", event)
	}
	var ev notify.Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.ChainID != 146 {
		t.Errorf("unexpected event %+v", ev)
	}
}
