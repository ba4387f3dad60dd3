// Package manager implements the wallet session manager: the single owner
// of which wallets are connected and which one is active.
//
// Commands (Connect, SwitchActive, Disconnect, DisconnectAll) and provider
// events (Reconcile) are the only ways the session changes. Every change
// is applied atomically, persisted to a session.Store and announced to the
// registered notify sinks before the next change starts. Readers get
// copies through the query methods and never observe a partial update.
//
// Provider events are queued per wallet kind: events for one kind are
// applied strictly in arrival order, different kinds proceed
// independently.
//
//	m := manager.New(adapters, manager.WithStore(store), manager.WithSink(bus))
//	if err := m.Start(ctx); err != nil { ... }
//	w, err := m.Connect(ctx, wallet.KindInjected)
package manager
