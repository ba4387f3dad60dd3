// Package adapter defines the uniform capability surface the session manager
// uses to talk to external wallet providers, plus the pieces every concrete
// adapter shares.
//
// An Adapter wraps exactly one provider family (a wallet.Kind):
//
//   - Connect prompts the user and returns the approved account.
//   - Reconnect is the silent variant used at startup rehydration.
//   - Disconnect always succeeds locally.
//   - CurrentAccount / CurrentChain report provider truth while connected.
//   - Subscribe registers the single event handler for the adapter.
//
// Base implements the contract rules that do not depend on the provider:
// at most one connect request in flight (AlreadyPending), at most one
// handler, exactly-once delivery of each emitted event, and the
// connected/account/chain bookkeeping.
//
// # Registry
//
// New kinds plug in without touching the manager:
//
//	reg := adapter.NewRegistry()
//	reg.RegisterFactory("eip1193", eip1193.Factory)
//	a, err := reg.Build("eip1193", "frame", map[string]any{"endpoint": "http://127.0.0.1:1248"})
package adapter
