package adapter

import (
	"context"

	"github.com/kbukum/walletkit/wallet"
)

// Handler receives provider events. It is called from the adapter's own
// goroutine and must not block for long.
type Handler func(wallet.ProviderEvent)

// Adapter is the capability set of one wallet provider family.
type Adapter interface {
	// Kind returns the provider family this adapter serves.
	Kind() wallet.Kind
	// Connect requests user approval and returns the approved account.
	// Fails with USER_REJECTED, PROVIDER_UNAVAILABLE or ALREADY_PENDING.
	Connect(ctx context.Context) (wallet.Address, error)
	// Reconnect re-establishes a previous authorization without prompting.
	// Fails with SILENT_RECONNECT_UNSUPPORTED when that is not possible.
	Reconnect(ctx context.Context) (wallet.Address, error)
	// Disconnect drops the association. Local state is always cleared even
	// when the provider has no programmatic disconnect.
	Disconnect(ctx context.Context) error
	// CurrentAccount returns the account the provider currently exposes.
	CurrentAccount(ctx context.Context) (wallet.Address, error)
	// CurrentChain returns the chain the provider is on.
	// Fails with PROVIDER_UNAVAILABLE while not connected.
	CurrentChain(ctx context.Context) (wallet.ChainID, error)
	// Subscribe registers the event handler, replacing any previous one.
	Subscribe(h Handler) (unsubscribe func())
}

// Factory creates an adapter for kind from free-form configuration.
type Factory func(kind wallet.Kind, cfg map[string]any) (Adapter, error)
