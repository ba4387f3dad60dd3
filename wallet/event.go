package wallet

import "fmt"

// EventType tags the variant of a ProviderEvent.
type EventType string

const (
	EventAccountsChanged EventType = "accountsChanged"
	EventChainChanged    EventType = "chainChanged"
	EventDisconnected    EventType = "disconnect"
)

// ProviderEvent is an out-of-band notification raised by a provider adapter.
// Only the fields of the tagged variant are meaningful:
// Addresses for accountsChanged, ChainID for chainChanged.
type ProviderEvent struct {
	Type      EventType `json:"type"`
	Kind      Kind      `json:"kind"`
	Addresses []Address `json:"addresses,omitempty"`
	ChainID   ChainID   `json:"chain_id,omitempty"`
}

// AccountsChanged builds an accountsChanged event. An empty set means the
// provider no longer exposes any account to the session.
func AccountsChanged(kind Kind, addresses ...Address) ProviderEvent {
	return ProviderEvent{Type: EventAccountsChanged, Kind: kind, Addresses: addresses}
}

// ChainChanged builds a chainChanged event.
func ChainChanged(kind Kind, chainID ChainID) ProviderEvent {
	return ProviderEvent{Type: EventChainChanged, Kind: kind, ChainID: chainID}
}

// Disconnected builds a disconnect event.
func Disconnected(kind Kind) ProviderEvent {
	return ProviderEvent{Type: EventDisconnected, Kind: kind}
}

// Validate rejects payloads a well-behaved provider would never send.
func (e ProviderEvent) Validate() error {
	if e.Kind == "" {
		return fmt.Errorf("event has no kind")
	}
	switch e.Type {
	case EventAccountsChanged:
		for _, a := range e.Addresses {
			if !a.Valid() {
				return fmt.Errorf("invalid address %q", a)
			}
		}
	case EventChainChanged:
		if e.ChainID == 0 {
			return fmt.Errorf("chainChanged without chain id")
		}
	case EventDisconnected:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

func (e ProviderEvent) String() string {
	switch e.Type {
	case EventAccountsChanged:
		return fmt.Sprintf("%s{%s %v}", e.Type, e.Kind, e.Addresses)
	case EventChainChanged:
		return fmt.Sprintf("%s{%s %d}", e.Type, e.Kind, e.ChainID)
	default:
		return fmt.Sprintf("%s{%s}", e.Type, e.Kind)
	}
}
