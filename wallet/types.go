package wallet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a provider family. The set is open: any non-empty kind
// with a registered adapter is valid.
type Kind string

// Built-in kinds.
const (
	KindInjected      Kind = "injected"
	KindWalletConnect Kind = "walletconnect"
	KindCoinbase      Kind = "coinbase"
	KindFrame         Kind = "frame"
	KindMock          Kind = "mock"
)

func (k Kind) String() string { return string(k) }

// Address is an EVM account address. Comparisons are case-insensitive.
type Address string

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// NormalizeAddress lower-cases and trims a hex address.
func NormalizeAddress(s string) Address {
	return Address(strings.ToLower(strings.TrimSpace(s)))
}

// Equal reports whether two addresses refer to the same account.
func (a Address) Equal(b Address) bool {
	return strings.EqualFold(string(a), string(b))
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == "" }

// Valid reports whether the address is a 20-byte 0x-prefixed hex string.
func (a Address) Valid() bool { return addressPattern.MatchString(string(a)) }

// Short renders the address as 0x1234…abcd for notifications.
func (a Address) Short() string {
	s := string(a)
	if len(s) < 12 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

func (a Address) String() string { return string(a) }

// ChainID is an EIP-155 chain identifier. Zero means unknown.
type ChainID uint64

// ParseChainID accepts decimal ("146") or 0x-prefixed hex ("0x92") input.
func ParseChainID(s string) (ChainID, error) {
	s = strings.TrimSpace(s)
	var (
		v   uint64
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid chain id %q: %w", s, err)
	}
	return ChainID(v), nil
}

// Hex renders the chain ID the way EIP-1193 providers report it.
func (c ChainID) Hex() string { return "0x" + strconv.FormatUint(uint64(c), 16) }

func (c ChainID) String() string { return strconv.FormatUint(uint64(c), 10) }

// ConnectedWallet is one provider account currently associated with the session.
type ConnectedWallet struct {
	Kind        Kind      `json:"kind"`
	Address     Address   `json:"address"`
	ChainID     ChainID   `json:"chain_id"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Matches reports whether w is identified by (kind, address).
func (w ConnectedWallet) Matches(kind Kind, address Address) bool {
	return w.Kind == kind && w.Address.Equal(address)
}
