// Package eip1193 adapts a wallet that speaks EIP-1193 JSON-RPC over HTTP,
// such as Frame's local endpoint or a browser-extension bridge.
//
// Connect maps to eth_requestAccounts, silent reconnection to eth_accounts,
// the chain to eth_chainId. Providers reachable over plain HTTP cannot push
// accountsChanged/chainChanged, so the adapter polls while connected and
// emits an event for every change it observes. Repeated transport failures
// after a successful connect are reported as a disconnect.
//
// Error mapping follows EIP-1193: 4001 is a user rejection, 4100/4900/4901
// mean the provider is unavailable, and MetaMask's -32002 means a request is
// already pending.
package eip1193
