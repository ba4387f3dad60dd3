// Package wallet holds the data model of the wallet session: provider kinds,
// addresses, chain IDs, connected wallets, the session state with its
// invariants, the durable subset written to the session store, and the
// provider events that drive reconciliation.
//
// Values in this package are plain data. Mutation and synchronization belong
// to the manager package, which hands out clones of SessionState to readers.
package wallet
