// Package session persists the durable subset of a wallet session.
//
// A Store keeps an ordered list of (kind, address) pairs plus the active
// address. Load never fails because the record is missing or unreadable:
// absent, corrupt and unknown-version records all come back as an empty
// session so start-up falls back to a fresh state.
//
// Three backends are provided:
//
//   - FileStore writes one JSON document atomically, optionally sealed.
//   - SQLiteStore keeps the rows in a wallet_sessions table.
//   - MemoryStore is for tests.
package session
