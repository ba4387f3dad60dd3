package session

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	apperrors "github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/wallet"
)

const createTable = `CREATE TABLE IF NOT EXISTS wallet_sessions (
	position INTEGER PRIMARY KEY,
	kind     TEXT    NOT NULL,
	address  TEXT    NOT NULL,
	active   INTEGER NOT NULL DEFAULT 0,
	UNIQUE (kind, address)
)`

// SQLiteStore keeps the session in a wallet_sessions table. The schema
// version lives in PRAGMA user_version; a database written by another
// version loads as empty and is rebuilt on the next Save.
type SQLiteStore struct {
	db  *sql.DB
	log *logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, apperrors.PersistenceFailure("open", err)
	}
	// A single connection keeps the writer and readers on one sqlite handle.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, log: logger.Get("session")}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, apperrors.PersistenceFailure("migrate", err)
	}
	return s, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	version, err := s.userVersion(ctx)
	if err != nil {
		return err
	}
	if version != 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return s.setUserVersion(ctx, s.db, wallet.PersistedVersion)
}

func (s *SQLiteStore) userVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) setUserVersion(ctx context.Context, db execer, v int) error {
	// PRAGMA does not take bound parameters.
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (wallet.PersistedSession, error) {
	version, err := s.userVersion(ctx)
	if err != nil {
		return Empty(), apperrors.PersistenceFailure("load", err)
	}
	if version != wallet.PersistedVersion {
		s.log.Warn("ignoring session database with unknown schema", logger.Fields("user_version", version))
		return Empty(), nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT kind, address, active FROM wallet_sessions ORDER BY position")
	if err != nil {
		return Empty(), apperrors.PersistenceFailure("load", err)
	}
	defer rows.Close()

	p := Empty()
	for rows.Next() {
		var (
			w      wallet.PersistedWallet
			active bool
		)
		if err := rows.Scan(&w.Kind, &w.Address, &active); err != nil {
			return Empty(), apperrors.PersistenceFailure("load", err)
		}
		p.Wallets = append(p.Wallets, w)
		if active {
			p.Active = w.Address
		}
	}
	if err := rows.Err(); err != nil {
		return Empty(), apperrors.PersistenceFailure("load", err)
	}

	if err := Check(p); err != nil {
		s.log.Warn("discarding corrupt session rows", logger.Fields(logger.FieldError, err.Error()))
		return Empty(), nil
	}
	return normalize(p), nil
}

func (s *SQLiteStore) Save(ctx context.Context, state wallet.SessionState) error {
	p := state.Persisted()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.PersistenceFailure("save", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Rebuilds a table left behind by another schema version.
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS wallet_sessions"); err != nil {
		return apperrors.PersistenceFailure("save", err)
	}
	if _, err := tx.ExecContext(ctx, createTable); err != nil {
		return apperrors.PersistenceFailure("save", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO wallet_sessions (position, kind, address, active) VALUES (?, ?, ?, ?)")
	if err != nil {
		return apperrors.PersistenceFailure("save", err)
	}
	defer stmt.Close()

	activeWallet, hasActive := state.ActiveWallet()
	for i, w := range p.Wallets {
		active := hasActive && activeWallet.Matches(w.Kind, w.Address)
		if _, err := stmt.ExecContext(ctx, i, string(w.Kind), string(w.Address), active); err != nil {
			return apperrors.PersistenceFailure("save", err)
		}
	}
	if err := s.setUserVersion(ctx, tx, wallet.PersistedVersion); err != nil {
		return apperrors.PersistenceFailure("save", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.PersistenceFailure("save", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM wallet_sessions"); err != nil {
		return apperrors.PersistenceFailure("clear", err)
	}
	return nil
}
