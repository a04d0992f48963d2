package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/studyhub-notify/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// accountRow mirrors the accounts table.
type accountRow struct {
	ID              string       `db:"id"`
	Name            string       `db:"name"`
	BaseURL         string       `db:"base_url"`
	Enabled         bool         `db:"enabled"`
	PollIntervalSec int          `db:"poll_interval_sec"`
	Config          string       `db:"config"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
	LastUsedAt      sql.NullTime `db:"last_used_at"`
}

func (r accountRow) toModel() (model.Account, error) {
	acct := model.Account{
		ID:              r.ID,
		Name:            r.Name,
		BaseURL:         r.BaseURL,
		Enabled:         r.Enabled,
		PollIntervalSec: r.PollIntervalSec,
	}
	if r.Config != "" {
		if err := json.Unmarshal([]byte(r.Config), &acct.Config); err != nil {
			return model.Account{}, fmt.Errorf("unmarshaling account config: %w", err)
		}
	}
	return acct, nil
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// UpsertAccount inserts or updates an account and returns it with its ID
// filled in. The base URL is stored without a trailing slash.
func (s *SQLiteStore) UpsertAccount(
	ctx context.Context,
	acct model.Account,
) (model.Account, error) {
	if acct.ID == "" {
		acct.ID = uuid.New().String()
	}
	acct.Name = strings.TrimSpace(acct.Name)
	acct.BaseURL = strings.TrimRight(strings.TrimSpace(acct.BaseURL), "/")
	if acct.Name == "" {
		return model.Account{}, errors.New("account name is required")
	}
	if acct.BaseURL == "" {
		return model.Account{}, errors.New("account base URL is required")
	}

	cfg := acct.Config
	if cfg == nil {
		cfg = map[string]string{}
	}
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return model.Account{}, fmt.Errorf("marshaling account config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (
			id, name, base_url, enabled, poll_interval_sec, config, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			base_url = excluded.base_url,
			enabled = excluded.enabled,
			poll_interval_sec = excluded.poll_interval_sec,
			config = excluded.config,
			updated_at = excluded.updated_at`,
		acct.ID, acct.Name, acct.BaseURL,
		boolToInt(acct.Enabled), acct.PollIntervalSec,
		string(configJSON), time.Now().UTC(),
	)
	if err != nil {
		return model.Account{}, fmt.Errorf("upserting account %s: %w", acct.ID, err)
	}

	return acct, nil
}

// GetAccounts retrieves all configured accounts ordered by name.
func (s *SQLiteStore) GetAccounts(ctx context.Context) ([]model.Account, error) {
	var rows []accountRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM accounts ORDER BY name, id"); err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}

	accounts := make([]model.Account, 0, len(rows))
	for _, r := range rows {
		acct, err := r.toModel()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// GetAccount retrieves a single account.
func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	var r accountRow
	err := s.db.GetContext(ctx, &r, "SELECT * FROM accounts WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting account %s: %w", id, ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting account %s: %w", id, err)
	}

	acct, err := r.toModel()
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// DeleteAccount removes an account by ID. Deleting an unknown ID is not an
// error.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", id, err)
	}
	return nil
}

// TouchAccount stamps the account's last use.
func (s *SQLiteStore) TouchAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET last_used_at = ? WHERE id = ?",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("touching account %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("touching account %s: %w", id, ErrAccountNotFound)
	}
	return nil
}

// LastUsedAccount returns the most recently used enabled account, falling
// back to the first enabled account by name.
func (s *SQLiteStore) LastUsedAccount(ctx context.Context) (*model.Account, error) {
	var r accountRow
	err := s.db.GetContext(ctx, &r, `
		SELECT * FROM accounts
		WHERE enabled = 1
		ORDER BY last_used_at IS NULL, last_used_at DESC, name, id
		LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying last used account: %w", err)
	}

	acct, err := r.toModel()
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
