package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"journey/internal/domain"
)

var _ domain.RemoteStore = (*DB)(nil)

// Get returns the account's document, or nil when absent.
func (d *DB) Get(ctx context.Context, account string) (*domain.State, error) {
	var raw []byte
	err := d.sql.QueryRowContext(ctx,
		"SELECT state FROM documents WHERE account_id=$1;", account,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var s domain.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode document %q: %w", account, err)
	}
	return &s, nil
}

// Set upserts the account's document.
func (d *DB) Set(ctx context.Context, account string, state domain.State) error {
	if state.Logs == nil {
		state.Logs = []domain.LogEntry{}
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx,
		`INSERT INTO documents(account_id, state, updated_at) VALUES($1, $2, $3)
		 ON CONFLICT (account_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at;`,
		account, raw, time.Now().UTC(),
	)
	return err
}

// Delete removes the account's document.
func (d *DB) Delete(ctx context.Context, account string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM documents WHERE account_id=$1;", account)
	return err
}
