package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/myrjola/moriarty/internal/db"
	"github.com/myrjola/moriarty/internal/errors"
)

// StateRepository is a per-session key-value bag for game state that doesn't
// warrant its own table: role assignments, pending night actions, vote tallies,
// the detective notebook. Values are JSON documents; writes are last-write-wins.
type StateRepository struct {
	dbs    *db.Database
	logger *slog.Logger
}

func NewStateRepository(dbs *db.Database, logger *slog.Logger) *StateRepository {
	return &StateRepository{
		dbs:    dbs,
		logger: logger.With("source", "StateRepository"),
	}
}

// Set upserts a state value. The value is marshalled to JSON.
func (r *StateRepository) Set(ctx context.Context, sessionID, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "encode state value", slog.String("state_key", key))
	}
	stmt := `INSERT INTO game_states (session_id, state_key, state_value, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (session_id, state_key) DO UPDATE SET state_value = excluded.state_value, updated_at = CURRENT_TIMESTAMP`
	if _, err = r.dbs.ReadWrite.ExecContext(ctx, stmt, sessionID, key, string(encoded)); err != nil {
		return errors.Wrap(err, "upsert state",
			slog.String("session_id", sessionID), slog.String("state_key", key))
	}
	return nil
}

// Get unmarshals a state value into out. Unknown keys return ErrNotFound.
func (r *StateRepository) Get(ctx context.Context, sessionID, key string, out any) error {
	var encoded string
	stmt := `SELECT state_value FROM game_states WHERE session_id = ? AND state_key = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &encoded, stmt, sessionID, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrap(ErrNotFound, "state key",
				slog.String("session_id", sessionID), slog.String("state_key", key))
		}
		return errors.Wrap(err, "read state", slog.String("state_key", key))
	}
	if err := json.Unmarshal([]byte(encoded), out); err != nil {
		return errors.Wrap(err, "decode state value", slog.String("state_key", key))
	}
	return nil
}

// Delete removes a state key. Deleting an absent key is not an error.
func (r *StateRepository) Delete(ctx context.Context, sessionID, key string) error {
	stmt := `DELETE FROM game_states WHERE session_id = ? AND state_key = ?`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, sessionID, key); err != nil {
		return errors.Wrap(err, "delete state", slog.String("state_key", key))
	}
	return nil
}
