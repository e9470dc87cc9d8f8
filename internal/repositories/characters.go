package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/myrjola/moriarty/internal/db"
	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/models"
)

type CharacterRepository struct {
	dbs    *db.Database
	logger *slog.Logger
}

func NewCharacterRepository(dbs *db.Database, logger *slog.Logger) *CharacterRepository {
	return &CharacterRepository{
		dbs:    dbs,
		logger: logger.With("source", "CharacterRepository"),
	}
}

// characterRow is the database shape of a character. Memory is stored as a JSON
// array so the rolling log survives restarts.
type characterRow struct {
	SessionID   string              `db:"session_id"`
	ID          string              `db:"character_id"`
	Name        string              `db:"name"`
	Kind        models.CharacterKind `db:"kind"`
	Personality string              `db:"personality"`
	Background  string              `db:"background"`
	Secrets     string              `db:"secrets"`
	Memory      string              `db:"memory"`
	Alive       bool                `db:"is_alive"`
	CreatedAt   sql.NullTime        `db:"created_at"`
}

func (row characterRow) toModel() (*models.Character, error) {
	character := models.Character{
		SessionID:   row.SessionID,
		ID:          row.ID,
		Name:        row.Name,
		Kind:        row.Kind,
		Personality: row.Personality,
		Background:  row.Background,
		Secrets:     row.Secrets,
		Alive:       row.Alive,
		CreatedAt:   row.CreatedAt.Time,
	}
	if err := json.Unmarshal([]byte(row.Memory), &character.Memory); err != nil {
		return nil, errors.Wrap(err, "decode character memory",
			slog.String("character_id", row.ID))
	}
	return &character, nil
}

// Create persists a character for a session.
func (r *CharacterRepository) Create(ctx context.Context, character *models.Character) error {
	memory, err := json.Marshal(trimMemory(character.Memory))
	if err != nil {
		return errors.Wrap(err, "encode character memory")
	}
	stmt := `INSERT INTO game_characters (session_id, character_id, name, kind, personality, background, secrets, memory, is_alive)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err = r.dbs.ReadWrite.ExecContext(ctx, stmt,
		character.SessionID, character.ID, character.Name, character.Kind,
		character.Personality, character.Background, character.Secrets, string(memory), character.Alive,
	); err != nil {
		return errors.Wrap(err, "insert character",
			slog.String("session_id", character.SessionID), slog.String("character_id", character.ID))
	}
	return nil
}

// Get returns one character or ErrNotFound.
func (r *CharacterRepository) Get(ctx context.Context, sessionID, characterID string) (*models.Character, error) {
	var row characterRow
	stmt := `SELECT session_id, character_id, name, kind, personality, background, secrets, memory, is_alive, created_at
	FROM game_characters WHERE session_id = ? AND character_id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &row, stmt, sessionID, characterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrNotFound, "character",
				slog.String("session_id", sessionID), slog.String("character_id", characterID))
		}
		return nil, errors.Wrap(err, "read character", slog.String("character_id", characterID))
	}
	return row.toModel()
}

// GetAll returns every character in the session in insertion order.
func (r *CharacterRepository) GetAll(ctx context.Context, sessionID string) ([]*models.Character, error) {
	var rows []characterRow
	stmt := `SELECT session_id, character_id, name, kind, personality, background, secrets, memory, is_alive, created_at
	FROM game_characters WHERE session_id = ? ORDER BY rowid`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &rows, stmt, sessionID); err != nil {
		return nil, errors.Wrap(err, "list characters", slog.String("session_id", sessionID))
	}
	characters := make([]*models.Character, 0, len(rows))
	for _, row := range rows {
		character, err := row.toModel()
		if err != nil {
			return nil, err
		}
		characters = append(characters, character)
	}
	return characters, nil
}

// GetByKind filters the session's characters by kind.
func (r *CharacterRepository) GetByKind(ctx context.Context, sessionID string, kind models.CharacterKind) ([]*models.Character, error) {
	var rows []characterRow
	stmt := `SELECT session_id, character_id, name, kind, personality, background, secrets, memory, is_alive, created_at
	FROM game_characters WHERE session_id = ? AND kind = ? ORDER BY rowid`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &rows, stmt, sessionID, kind); err != nil {
		return nil, errors.Wrap(err, "list characters by kind",
			slog.String("session_id", sessionID), slog.String("kind", string(kind)))
	}
	characters := make([]*models.Character, 0, len(rows))
	for _, row := range rows {
		character, err := row.toModel()
		if err != nil {
			return nil, err
		}
		characters = append(characters, character)
	}
	return characters, nil
}

// AppendMemory records an event in the character's rolling log. The log is
// trimmed to models.MemoryCap before writing.
func (r *CharacterRepository) AppendMemory(ctx context.Context, sessionID, characterID, event, eventContext string) error {
	character, err := r.Get(ctx, sessionID, characterID)
	if err != nil {
		return err
	}
	character.AddMemory(event, eventContext)
	memory, err := json.Marshal(trimMemory(character.Memory))
	if err != nil {
		return errors.Wrap(err, "encode character memory")
	}
	stmt := `UPDATE game_characters SET memory = ? WHERE session_id = ? AND character_id = ?`
	if _, err = r.dbs.ReadWrite.ExecContext(ctx, stmt, string(memory), sessionID, characterID); err != nil {
		return errors.Wrap(err, "update character memory",
			slog.String("session_id", sessionID), slog.String("character_id", characterID))
	}
	return nil
}

// SetAlive flips the character's alive flag. Unknown ids are ignored so late
// night resolutions against already-removed characters stay harmless.
func (r *CharacterRepository) SetAlive(ctx context.Context, sessionID, characterID string, alive bool) error {
	stmt := `UPDATE game_characters SET is_alive = ? WHERE session_id = ? AND character_id = ?`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, alive, sessionID, characterID); err != nil {
		return errors.Wrap(err, "update character alive flag",
			slog.String("session_id", sessionID), slog.String("character_id", characterID))
	}
	return nil
}

func trimMemory(memory []models.MemoryEntry) []models.MemoryEntry {
	if memory == nil {
		return []models.MemoryEntry{}
	}
	if len(memory) > models.MemoryCap {
		return memory[len(memory)-models.MemoryCap:]
	}
	return memory
}
