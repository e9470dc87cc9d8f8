package repositories

import (
	"context"
	"log/slog"

	"github.com/myrjola/moriarty/internal/db"
	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/models"
)

type MessageRepository struct {
	dbs    *db.Database
	logger *slog.Logger
}

func NewMessageRepository(dbs *db.Database, logger *slog.Logger) *MessageRepository {
	return &MessageRepository{
		dbs:    dbs,
		logger: logger.With("source", "MessageRepository"),
	}
}

// Append adds a message to the session transcript and fills in the assigned id.
func (r *MessageRepository) Append(ctx context.Context, message *models.Message) error {
	stmt := `INSERT INTO game_messages (session_id, speaker_id, speaker_name, speaker_kind, content, phase, is_private)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt,
		message.SessionID, message.SpeakerID, message.SpeakerName, message.SpeakerKind,
		message.Content, message.Phase, message.Private,
	)
	if err != nil {
		return errors.Wrap(err, "insert message", slog.String("session_id", message.SessionID))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "read message id")
	}
	message.ID = id
	return nil
}

// List returns the session transcript in insertion order. Private messages are
// included; the caller filters them per viewer.
func (r *MessageRepository) List(ctx context.Context, sessionID string) ([]models.Message, error) {
	var messages []models.Message
	stmt := `SELECT id, session_id, speaker_id, speaker_name, speaker_kind, content, phase, is_private, created_at
	FROM game_messages WHERE session_id = ? ORDER BY id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &messages, stmt, sessionID); err != nil {
		return nil, errors.Wrap(err, "list messages", slog.String("session_id", sessionID))
	}
	return messages, nil
}

// ListPublic returns the transcript with private messages removed. This is the
// view handed to AI speakers so seer results and the like do not leak.
func (r *MessageRepository) ListPublic(ctx context.Context, sessionID string) ([]models.Message, error) {
	var messages []models.Message
	stmt := `SELECT id, session_id, speaker_id, speaker_name, speaker_kind, content, phase, is_private, created_at
	FROM game_messages WHERE session_id = ? AND is_private = FALSE ORDER BY id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &messages, stmt, sessionID); err != nil {
		return nil, errors.Wrap(err, "list public messages", slog.String("session_id", sessionID))
	}
	return messages, nil
}

// CountBySpeakerKind counts transcript entries from a speaker kind within a
// phase. Drives the discussion auto-advance rule.
func (r *MessageRepository) CountBySpeakerKind(ctx context.Context, sessionID, phase, speakerKind string) (int, error) {
	var count int
	stmt := `SELECT COUNT(*) FROM game_messages WHERE session_id = ? AND phase = ? AND speaker_kind = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &count, stmt, sessionID, phase, speakerKind); err != nil {
		return 0, errors.Wrap(err, "count messages", slog.String("session_id", sessionID))
	}
	return count, nil
}
