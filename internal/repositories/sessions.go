package repositories

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/moriarty/internal/db"
	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/models"
)

// ErrNotFound signals an unknown session, character, or state key. It is an
// expected condition, not a failure: callers check for it with errors.Is.
var ErrNotFound = errors.NewSentinel("not found")

type SessionRepository struct {
	dbs    *db.Database
	logger *slog.Logger
}

func NewSessionRepository(dbs *db.Database, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{
		dbs:    dbs,
		logger: logger.With("source", "SessionRepository"),
	}
}

// Create allocates a new session in the setup phase and returns it.
func (r *SessionRepository) Create(ctx context.Context, kind models.GameKind, userID int64) (*models.Session, error) {
	session := models.Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		Status:    models.SessionStatusActive,
		Phase:     "setup",
		DayCount:  1,
		CreatedAt: time.Now(),
	}
	stmt := `INSERT INTO game_sessions (id, game_kind, user_id, status, current_phase, day_count, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt,
		session.ID, session.Kind, session.UserID, session.Status, session.Phase, session.DayCount, session.CreatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "insert session", slog.String("game_kind", string(kind)))
	}
	return &session, nil
}

// Get returns the session or ErrNotFound.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	stmt := `SELECT id, game_kind, user_id, status, current_phase, day_count, created_at
	FROM game_sessions WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &session, stmt, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrNotFound, "session", slog.String("session_id", sessionID))
		}
		return nil, errors.Wrap(err, "read session", slog.String("session_id", sessionID))
	}
	return &session, nil
}

// ListByUser returns the user's sessions, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]models.Session, error) {
	var sessions []models.Session
	stmt := `SELECT id, game_kind, user_id, status, current_phase, day_count, created_at
	FROM game_sessions WHERE user_id = ? ORDER BY created_at DESC`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &sessions, stmt, userID); err != nil {
		return nil, errors.Wrap(err, "list sessions", slog.Int64("user_id", userID))
	}
	return sessions, nil
}

// UpdatePhase moves the session to a new phase.
func (r *SessionRepository) UpdatePhase(ctx context.Context, sessionID, phase string) error {
	stmt := `UPDATE game_sessions SET current_phase = ? WHERE id = ?`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, phase, sessionID); err != nil {
		return errors.Wrap(err, "update phase",
			slog.String("session_id", sessionID), slog.String("phase", phase))
	}
	return nil
}

// UpdateStatus sets the session's lifecycle status.
func (r *SessionRepository) UpdateStatus(ctx context.Context, sessionID string, status models.SessionStatus) error {
	stmt := `UPDATE game_sessions SET status = ? WHERE id = ?`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, status, sessionID); err != nil {
		return errors.Wrap(err, "update status",
			slog.String("session_id", sessionID), slog.String("status", string(status)))
	}
	return nil
}

// UpdateDayCount persists the night/day cycle counter.
func (r *SessionRepository) UpdateDayCount(ctx context.Context, sessionID string, dayCount int) error {
	stmt := `UPDATE game_sessions SET day_count = ? WHERE id = ?`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, dayCount, sessionID); err != nil {
		return errors.Wrap(err, "update day count", slog.String("session_id", sessionID))
	}
	return nil
}

// Delete removes the session. Characters, messages, and state rows cascade.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	stmt := `DELETE FROM game_sessions WHERE id = ?`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, sessionID); err != nil {
		return errors.Wrap(err, "delete session", slog.String("session_id", sessionID))
	}
	return nil
}
