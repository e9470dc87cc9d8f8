package repositories

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/myrjola/moriarty/internal/db"
	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/models"
)

type ScoreRepository struct {
	dbs    *db.Database
	logger *slog.Logger
}

func NewScoreRepository(dbs *db.Database, logger *slog.Logger) *ScoreRepository {
	return &ScoreRepository{
		dbs:    dbs,
		logger: logger.With("source", "ScoreRepository"),
	}
}

// Record stores a finished game's score with a free-form performance breakdown.
func (r *ScoreRepository) Record(ctx context.Context, sessionID string, userID int64, kind models.GameKind, score int, performance any) error {
	encoded, err := json.Marshal(performance)
	if err != nil {
		return errors.Wrap(err, "encode performance")
	}
	stmt := `INSERT INTO game_scores (session_id, user_id, game_kind, score, performance)
	VALUES (?, ?, ?, ?, ?)`
	if _, err = r.dbs.ReadWrite.ExecContext(ctx, stmt, sessionID, userID, kind, score, string(encoded)); err != nil {
		return errors.Wrap(err, "insert score", slog.String("session_id", sessionID))
	}
	return nil
}

// Score is one recorded game result.
type Score struct {
	ID          int64           `db:"id"`
	SessionID   string          `db:"session_id"`
	UserID      int64           `db:"user_id"`
	Kind        models.GameKind `db:"game_kind"`
	Score       int             `db:"score"`
	Performance string          `db:"performance"`
	CompletedAt time.Time       `db:"completed_at"`
}

// ListByUser returns the user's recorded scores, newest first.
func (r *ScoreRepository) ListByUser(ctx context.Context, userID int64) ([]Score, error) {
	var scores []Score
	stmt := `SELECT id, session_id, user_id, game_kind, score, performance, completed_at
	FROM game_scores WHERE user_id = ? ORDER BY completed_at DESC, id DESC`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &scores, stmt, userID); err != nil {
		return nil, errors.Wrap(err, "list scores", slog.Int64("user_id", userID))
	}
	return scores, nil
}
