package models

import "time"

// GameKind identifies which of the three game modes a session runs.
type GameKind string

const (
	GameKindWerewolf   GameKind = "werewolf"
	GameKindDetective  GameKind = "detective"
	GameKindScriptHost GameKind = "scripthost"
)

// SessionStatus is the lifecycle state of a session. Won, lost, and ended are
// absorbing: a finished session never transitions again.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusWon    SessionStatus = "won"
	SessionStatusLost   SessionStatus = "lost"
	SessionStatusEnded  SessionStatus = "ended"
)

// Session is one played instance of a game.
type Session struct {
	ID        string        `db:"id" json:"id"`
	Kind      GameKind      `db:"game_kind" json:"kind"`
	UserID    int64         `db:"user_id" json:"-"`
	Status    SessionStatus `db:"status" json:"status"`
	Phase     string        `db:"current_phase" json:"phase"`
	DayCount  int           `db:"day_count" json:"dayCount"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
}

// Finished reports whether the session has reached a terminal status.
func (s *Session) Finished() bool {
	return s.Status != SessionStatusActive
}
