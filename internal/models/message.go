package models

import "time"

// Synthetic speaker ids for transcript entries that don't belong to a character.
const (
	SpeakerSystem = "system"
	SpeakerJudge  = "judge"
	SpeakerHost   = "host"
	SpeakerPlayer = "player"
)

// Message is one entry in a session's transcript. Messages are append-only and
// ordered by insertion; they are never mutated after the fact.
type Message struct {
	ID          int64  `db:"id" json:"id"`
	SessionID   string `db:"session_id" json:"-"`
	SpeakerID   string `db:"speaker_id" json:"speakerId"`
	SpeakerName string `db:"speaker_name" json:"speakerName"`
	SpeakerKind string `db:"speaker_kind" json:"speakerKind"`
	Content     string `db:"content" json:"content"`
	Phase       string `db:"phase" json:"phase"`
	// Private messages are visible only to the human player, e.g. a seer's
	// night-check result.
	Private   bool      `db:"is_private" json:"private"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
