package models

import (
	"strings"
	"time"
)

// CharacterKind distinguishes the roles a character plays in the session machinery.
type CharacterKind string

const (
	CharacterKindNPC     CharacterKind = "npc"
	CharacterKindSuspect CharacterKind = "suspect"
	CharacterKindJudge   CharacterKind = "judge"
	CharacterKindPlayer  CharacterKind = "player"
)

// MemoryCap bounds the rolling memory log per character. The log feeds back into
// generation prompts, so letting it grow without bound would blow the context window.
const MemoryCap = 50

// MemoryEntry is one remembered event in a character's rolling log.
type MemoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Context   string    `json:"context,omitempty"`
}

// Character is an AI-controlled or human-controlled participant within a session.
// Dead characters stay queryable for transcript history; only the Alive flag changes.
type Character struct {
	SessionID   string        `json:"-"`
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Kind        CharacterKind `json:"kind"`
	Personality string        `json:"personality,omitempty"`
	Background  string        `json:"background,omitempty"`
	// Secrets is never shown to the human player directly. It seeds generation prompts.
	Secrets   string        `json:"secrets,omitempty"`
	Memory    []MemoryEntry `json:"memory,omitempty"`
	Alive     bool          `json:"alive"`
	CreatedAt time.Time     `json:"createdAt"`
}

// AddMemory appends an entry to the rolling log, evicting the oldest entries
// beyond MemoryCap.
func (c *Character) AddMemory(event, context string) {
	c.Memory = append(c.Memory, MemoryEntry{
		Timestamp: time.Now(),
		Event:     event,
		Context:   context,
	})
	if len(c.Memory) > MemoryCap {
		c.Memory = c.Memory[len(c.Memory)-MemoryCap:]
	}
}

// RecentMemory summarises the newest entries for inclusion in a prompt.
func (c *Character) RecentMemory(limit int) string {
	if len(c.Memory) == 0 {
		return "no memories yet"
	}
	entries := c.Memory
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	var b strings.Builder
	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(entry.Event)
	}
	return b.String()
}
