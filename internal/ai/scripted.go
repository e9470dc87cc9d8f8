package ai

import (
	"context"
	"sync"
)

// Scripted is a Completer that replays canned responses in order. Once the
// script runs out it keeps returning the last response. Used by tests and the
// offline simulation command.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	next      int
	// Prompts records every prompt seen, for assertions.
	Prompts [][]Message
}

var _ Completer = (*Scripted)(nil)

func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

func (s *Scripted) Complete(_ context.Context, messages []Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Prompts = append(s.Prompts, messages)
	if len(s.responses) == 0 {
		return "", nil
	}
	response := s.responses[s.next]
	if s.next < len(s.responses)-1 {
		s.next++
	}
	return response, nil
}
