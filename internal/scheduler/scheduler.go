// Package scheduler runs per-session background loops: the werewolf judge's
// phase automation and the script-host timers. The registry of running loops
// is an optimization only; all game state lives in the database, so a lost
// loop (crash, restart) leaves a session that can be resumed or abandoned but
// never corrupted.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Loop is one session's automation. It should return when its game reaches a
// terminal state or when ctx is cancelled, checking ctx between steps so an
// in-flight step always runs to completion.
type Loop func(ctx context.Context)

type Scheduler struct {
	logger *slog.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		logger:  logger.With("source", "Scheduler"),
		running: make(map[string]context.CancelFunc),
	}
}

// Start launches the loop for a session. Starting an already-running session
// is a no-op so repeated start requests cannot fork duplicate automations.
func (s *Scheduler) Start(sessionID string, loop Loop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[sessionID]; ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.running[sessionID] = cancel
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer s.remove(sessionID)
		s.logger.LogAttrs(ctx, slog.LevelInfo, "automation started", slog.String("session_id", sessionID))
		loop(ctx)
		s.logger.LogAttrs(ctx, slog.LevelInfo, "automation finished", slog.String("session_id", sessionID))
	}()
}

// Stop cancels a session's loop. The cancellation is cooperative: the loop
// observes it between steps. Stopping an unknown session is a no-op.
func (s *Scheduler) Stop(sessionID string) {
	s.mu.Lock()
	cancel, ok := s.running[sessionID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

// Running reports whether a session currently has a live loop.
func (s *Scheduler) Running(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[sessionID]
	return ok
}

// Shutdown cancels every loop and waits for them to finish.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	for _, cancel := range s.running {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, sessionID)
}

// Sleep pauses for d or until ctx is cancelled, reporting whether the full
// duration elapsed. Loops use it between phases so Stop doesn't hang on a
// five-minute discussion timer.
func Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
