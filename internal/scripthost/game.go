// Package scripthost runs the timer-driven murder mystery night: an AI host
// walks the table through timed phases while NPC characters play their parts,
// and the human detective investigates in parallel until they accuse someone.
package scripthost

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/myrjola/moriarty/internal/ai"
	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/models"
	"github.com/myrjola/moriarty/internal/random"
	"github.com/myrjola/moriarty/internal/repositories"
	"github.com/myrjola/moriarty/internal/scenario"
	"github.com/myrjola/moriarty/internal/scheduler"
)

// Game phases, in order.
const (
	PhaseIntroduction   = "introduction"
	PhaseFreeDiscussion = "free_discussion"
	PhaseInvestigation  = "investigation"
	PhaseFinalReasoning = "final_reasoning"
	PhaseRevelation     = "revelation"
)

// State keys.
const (
	stateScenario = "scenario"
	stateAccused  = "accused"
)

var (
	ErrWrongPhase  = errors.NewSentinel("action not available in the current phase")
	ErrUnknownNPC  = errors.NewSentinel("no such character at the table")
	ErrUnknownClue = errors.NewSentinel("no such clue")
)

// Timings control the phase clock. Tests shrink them to keep runs fast.
type Timings struct {
	Introduction   time.Duration
	Discussion     time.Duration
	SpeechInterval time.Duration
	Investigation  time.Duration
	FinalReasoning time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Introduction:   5 * time.Second,
		Discussion:     5 * time.Minute,
		SpeechInterval: 30 * time.Second,
		Investigation:  3 * time.Minute,
		FinalReasoning: 2 * time.Minute,
	}
}

type Game struct {
	sessions   *repositories.SessionRepository
	characters *repositories.CharacterRepository
	messages   *repositories.MessageRepository
	states     *repositories.StateRepository
	generator  *scenario.Generator
	completer  ai.Completer
	scheduler  *scheduler.Scheduler
	timings    Timings
	logger     *slog.Logger
}

func New(
	sessions *repositories.SessionRepository,
	characters *repositories.CharacterRepository,
	messages *repositories.MessageRepository,
	states *repositories.StateRepository,
	generator *scenario.Generator,
	completer ai.Completer,
	sched *scheduler.Scheduler,
	timings Timings,
	logger *slog.Logger,
) *Game {
	return &Game{
		sessions:   sessions,
		characters: characters,
		messages:   messages,
		states:     states,
		generator:  generator,
		completer:  completer,
		scheduler:  sched,
		timings:    timings,
		logger:     logger.With("source", "scripthost.Game"),
	}
}

// StartGame creates the session, generates the script, seats the NPC cast
// with seeded memories, briefs the detective, and starts the phase clock.
func (g *Game) StartGame(ctx context.Context, userID int64, scriptType string) (*models.Session, error) {
	session, err := g.sessions.Create(ctx, models.GameKindScriptHost, userID)
	if err != nil {
		return nil, err
	}

	script := g.generator.Generate(ctx, scriptType)
	if err = g.states.Set(ctx, session.ID, stateScenario, script); err != nil {
		return nil, err
	}

	for _, part := range script.Suspects {
		character := &models.Character{
			SessionID:   session.ID,
			ID:          scenario.CharacterID("npc", part.Name),
			Name:        part.Name,
			Kind:        models.CharacterKindNPC,
			Personality: part.Personality,
			Background:  part.Background,
			Secrets:     part.Secret,
			Alive:       true,
		}
		character.AddMemory(
			fmt.Sprintf("I am %s, playing the %s", part.Name, part.Role),
			fmt.Sprintf("background: %s", part.Background))
		if err = g.characters.Create(ctx, character); err != nil {
			return nil, err
		}
	}

	if err = g.sessions.UpdatePhase(ctx, session.ID, PhaseIntroduction); err != nil {
		return nil, err
	}
	if err = g.hostSay(ctx, session.ID, PhaseIntroduction, briefing(script)); err != nil {
		return nil, err
	}

	g.scheduler.Start(session.ID, func(loopCtx context.Context) {
		g.runPhases(loopCtx, session.ID)
	})
	return g.sessions.Get(ctx, session.ID)
}

// runPhases is the session's automation loop. Each phase transition is
// persisted before its timer runs, so the phase clock can be observed (and the
// game resumed) from the database alone.
func (g *Game) runPhases(ctx context.Context, sessionID string) {
	introduction := g.complete(ctx, hostIntroductionPrompt(),
		"Welcome, everyone. Tonight a crime will be picked apart in this very room. Listen closely, trust nobody, and when the time comes, name the guilty.")
	if err := g.hostSay(ctx, sessionID, PhaseIntroduction, introduction); err != nil {
		g.logFailure(ctx, sessionID, err)
		return
	}
	if !g.advance(ctx, sessionID, PhaseIntroduction, g.timings.Introduction) {
		return
	}

	if !g.discussionPhase(ctx, sessionID) {
		return
	}

	if err := g.hostSay(ctx, sessionID, PhaseInvestigation,
		"The investigation is open. Search the scene, press the witnesses; the clock is running."); err != nil {
		g.logFailure(ctx, sessionID, err)
		return
	}
	if !g.advance(ctx, sessionID, PhaseInvestigation, g.timings.Investigation) {
		return
	}

	if err := g.hostSay(ctx, sessionID, PhaseFinalReasoning,
		"Final reasoning. Lay out your clues and prepare to point at the guilty."); err != nil {
		g.logFailure(ctx, sessionID, err)
		return
	}
	if !g.advance(ctx, sessionID, PhaseFinalReasoning, g.timings.FinalReasoning) {
		return
	}

	g.reveal(ctx, sessionID)
}

// advance moves the session into the next phase's wait. Returns false when the
// loop should stop: cancelled, or the game ended under it.
func (g *Game) advance(ctx context.Context, sessionID, phase string, wait time.Duration) bool {
	if err := g.sessions.UpdatePhase(ctx, sessionID, phase); err != nil {
		g.logFailure(ctx, sessionID, err)
		return false
	}
	if !scheduler.Sleep(ctx, wait) {
		return false
	}
	session, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		g.logFailure(ctx, sessionID, err)
		return false
	}
	return !session.Finished()
}

// discussionPhase has a random NPC speak on an interval until the discussion
// timer runs out.
func (g *Game) discussionPhase(ctx context.Context, sessionID string) bool {
	if err := g.sessions.UpdatePhase(ctx, sessionID, PhaseFreeDiscussion); err != nil {
		g.logFailure(ctx, sessionID, err)
		return false
	}

	deadline := time.Now().Add(g.timings.Discussion)
	for time.Now().Before(deadline) {
		session, err := g.sessions.Get(ctx, sessionID)
		if err != nil {
			g.logFailure(ctx, sessionID, err)
			return false
		}
		if session.Finished() {
			return false
		}
		if err = g.npcSpeech(ctx, sessionID); err != nil {
			g.logFailure(ctx, sessionID, err)
			return false
		}
		if !scheduler.Sleep(ctx, g.timings.SpeechInterval) {
			return false
		}
	}
	return true
}

// npcSpeech picks a random NPC and has them say something in character.
func (g *Game) npcSpeech(ctx context.Context, sessionID string) error {
	npcs, err := g.characters.GetByKind(ctx, sessionID, models.CharacterKindNPC)
	if err != nil {
		return err
	}
	if len(npcs) == 0 {
		return nil
	}
	speaker := random.Pick(npcs)

	transcript, err := g.recentTranscript(ctx, sessionID)
	if err != nil {
		return err
	}
	prompt := npcSpeechPrompt(speaker, transcript)
	speech := g.complete(ctx, prompt, "I keep going over that night in my head. Something about it doesn't add up.")

	if err = g.messages.Append(ctx, &models.Message{
		SessionID:   sessionID,
		SpeakerID:   speaker.ID,
		SpeakerName: speaker.Name,
		SpeakerKind: string(models.CharacterKindNPC),
		Content:     speech,
		Phase:       PhaseFreeDiscussion,
	}); err != nil {
		return err
	}
	return g.characters.AppendMemory(ctx, sessionID, speaker.ID, "spoke during the discussion", speech)
}

// reveal closes the night with the truth. A game that was never decided by an
// accusation ends as simply over.
func (g *Game) reveal(ctx context.Context, sessionID string) {
	session, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		g.logFailure(ctx, sessionID, err)
		return
	}
	if session.Finished() {
		return
	}

	var script models.Scenario
	if err = g.states.Get(ctx, sessionID, stateScenario, &script); err != nil {
		g.logFailure(ctx, sessionID, err)
		return
	}
	if err = g.sessions.UpdatePhase(ctx, sessionID, PhaseRevelation); err != nil {
		g.logFailure(ctx, sessionID, err)
		return
	}
	if err = g.hostSay(ctx, sessionID, PhaseRevelation, truthReveal(&script)); err != nil {
		g.logFailure(ctx, sessionID, err)
		return
	}
	if err = g.sessions.UpdateStatus(ctx, sessionID, models.SessionStatusEnded); err != nil {
		g.logFailure(ctx, sessionID, err)
	}
}

// Investigate searches a location and returns the clues found there.
func (g *Game) Investigate(ctx context.Context, sessionID, target string) ([]models.Clue, error) {
	session, script, err := g.interactive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var found []models.Clue
	for i := range script.Clues {
		clue := &script.Clues[i]
		if strings.Contains(strings.ToLower(clue.Location), strings.ToLower(strings.TrimSpace(target))) {
			clue.Discovered = true
			found = append(found, *clue)
		}
	}
	if err = g.states.Set(ctx, sessionID, stateScenario, script); err != nil {
		return nil, err
	}

	if err = g.playerSay(ctx, sessionID, session.Phase, fmt.Sprintf("Searches %s.", target)); err != nil {
		return nil, err
	}
	report := fmt.Sprintf("The search of %s turns up nothing of note.", target)
	if len(found) > 0 {
		var lines []string
		for _, clue := range found {
			lines = append(lines, "- "+clue.Description)
		}
		report = fmt.Sprintf("Found at %s:\n%s", target, strings.Join(lines, "\n"))
	}
	if err = g.hostSay(ctx, sessionID, session.Phase, report); err != nil {
		return nil, err
	}
	return found, nil
}

// Question puts a question to one of the NPCs, resolved by fuzzy name match.
func (g *Game) Question(ctx context.Context, sessionID, name, question string) (string, error) {
	session, script, err := g.interactive(ctx, sessionID)
	if err != nil {
		return "", err
	}

	resolved, found := scenario.FindSuspect(script.SuspectNames(), name)
	if !found {
		return "", errors.Wrap(ErrUnknownNPC, "question", slog.String("name", name))
	}
	character, err := g.characters.Get(ctx, sessionID, scenario.CharacterID("npc", resolved))
	if err != nil {
		return "", err
	}

	prompt := questionPrompt(character, question)
	answer := g.complete(ctx, prompt,
		fmt.Sprintf("%s hesitates. \"I've already said everything I'm willing to say.\"", resolved))

	if err = g.playerSay(ctx, sessionID, session.Phase, fmt.Sprintf("To %s: %s", resolved, question)); err != nil {
		return "", err
	}
	if err = g.messages.Append(ctx, &models.Message{
		SessionID:   sessionID,
		SpeakerID:   character.ID,
		SpeakerName: character.Name,
		SpeakerKind: string(models.CharacterKindNPC),
		Content:     answer,
		Phase:       session.Phase,
	}); err != nil {
		return "", err
	}
	if err = g.characters.AppendMemory(ctx, sessionID, character.ID,
		fmt.Sprintf("the detective asked: %s", question), fmt.Sprintf("I answered: %s", answer)); err != nil {
		return "", err
	}
	return answer, nil
}

// Analyze reflects on a discovered clue, resolved by id or description.
func (g *Game) Analyze(ctx context.Context, sessionID, evidence string) (string, error) {
	session, script, err := g.interactive(ctx, sessionID)
	if err != nil {
		return "", err
	}

	for i := range script.Clues {
		clue := &script.Clues[i]
		if scenario.FuzzyMatch(clue.ID, evidence) || scenario.FuzzyMatch(clue.Description, evidence) {
			clue.Analyzed = true
			if err = g.states.Set(ctx, sessionID, stateScenario, script); err != nil {
				return "", err
			}
			prompt := analysisPrompt(script, *clue)
			analysis := g.complete(ctx, prompt,
				fmt.Sprintf("The more you turn it over, the more %s looks deliberate rather than accidental.", clue.Description))
			if err = g.playerSay(ctx, sessionID, session.Phase, fmt.Sprintf("Considers: %s", clue.Description)); err != nil {
				return "", err
			}
			if err = g.hostSay(ctx, sessionID, session.Phase, analysis); err != nil {
				return "", err
			}
			return analysis, nil
		}
	}
	return "", errors.Wrap(ErrUnknownClue, "analyze", slog.String("evidence", evidence))
}

// Accuse ends the game: the accusation is checked against the truth, the host
// reveals everything, and the phase clock stops.
func (g *Game) Accuse(ctx context.Context, sessionID, accused, reasoning string) (bool, error) {
	session, script, err := g.interactive(ctx, sessionID)
	if err != nil {
		return false, err
	}

	correct := scenario.FuzzyMatch(accused, script.Truth.Culprit)
	if err = g.states.Set(ctx, sessionID, stateAccused, accused); err != nil {
		return false, err
	}

	if err = g.playerSay(ctx, sessionID, session.Phase,
		fmt.Sprintf("Accuses %s. Reasoning: %s", accused, reasoning)); err != nil {
		return false, err
	}

	var outcome string
	status := models.SessionStatusLost
	if correct {
		status = models.SessionStatusWon
		outcome = fmt.Sprintf("Correct! %s is the culprit.", script.Truth.Culprit)
	} else {
		outcome = fmt.Sprintf("Wrong. You accused %s, but the culprit is %s.", accused, script.Truth.Culprit)
	}
	reveal := fmt.Sprintf("%s\n\n%s", outcome, truthReveal(script))
	if err = g.sessions.UpdatePhase(ctx, sessionID, PhaseRevelation); err != nil {
		return false, err
	}
	if err = g.hostSay(ctx, sessionID, PhaseRevelation, reveal); err != nil {
		return false, err
	}
	if err = g.sessions.UpdateStatus(ctx, sessionID, status); err != nil {
		return false, err
	}

	g.scheduler.Stop(sessionID)
	return correct, nil
}

// interactive loads the script and refuses actions outside the interactive
// phases.
func (g *Game) interactive(ctx context.Context, sessionID string) (*models.Session, *models.Scenario, error) {
	session, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case session.Finished():
		return nil, nil, errors.Wrap(ErrWrongPhase, "the game is over")
	case session.Phase != PhaseFreeDiscussion && session.Phase != PhaseInvestigation && session.Phase != PhaseFinalReasoning:
		return nil, nil, errors.Wrap(ErrWrongPhase, "interactive action", slog.String("phase", session.Phase))
	}
	var script models.Scenario
	if err = g.states.Get(ctx, sessionID, stateScenario, &script); err != nil {
		return nil, nil, err
	}
	return session, &script, nil
}

func (g *Game) recentTranscript(ctx context.Context, sessionID string) (string, error) {
	messages, err := g.messages.ListPublic(ctx, sessionID)
	if err != nil {
		return "", err
	}
	const window = 5
	if len(messages) > window {
		messages = messages[len(messages)-window:]
	}
	var b strings.Builder
	for _, message := range messages {
		fmt.Fprintf(&b, "%s: %s\n", message.SpeakerName, message.Content)
	}
	return b.String(), nil
}

func (g *Game) hostSay(ctx context.Context, sessionID, phase, content string) error {
	return g.messages.Append(ctx, &models.Message{
		SessionID:   sessionID,
		SpeakerID:   models.SpeakerHost,
		SpeakerName: "Host",
		SpeakerKind: models.SpeakerHost,
		Content:     content,
		Phase:       phase,
	})
}

func (g *Game) playerSay(ctx context.Context, sessionID, phase, content string) error {
	return g.messages.Append(ctx, &models.Message{
		SessionID:   sessionID,
		SpeakerID:   models.SpeakerPlayer,
		SpeakerName: "Detective",
		SpeakerKind: string(models.CharacterKindPlayer),
		Content:     content,
		Phase:       phase,
	})
}

func (g *Game) complete(ctx context.Context, prompt, fallback string) string {
	response, err := g.completer.Complete(ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}})
	if err != nil || strings.TrimSpace(response) == "" {
		if err != nil {
			g.logger.LogAttrs(ctx, slog.LevelWarn, "completion failed, using fallback", errors.SlogError(err))
		}
		return fallback
	}
	return strings.TrimSpace(response)
}

func (g *Game) logFailure(ctx context.Context, sessionID string, err error) {
	g.logger.LogAttrs(ctx, slog.LevelError, "automation step failed",
		slog.String("session_id", sessionID), errors.SlogError(err))
}
