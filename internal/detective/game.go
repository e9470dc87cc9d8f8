// Package detective runs the player-driven detective case: a generated
// whodunnit the player cracks by investigating locations, interrogating
// suspects, and analyzing evidence before accusing a culprit.
package detective

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/myrjola/moriarty/internal/ai"
	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/models"
	"github.com/myrjola/moriarty/internal/repositories"
	"github.com/myrjola/moriarty/internal/scenario"
)

// Case phases.
const (
	PhaseInvestigation = "investigation"
	PhaseCaseClosed    = "case_closed"
)

// State keys.
const (
	stateScenario = "scenario"
	stateActions  = "actions"
	stateNotebook = "notebook"
	stateHinted   = "hint_nudged"
	stateVerdict  = "verdict"
)

// Scoring: a correct accusation earns the correctness bonus, fewer actions
// earn a bigger efficiency bonus, and each discovered clue adds a little.
const (
	correctnessBonus     = 60
	efficiencyBase       = 30
	efficiencyCostPerAct = 2
	cluePointsEach       = 2
	clueBonusCap         = 10
)

// An investigation this long without a conclusion earns a gentle nudge.
const actionsBeforeNudge = 10

var (
	ErrWrongPhase     = errors.NewSentinel("the case is not open for that action")
	ErrUnknownSuspect = errors.NewSentinel("no such suspect in this case")
	ErrUnknownClue    = errors.NewSentinel("no such piece of evidence in this case")
)

// NotebookEntry is one line in the player's case notebook.
type NotebookEntry struct {
	Kind      string    `json:"kind"` // investigation, interrogation, analysis, hint
	Subject   string    `json:"subject"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// Verdict is the outcome of a submitted conclusion.
type Verdict struct {
	Correct         bool   `json:"correct"`
	Accused         string `json:"accused"`
	Culprit         string `json:"culprit"`
	Score           int    `json:"score"`
	CorrectnessPart int    `json:"correctness_part"`
	EfficiencyPart  int    `json:"efficiency_part"`
	CluePart        int    `json:"clue_part"`
	Feedback        string `json:"feedback"`
}

type Game struct {
	sessions   *repositories.SessionRepository
	characters *repositories.CharacterRepository
	messages   *repositories.MessageRepository
	states     *repositories.StateRepository
	scores     *repositories.ScoreRepository
	generator  *scenario.Generator
	completer  ai.Completer
	logger     *slog.Logger
}

func New(
	sessions *repositories.SessionRepository,
	characters *repositories.CharacterRepository,
	messages *repositories.MessageRepository,
	states *repositories.StateRepository,
	scores *repositories.ScoreRepository,
	generator *scenario.Generator,
	completer ai.Completer,
	logger *slog.Logger,
) *Game {
	return &Game{
		sessions:   sessions,
		characters: characters,
		messages:   messages,
		states:     states,
		scores:     scores,
		generator:  generator,
		completer:  completer,
		logger:     logger.With("source", "detective.Game"),
	}
}

// StartCase creates a session, generates the case, spawns the suspects as
// characters, and briefs the player.
func (g *Game) StartCase(ctx context.Context, userID int64, subtype string) (*models.Session, error) {
	session, err := g.sessions.Create(ctx, models.GameKindDetective, userID)
	if err != nil {
		return nil, err
	}

	generated := g.generator.Generate(ctx, subtype)
	if err = g.states.Set(ctx, session.ID, stateScenario, generated); err != nil {
		return nil, err
	}

	for _, suspect := range generated.Suspects {
		character := &models.Character{
			SessionID:   session.ID,
			ID:          scenario.CharacterID("suspect", suspect.Name),
			Name:        suspect.Name,
			Kind:        models.CharacterKindSuspect,
			Personality: suspect.Personality,
			Background:  suspect.Background,
			Secrets:     suspect.Secret,
			Alive:       true,
		}
		if err = g.characters.Create(ctx, character); err != nil {
			return nil, err
		}
	}

	if err = g.sessions.UpdatePhase(ctx, session.ID, PhaseInvestigation); err != nil {
		return nil, err
	}

	briefing := fmt.Sprintf("Case file: %s\n\n%s", generated.Title, generated.Overview)
	if err = g.systemSay(ctx, session.ID, briefing); err != nil {
		return nil, err
	}
	var suspectLines []string
	for _, suspect := range generated.Suspects {
		suspectLines = append(suspectLines, fmt.Sprintf("- %s, %s. %s", suspect.Name, suspect.Role, suspect.Background))
	}
	if err = g.systemSay(ctx, session.ID, "Persons of interest:\n"+strings.Join(suspectLines, "\n")); err != nil {
		return nil, err
	}
	scene := fmt.Sprintf("The scene: %s, %s. The victim is %s.", generated.Location, generated.Time, generated.Victim.Name)
	if err = g.systemSay(ctx, session.ID, scene); err != nil {
		return nil, err
	}

	return g.sessions.Get(ctx, session.ID)
}

// Investigate examines a location or object. A matching undiscovered clue is
// revealed; either way the model narrates what the detective finds.
func (g *Game) Investigate(ctx context.Context, sessionID, target string) (string, error) {
	current, err := g.openCase(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var discovered *models.Clue
	for i := range current.Clues {
		clue := &current.Clues[i]
		if clue.Discovered {
			continue
		}
		if scenario.FuzzyMatch(clue.Location, target) || scenario.FuzzyMatch(clue.Description, target) {
			clue.Discovered = true
			discovered = clue
			break
		}
	}
	if err = g.states.Set(ctx, sessionID, stateScenario, current); err != nil {
		return "", err
	}

	prompt := investigationPrompt(current, target, discovered)
	fallback := fmt.Sprintf("You comb through %s but find nothing you didn't already know.", target)
	if discovered != nil {
		fallback = fmt.Sprintf("Searching %s, you find something: %s.", target, discovered.Description)
	}
	narrative := g.complete(ctx, prompt, fallback)

	if err = g.playerSay(ctx, sessionID, fmt.Sprintf("Investigate: %s", target)); err != nil {
		return "", err
	}
	if err = g.systemSay(ctx, sessionID, narrative); err != nil {
		return "", err
	}
	note := fmt.Sprintf("searched %s", target)
	if discovered != nil {
		note = fmt.Sprintf("searched %s and found: %s", target, discovered.Description)
	}
	if err = g.recordAction(ctx, sessionID, NotebookEntry{
		Kind: "investigation", Subject: target, Note: note, Timestamp: time.Now(),
	}); err != nil {
		return "", err
	}
	return narrative, nil
}

// Interrogate puts a question to a suspect, resolved by fuzzy name match.
// The suspect answers in character, guarding their secret unless the question
// corners them.
func (g *Game) Interrogate(ctx context.Context, sessionID, suspectName, question string) (string, error) {
	current, err := g.openCase(ctx, sessionID)
	if err != nil {
		return "", err
	}

	resolved, found := scenario.FindSuspect(current.SuspectNames(), suspectName)
	if !found {
		return "", errors.Wrap(ErrUnknownSuspect, "interrogate", slog.String("name", suspectName))
	}
	var suspect models.Suspect
	for _, s := range current.Suspects {
		if s.Name == resolved {
			suspect = s
			break
		}
	}

	character, err := g.characters.Get(ctx, sessionID, scenario.CharacterID("suspect", resolved))
	if err != nil {
		return "", err
	}

	prompt := interrogationPrompt(current, suspect, character.RecentMemory(10), question)
	fallback := fmt.Sprintf("%s meets your eyes without flinching. \"I've told you everything I know.\"", resolved)
	answer := g.complete(ctx, prompt, fallback)

	if err = g.playerSay(ctx, sessionID, fmt.Sprintf("To %s: %s", resolved, question)); err != nil {
		return "", err
	}
	if err = g.messages.Append(ctx, &models.Message{
		SessionID:   sessionID,
		SpeakerID:   character.ID,
		SpeakerName: resolved,
		SpeakerKind: string(models.CharacterKindSuspect),
		Content:     answer,
		Phase:       PhaseInvestigation,
	}); err != nil {
		return "", err
	}
	if err = g.characters.AppendMemory(ctx, sessionID, character.ID,
		fmt.Sprintf("the detective asked: %s", question), fmt.Sprintf("I answered: %s", answer)); err != nil {
		return "", err
	}
	if err = g.recordAction(ctx, sessionID, NotebookEntry{
		Kind: "interrogation", Subject: resolved,
		Note:      fmt.Sprintf("asked %q, they said %q", question, answer),
		Timestamp: time.Now(),
	}); err != nil {
		return "", err
	}
	return answer, nil
}

// AnalyzeEvidence takes a closer look at a discovered clue, resolved by fuzzy
// match against clue ids and descriptions.
func (g *Game) AnalyzeEvidence(ctx context.Context, sessionID, evidence string) (string, error) {
	current, err := g.openCase(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var clue *models.Clue
	for i := range current.Clues {
		candidate := &current.Clues[i]
		if scenario.FuzzyMatch(candidate.ID, evidence) || scenario.FuzzyMatch(candidate.Description, evidence) {
			clue = candidate
			break
		}
	}
	if clue == nil {
		return "", errors.Wrap(ErrUnknownClue, "analyze evidence", slog.String("evidence", evidence))
	}
	clue.Discovered = true
	clue.Analyzed = true
	if err = g.states.Set(ctx, sessionID, stateScenario, current); err != nil {
		return "", err
	}

	prompt := analysisPrompt(current, *clue)
	fallback := fmt.Sprintf("On close examination, %s seems significant, but its meaning stays just out of reach.", clue.Description)
	analysis := g.complete(ctx, prompt, fallback)

	if err = g.playerSay(ctx, sessionID, fmt.Sprintf("Analyze: %s", clue.Description)); err != nil {
		return "", err
	}
	if err = g.systemSay(ctx, sessionID, analysis); err != nil {
		return "", err
	}
	if err = g.recordAction(ctx, sessionID, NotebookEntry{
		Kind: "analysis", Subject: clue.ID,
		Note:      fmt.Sprintf("analyzed %s: %s", clue.Description, analysis),
		Timestamp: time.Now(),
	}); err != nil {
		return "", err
	}
	return analysis, nil
}

// Notebook returns the player's case notes in order.
func (g *Game) Notebook(ctx context.Context, sessionID string) ([]NotebookEntry, error) {
	var notebook []NotebookEntry
	err := g.states.Get(ctx, sessionID, stateNotebook, &notebook)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return notebook, err
}

// Hint gives a nudge without naming the culprit: the model hints from the
// case state, the fallback points at the most important undiscovered clue.
func (g *Game) Hint(ctx context.Context, sessionID string) (string, error) {
	current, err := g.openCase(ctx, sessionID)
	if err != nil {
		return "", err
	}

	prompt := hintPrompt(current)
	hint := g.complete(ctx, prompt, fallbackHint(current))

	if err = g.playerSay(ctx, sessionID, "Request a hint"); err != nil {
		return "", err
	}
	if err = g.systemSay(ctx, sessionID, "Hint: "+hint); err != nil {
		return "", err
	}
	if err = g.recordAction(ctx, sessionID, NotebookEntry{
		Kind: "hint", Subject: "hint", Note: hint, Timestamp: time.Now(),
	}); err != nil {
		return "", err
	}
	return hint, nil
}

// SubmitConclusion closes the case. The accusation is checked against the
// truth by fuzzy match, scored, and the session finishes won or lost.
func (g *Game) SubmitConclusion(ctx context.Context, sessionID, accused, reasoning string) (*Verdict, error) {
	current, err := g.openCase(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	actions, err := g.actionCount(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	discovered := 0
	for _, clue := range current.Clues {
		if clue.Discovered {
			discovered++
		}
	}

	correct := scenario.FuzzyMatch(accused, current.Truth.Culprit)
	verdict := &Verdict{
		Correct: correct,
		Accused: accused,
		Culprit: current.Truth.Culprit,
	}
	if correct {
		verdict.CorrectnessPart = correctnessBonus
	}
	verdict.EfficiencyPart = efficiencyBase - efficiencyCostPerAct*actions
	if verdict.EfficiencyPart < 0 {
		verdict.EfficiencyPart = 0
	}
	verdict.CluePart = cluePointsEach * discovered
	if verdict.CluePart > clueBonusCap {
		verdict.CluePart = clueBonusCap
	}
	verdict.Score = verdict.CorrectnessPart + verdict.EfficiencyPart + verdict.CluePart

	prompt := evaluationPrompt(current, accused, reasoning, correct)
	verdict.Feedback = g.complete(ctx, prompt, fallbackFeedback(current, correct))

	if err = g.playerSay(ctx, sessionID,
		fmt.Sprintf("Conclusion: the culprit is %s. %s", accused, reasoning)); err != nil {
		return nil, err
	}
	reveal := fmt.Sprintf("%s\n\nThe truth: %s did it. %s Motive: %s. The deciding evidence: %s.",
		verdict.Feedback, current.Truth.Culprit, current.Truth.Method, current.Truth.Motive, current.Truth.Evidence)
	if err = g.systemSay(ctx, sessionID, reveal); err != nil {
		return nil, err
	}

	status := models.SessionStatusLost
	if correct {
		status = models.SessionStatusWon
	}
	if err = g.sessions.UpdatePhase(ctx, sessionID, PhaseCaseClosed); err != nil {
		return nil, err
	}
	if err = g.sessions.UpdateStatus(ctx, sessionID, status); err != nil {
		return nil, err
	}
	if err = g.states.Set(ctx, sessionID, stateVerdict, verdict); err != nil {
		return nil, err
	}
	if err = g.scores.Record(ctx, sessionID, session.UserID, models.GameKindDetective, verdict.Score, verdict); err != nil {
		return nil, err
	}
	return verdict, nil
}

// openCase loads the scenario and refuses actions on a closed case.
func (g *Game) openCase(ctx context.Context, sessionID string) (*models.Scenario, error) {
	session, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Finished() || session.Phase != PhaseInvestigation {
		return nil, errors.Wrap(ErrWrongPhase, "open case", slog.String("phase", session.Phase))
	}
	var current models.Scenario
	if err = g.states.Get(ctx, sessionID, stateScenario, &current); err != nil {
		return nil, err
	}
	return &current, nil
}

// recordAction appends a notebook entry, bumps the action counter, and nudges
// the player once if the case has dragged on without a conclusion.
func (g *Game) recordAction(ctx context.Context, sessionID string, entry NotebookEntry) error {
	notebook, err := g.Notebook(ctx, sessionID)
	if err != nil {
		return err
	}
	notebook = append(notebook, entry)
	if err = g.states.Set(ctx, sessionID, stateNotebook, notebook); err != nil {
		return err
	}

	actions, err := g.actionCount(ctx, sessionID)
	if err != nil {
		return err
	}
	actions++
	if err = g.states.Set(ctx, sessionID, stateActions, actions); err != nil {
		return err
	}

	if actions >= actionsBeforeNudge {
		nudged, err := g.boolState(ctx, sessionID, stateHinted)
		if err != nil {
			return err
		}
		if !nudged {
			if err = g.states.Set(ctx, sessionID, stateHinted, true); err != nil {
				return err
			}
			return g.systemSay(ctx, sessionID,
				"You have gathered a lot of material. When the pieces line up, submit your conclusion.")
		}
	}
	return nil
}

func (g *Game) actionCount(ctx context.Context, sessionID string) (int, error) {
	var actions int
	err := g.states.Get(ctx, sessionID, stateActions, &actions)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, nil
	}
	return actions, err
}

func (g *Game) boolState(ctx context.Context, sessionID, key string) (bool, error) {
	var value bool
	err := g.states.Get(ctx, sessionID, key, &value)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	return value, err
}

func (g *Game) systemSay(ctx context.Context, sessionID, content string) error {
	return g.messages.Append(ctx, &models.Message{
		SessionID:   sessionID,
		SpeakerID:   models.SpeakerSystem,
		SpeakerName: "Case File",
		SpeakerKind: models.SpeakerSystem,
		Content:     content,
		Phase:       PhaseInvestigation,
	})
}

func (g *Game) playerSay(ctx context.Context, sessionID, content string) error {
	return g.messages.Append(ctx, &models.Message{
		SessionID:   sessionID,
		SpeakerID:   models.SpeakerPlayer,
		SpeakerName: "Detective",
		SpeakerKind: string(models.CharacterKindPlayer),
		Content:     content,
		Phase:       PhaseInvestigation,
	})
}

func (g *Game) complete(ctx context.Context, prompt, fallback string) string {
	response, err := g.completer.Complete(ctx, []ai.Message{{Role: ai.RoleSystem, Content: prompt}})
	if err != nil || strings.TrimSpace(response) == "" {
		if err != nil {
			g.logger.LogAttrs(ctx, slog.LevelWarn, "completion failed, using fallback", errors.SlogError(err))
		}
		return fallback
	}
	return strings.TrimSpace(response)
}
