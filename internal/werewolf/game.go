// Package werewolf runs the AI-judged werewolf game: one human player at seat
// one, AI players at the remaining seats, and an AI judge narrating night and
// day. Every transition is persisted, so a game survives a process restart at
// any phase boundary.
package werewolf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/moriarty/internal/ai"
	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/models"
	"github.com/myrjola/moriarty/internal/random"
	"github.com/myrjola/moriarty/internal/repositories"
)

// Game phases.
const (
	PhaseNight         = "night"
	PhaseDayDiscussion = "day_discussion"
	PhaseDayVoting     = "day_voting"
	PhaseGameOver      = "game_over"
)

// State keys in the session's key-value bag.
const (
	statePlayers      = "players"
	stateKillTarget   = "night_kill_target"
	stateSaveTarget   = "witch_save_target"
	statePoisonTarget = "witch_poison_target"
	stateAntidoteUsed = "witch_antidote_used"
	statePoisonUsed   = "witch_poison_used"
	stateWinner       = "winner"
)

// The human player always sits at seat one.
const humanSeat = 1

var (
	ErrWrongPhase    = errors.NewSentinel("action not allowed in the current phase")
	ErrGameFinished  = errors.NewSentinel("the game is already over")
	ErrInvalidTarget = errors.NewSentinel("target is not a living player")
)

// Player is one seat at the table. Seat one is the human; the rest carry a
// character id for their AI persona.
type Player struct {
	Seat        int    `json:"seat"`
	CharacterID string `json:"character_id,omitempty"`
	Role        Role   `json:"role"`
	Alive       bool   `json:"alive"`
	Human       bool   `json:"human"`
}

type Game struct {
	sessions   *repositories.SessionRepository
	characters *repositories.CharacterRepository
	messages   *repositories.MessageRepository
	states     *repositories.StateRepository
	completer  ai.Completer
	logger     *slog.Logger
}

func New(
	sessions *repositories.SessionRepository,
	characters *repositories.CharacterRepository,
	messages *repositories.MessageRepository,
	states *repositories.StateRepository,
	completer ai.Completer,
	logger *slog.Logger,
) *Game {
	return &Game{
		sessions:   sessions,
		characters: characters,
		messages:   messages,
		states:     states,
		completer:  completer,
		logger:     logger.With("source", "werewolf.Game"),
	}
}

// Start creates a session, deals roles, spawns the judge and the AI players,
// posts the opening narration, and plays the first night through to the first
// day's discussion.
func (g *Game) Start(ctx context.Context, userID int64, playerCount int) (*models.Session, error) {
	playerCount = NormalizePlayerCount(playerCount)
	session, err := g.sessions.Create(ctx, models.GameKindWerewolf, userID)
	if err != nil {
		return nil, err
	}

	roles := GenerateRoles(playerCount)

	judge := &models.Character{
		SessionID:   session.ID,
		ID:          "judge",
		Name:        "Judge",
		Kind:        models.CharacterKindJudge,
		Personality: "fair and commanding, keeps the game moving and the tension high",
		Background:  "a seasoned werewolf judge",
		Alive:       true,
	}
	if err = g.characters.Create(ctx, judge); err != nil {
		return nil, err
	}

	players := make([]Player, 0, playerCount)
	players = append(players, Player{Seat: humanSeat, Role: roles[0], Alive: true, Human: true})
	for i := 1; i < playerCount; i++ {
		seat := i + 1
		role := roles[i]
		character := &models.Character{
			SessionID:   session.ID,
			ID:          fmt.Sprintf("seat_%d", seat),
			Name:        fmt.Sprintf("Player %d", seat),
			Kind:        models.CharacterKindNPC,
			Personality: PickPersonality(role),
			Background:  fmt.Sprintf("a werewolf player holding the %s role", role),
			Secrets:     fmt.Sprintf("true role: %s", role),
			Alive:       true,
		}
		if err = g.characters.Create(ctx, character); err != nil {
			return nil, err
		}
		players = append(players, Player{Seat: seat, CharacterID: character.ID, Role: role, Alive: true})
	}
	if err = g.states.Set(ctx, session.ID, statePlayers, players); err != nil {
		return nil, err
	}

	opening := g.openingAnnouncement(ctx, playerCount, roles)
	if err = g.judgeSay(ctx, session.ID, PhaseNight, opening); err != nil {
		return nil, err
	}
	roleMessage := fmt.Sprintf("Your role: %s.\n\n%s", roles[0], RoleDescription(roles[0]))
	if err = g.systemSay(ctx, session.ID, PhaseNight, roleMessage, true); err != nil {
		return nil, err
	}

	if err = g.RunNight(ctx, session.ID); err != nil {
		return nil, err
	}
	return g.sessions.Get(ctx, session.ID)
}

// PlayerRole returns the human player's role.
func (g *Game) PlayerRole(ctx context.Context, sessionID string) (Role, error) {
	players, err := g.loadPlayers(ctx, sessionID)
	if err != nil {
		return "", err
	}
	for _, player := range players {
		if player.Human {
			return player.Role, nil
		}
	}
	return "", errors.New("no human seat in player state", slog.String("session_id", sessionID))
}

// AlivePlayers lists the seats still in the game.
func (g *Game) AlivePlayers(ctx context.Context, sessionID string) ([]Player, error) {
	players, err := g.loadPlayers(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return alive(players), nil
}

func (g *Game) loadPlayers(ctx context.Context, sessionID string) ([]Player, error) {
	var players []Player
	if err := g.states.Get(ctx, sessionID, statePlayers, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (g *Game) savePlayers(ctx context.Context, sessionID string, players []Player) error {
	return g.states.Set(ctx, sessionID, statePlayers, players)
}

func alive(players []Player) []Player {
	living := make([]Player, 0, len(players))
	for _, player := range players {
		if player.Alive {
			living = append(living, player)
		}
	}
	return living
}

func bySeat(players []Player, seat int) (Player, bool) {
	for _, player := range players {
		if player.Seat == seat {
			return player, true
		}
	}
	return Player{}, false
}

func seatsOf(players []Player) []int {
	seats := make([]int, 0, len(players))
	for _, player := range players {
		seats = append(seats, player.Seat)
	}
	return seats
}

func (g *Game) judgeSay(ctx context.Context, sessionID, phase, content string) error {
	return g.messages.Append(ctx, &models.Message{
		SessionID:   sessionID,
		SpeakerID:   "judge",
		SpeakerName: "Judge",
		SpeakerKind: string(models.CharacterKindJudge),
		Content:     content,
		Phase:       phase,
	})
}

func (g *Game) systemSay(ctx context.Context, sessionID, phase, content string, private bool) error {
	return g.messages.Append(ctx, &models.Message{
		SessionID:   sessionID,
		SpeakerID:   models.SpeakerSystem,
		SpeakerName: "System",
		SpeakerKind: models.SpeakerSystem,
		Content:     content,
		Phase:       phase,
		Private:     private,
	})
}

func (g *Game) seatSay(ctx context.Context, sessionID, phase string, player Player, content string, private bool) error {
	speakerKind := "ai_player"
	speakerID := player.CharacterID
	if player.Human {
		speakerKind = string(models.CharacterKindPlayer)
		speakerID = models.SpeakerPlayer
	}
	return g.messages.Append(ctx, &models.Message{
		SessionID:   sessionID,
		SpeakerID:   speakerID,
		SpeakerName: fmt.Sprintf("Player %d", player.Seat),
		SpeakerKind: speakerKind,
		Content:     content,
		Phase:       phase,
		Private:     private,
	})
}

// complete asks the model and falls back to the provided text on any failure.
// The judge must never go silent because a backend call failed.
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

// chooseSeat parses a seat number out of a model response and validates it
// against the candidates. Returns the fallback choice when the response is
// unusable.
func chooseSeat(response string, candidates []int, fallback func() int) int {
	parsed, ok := parseSeat(response)
	if ok {
		for _, candidate := range candidates {
			if candidate == parsed {
				return parsed
			}
		}
	}
	return fallback()
}

// parseSeat extracts the first integer in the response. Models often wrap the
// answer in prose despite instructions.
func parseSeat(response string) (int, bool) {
	start := -1
	for i, r := range response {
		if r >= '0' && r <= '9' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			break
		}
	}
	if start == -1 {
		return 0, false
	}
	end := start
	for end < len(response) && response[end] >= '0' && response[end] <= '9' {
		end++
	}
	var seat int
	if _, err := fmt.Sscanf(response[start:end], "%d", &seat); err != nil {
		return 0, false
	}
	return seat, true
}

// preferHuman returns the human's seat if it is among candidates, otherwise a
// random candidate. The wolves and the seer both treat seat one as the most
// interesting target when the model gives no usable answer.
func preferHuman(candidates []Player) int {
	for _, candidate := range candidates {
		if candidate.Human {
			return candidate.Seat
		}
	}
	return random.Pick(candidates).Seat
}
