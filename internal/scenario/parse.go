package scenario

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/models"
)

var errNoJSON = errors.NewSentinel("response contains no JSON object")

// Model responses drift between key spellings from prompt to prompt, so the
// raw shape accepts every alias and resolution happens in toScenario.
type rawScenario struct {
	Title        string       `json:"title"`
	CaseOverview string       `json:"case_overview"`
	Overview     string       `json:"overview"`
	Background   string       `json:"background"`
	Location     string       `json:"location"`
	Time         string       `json:"time"`
	CaseInfo     *rawCaseInfo `json:"case_info"`
	Victim       rawVictim    `json:"victim"`
	Suspects     []rawSuspect `json:"suspects"`
	Characters   []rawSuspect `json:"characters"`
	KeyEvidence  []rawClue    `json:"key_evidence"`
	Clues        []rawClue    `json:"clues"`
	Truth        rawTruth     `json:"truth"`
}

type rawCaseInfo struct {
	Title      string          `json:"title"`
	Background string          `json:"background"`
	Location   string          `json:"location"`
	Time       string          `json:"time"`
	Victim     json.RawMessage `json:"victim"`
}

type rawVictim struct {
	Name        string `json:"name"`
	Background  string `json:"background"`
	DeathTime   string `json:"death_time"`
	DeathMethod string `json:"death_method"`
}

type rawSuspect struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Background  string `json:"background"`
	BasicInfo   string `json:"basic_info"`
	Personality string `json:"personality"`
	Motive      string `json:"motive"`
	Alibi       string `json:"alibi"`
	Secret      string `json:"secret"`
	Secrets     string `json:"secrets"`
}

type rawClue struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Importance  int    `json:"importance"`
}

type rawTruth struct {
	RealCulprit string `json:"real_culprit"`
	Culprit     string `json:"culprit"`
	Method      string `json:"method"`
	Motive      string `json:"motive"`
	Evidence    string `json:"evidence"`
}

// Parse extracts a scenario from a model response. The response may wrap the
// JSON in markdown fences or surround it with prose; everything outside the
// outermost braces is discarded.
func Parse(response string) (*models.Scenario, error) {
	payload, err := extractJSON(response)
	if err != nil {
		return nil, err
	}
	var raw rawScenario
	if err = json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	scenario := raw.toScenario()
	if err = validate(scenario); err != nil {
		return nil, err
	}
	return scenario, nil
}

func extractJSON(response string) (string, error) {
	trimmed := strings.TrimSpace(response)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end < start {
		return "", errors.Wrap(errNoJSON, "extract scenario JSON")
	}
	return trimmed[start : end+1], nil
}

func (raw rawScenario) toScenario() *models.Scenario {
	scenario := models.Scenario{
		Title:    raw.Title,
		Overview: firstNonEmpty(raw.CaseOverview, raw.Overview, raw.Background),
		Location: raw.Location,
		Time:     raw.Time,
		Victim: models.Victim{
			Name:        raw.Victim.Name,
			Background:  raw.Victim.Background,
			DeathTime:   raw.Victim.DeathTime,
			DeathMethod: raw.Victim.DeathMethod,
		},
		Truth: models.Truth{
			Culprit:  firstNonEmpty(raw.Truth.RealCulprit, raw.Truth.Culprit),
			Method:   raw.Truth.Method,
			Motive:   raw.Truth.Motive,
			Evidence: raw.Truth.Evidence,
		},
	}

	// Script-shaped responses nest the framing under case_info and may give
	// the victim as a bare name string.
	if raw.CaseInfo != nil {
		scenario.Title = firstNonEmpty(scenario.Title, raw.CaseInfo.Title)
		scenario.Overview = firstNonEmpty(scenario.Overview, raw.CaseInfo.Background)
		scenario.Location = firstNonEmpty(scenario.Location, raw.CaseInfo.Location)
		scenario.Time = firstNonEmpty(scenario.Time, raw.CaseInfo.Time)
		if scenario.Victim.Name == "" && len(raw.CaseInfo.Victim) > 0 {
			scenario.Victim = decodeVictim(raw.CaseInfo.Victim)
		}
	}

	rawSuspects := raw.Suspects
	if len(rawSuspects) == 0 {
		rawSuspects = raw.Characters
	}
	for _, s := range rawSuspects {
		scenario.Suspects = append(scenario.Suspects, models.Suspect{
			Name:        s.Name,
			Role:        s.Role,
			Background:  firstNonEmpty(s.Background, s.BasicInfo),
			Personality: s.Personality,
			Motive:      s.Motive,
			Alibi:       s.Alibi,
			Secret:      firstNonEmpty(s.Secret, s.Secrets),
		})
	}

	rawClues := raw.KeyEvidence
	if len(rawClues) == 0 {
		rawClues = raw.Clues
	}
	for i, c := range rawClues {
		clue := models.Clue{
			ID:          c.ID,
			Type:        c.Type,
			Description: c.Description,
			Location:    c.Location,
			Importance:  c.Importance,
		}
		if clue.ID == "" {
			clue.ID = clueID(i)
		}
		scenario.Clues = append(scenario.Clues, clue)
	}

	return &scenario
}

func decodeVictim(payload json.RawMessage) models.Victim {
	var name string
	if err := json.Unmarshal(payload, &name); err == nil {
		return models.Victim{Name: name}
	}
	var victim rawVictim
	if err := json.Unmarshal(payload, &victim); err == nil {
		return models.Victim{
			Name:        victim.Name,
			Background:  victim.Background,
			DeathTime:   victim.DeathTime,
			DeathMethod: victim.DeathMethod,
		}
	}
	return models.Victim{}
}

func validate(scenario *models.Scenario) error {
	if len(scenario.Suspects) == 0 {
		return errors.New("scenario has no suspects")
	}
	if len(scenario.Clues) == 0 {
		return errors.New("scenario has no clues")
	}
	if scenario.Truth.Culprit == "" {
		return errors.New("scenario has no culprit")
	}
	// An unresolvable culprit makes the game unwinnable.
	for _, suspect := range scenario.Suspects {
		if FuzzyMatch(suspect.Name, scenario.Truth.Culprit) {
			return nil
		}
	}
	return errors.New("culprit does not match any suspect",
		slog.String("culprit", scenario.Truth.Culprit))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
