package models

// Scenario is the generated case or script payload for a detective or
// script-host session. It is immutable after generation except for the clue
// Discovered/Analyzed flags, which are player-driven.
type Scenario struct {
	Title    string
	Overview string
	Location string
	Time     string
	Victim   Victim
	Suspects []Suspect
	Clues    []Clue
	// Truth is the hidden solution. It is never exposed to the human player
	// before resolution.
	Truth Truth
}

// Victim describes who the case revolves around.
type Victim struct {
	Name        string
	Background  string
	DeathTime   string
	DeathMethod string
}

// Suspect seeds the creation of a suspect Character.
type Suspect struct {
	Name        string
	Role        string
	Background  string
	Personality string
	Motive      string
	Alibi       string
	Secret      string
}

// Clue is one piece of evidence that the player can discover and analyze.
// Tagged because discovered clues are returned to the player as-is.
type Clue struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Importance  int    `json:"importance"`
	Discovered  bool   `json:"discovered"`
	Analyzed    bool   `json:"analyzed"`
}

// Truth is the ground-truth solution of a scenario.
type Truth struct {
	Culprit  string
	Method   string
	Motive   string
	Evidence string
}

// SuspectNames lists the scenario's suspect names in order.
func (s *Scenario) SuspectNames() []string {
	names := make([]string, len(s.Suspects))
	for i, suspect := range s.Suspects {
		names[i] = suspect.Name
	}
	return names
}
