package scenario

import "strings"

// FuzzyMatch reports whether two names refer to the same person. Player input
// and model output rarely agree on exact spelling, so after case-insensitive
// equality it accepts containment in either direction ("Chen" matches
// "Professor Chen").
func FuzzyMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// FindSuspect resolves a player-typed name against the suspect list, returning
// the canonical name and whether it matched.
func FindSuspect(names []string, input string) (string, bool) {
	for _, name := range names {
		if FuzzyMatch(name, input) {
			return name, true
		}
	}
	return "", false
}
