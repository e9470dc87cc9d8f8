package werewolf

import (
	"github.com/myrjola/moriarty/internal/random"
)

// Role is a werewolf game role.
type Role string

const (
	RoleWerewolf Role = "werewolf"
	RoleVillager Role = "villager"
	RoleSeer     Role = "seer"
	RoleWitch    Role = "witch"
)

// DefaultPlayerCount is used when a requested table size is not supported.
const DefaultPlayerCount = 8

// roleTables maps supported table sizes to their role distribution.
var roleTables = map[int]map[Role]int{
	6:  {RoleWerewolf: 2, RoleVillager: 3, RoleSeer: 1},
	8:  {RoleWerewolf: 2, RoleVillager: 4, RoleSeer: 1, RoleWitch: 1},
	10: {RoleWerewolf: 3, RoleVillager: 5, RoleSeer: 1, RoleWitch: 1},
	12: {RoleWerewolf: 4, RoleVillager: 6, RoleSeer: 1, RoleWitch: 1},
}

// NormalizePlayerCount clamps a requested player count to a supported table size.
func NormalizePlayerCount(playerCount int) int {
	if _, ok := roleTables[playerCount]; !ok {
		return DefaultPlayerCount
	}
	return playerCount
}

// GenerateRoles deals a shuffled role list for the table size. Unsupported
// sizes fall back to the default table.
func GenerateRoles(playerCount int) []Role {
	config := roleTables[NormalizePlayerCount(playerCount)]
	roles := make([]Role, 0, playerCount)
	for _, role := range []Role{RoleWerewolf, RoleVillager, RoleSeer, RoleWitch} {
		for i := 0; i < config[role]; i++ {
			roles = append(roles, role)
		}
	}
	random.Shuffle(roles)
	return roles
}

// RoleDescription is shown privately to the human player at setup.
func RoleDescription(role Role) string {
	switch role {
	case RoleWerewolf:
		return "Werewolf. Each night you and your pack choose a victim. Win by reducing the village until the wolves are no longer outnumbered."
	case RoleVillager:
		return "Villager. You have no night power, but your vote by day is the village's only weapon. Find the wolves and vote them out."
	case RoleSeer:
		return "Seer. Each night you may learn whether one player is a werewolf. Use what you learn to steer the village without exposing yourself."
	case RoleWitch:
		return "Witch. You hold one antidote and one poison. The antidote saves the wolves' victim; the poison kills a player of your choice. Each can be used once."
	default:
		return "Unknown role."
	}
}

var personalityPools = map[Role][]string{
	RoleWerewolf: {
		"cunning and careful, skilled at deflecting suspicion onto others",
		"calm and logical, muddies the waters with plausible-sounding analysis",
		"outwardly friendly, quietly frames whoever looks easiest to condemn",
	},
	RoleVillager: {
		"honest and analytical, but easily led astray by confident speakers",
		"blunt and passionate, quick to accuse and quick to apologise",
		"a careful observer who says little until the vote matters",
	},
	RoleSeer: {
		"wise and measured, guides the discussion without revealing too much",
		"keeps a low profile, passes information through hints",
		"bold when it counts, willing to claim the role at the right moment",
	},
	RoleWitch: {
		"mysterious and watchful, spends the potions only when forced to",
		"coolly rational, reads the table from small details",
	},
}

// PickPersonality draws a personality line for an AI player's role.
func PickPersonality(role Role) string {
	pool, ok := personalityPools[role]
	if !ok || len(pool) == 0 {
		return "an ordinary player who adapts to the table"
	}
	return random.Pick(pool)
}
