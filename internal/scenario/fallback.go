package scenario

import (
	"fmt"

	"github.com/myrjola/moriarty/internal/models"
)

func clueID(i int) string {
	return fmt.Sprintf("clue_%d", i+1)
}

// Fallback returns the canned scenario for a subtype. Unknown subtypes get the
// murder scenario. Every fallback is fully populated and its culprit resolves
// to a suspect, so the game downstream never has to special-case a degraded
// start.
func Fallback(subtype string) *models.Scenario {
	switch subtype {
	case SubtypeCampus, SubtypeModernCampus:
		return campusFallback()
	case SubtypeCastle, SubtypeAncientPalace:
		return castleFallback()
	default:
		return murderFallback()
	}
}

func murderFallback() *models.Scenario {
	return &models.Scenario{
		Title:    "The Harbourview Penthouse",
		Overview: "Property magnate Victor Lang was found dead in his locked penthouse above the marina, a glass of whisky untouched on the desk beside him. The security log shows four visitors that evening and the service lift was out of order. The family wants answers before the papers get the story.",
		Location: "Harbourview Tower penthouse, 32nd floor",
		Time:     "Friday, 11:40 pm",
		Victim: models.Victim{
			Name:        "Victor Lang",
			Background:  "Self-made property magnate, recently rewriting his will",
			DeathTime:   "between 10:30 pm and 11:00 pm",
			DeathMethod: "blunt trauma staged to look like a fall",
		},
		Suspects: []models.Suspect{
			{
				Name:        "Miriam Lang",
				Role:        "Estranged wife",
				Background:  "Married to Victor for twenty years, separated for two",
				Personality: "composed, sharp-tongued",
				Motive:      "stood to lose everything in the new will",
				Alibi:       "claims she left at 10:15 pm after an argument",
				Secret:      "hired a private investigator to follow Victor",
			},
			{
				Name:        "Douglas Pryce",
				Role:        "Business partner",
				Background:  "Co-founded the firm, lately sidelined from big decisions",
				Personality: "genial in public, resentful in private",
				Motive:      "Victor was about to buy out his stake at a low price",
				Alibi:       "says he was in the lobby bar with clients",
				Secret:      "forged Victor's signature on a loan guarantee",
			},
			{
				Name:        "Elena Vasquez",
				Role:        "Personal assistant",
				Background:  "Ran Victor's calendar and private affairs for six years",
				Personality: "meticulous, guarded",
				Motive:      "Victor discovered she leaked deal terms to a rival",
				Alibi:       "swears she was couriering documents across town",
				Secret:      "kept copies of Victor's private correspondence",
			},
			{
				Name:        "Tommy Lang",
				Role:        "Son",
				Background:  "Victor's only child, gambling debts he hid from the family",
				Personality: "charming, evasive",
				Motive:      "needed his inheritance before his creditors found him",
				Alibi:       "claims he was at a casino until midnight",
				Secret:      "visited the penthouse twice that week unannounced",
			},
			{
				Name:        "Grace Okafor",
				Role:        "Building manager",
				Background:  "Managed Harbourview Tower for a decade",
				Personality: "helpful, anxious about the building's reputation",
				Motive:      "Victor was about to expose her skimming maintenance fees",
				Alibi:       "on duty at the front desk, camera confirms most of it",
				Secret:      "disabled the service lift camera earlier that evening",
			},
		},
		Clues: []models.Clue{
			{ID: "clue_1", Type: "physical", Description: "A whisky glass with a second set of fingerprints, wiped in haste", Location: "the desk", Importance: 5},
			{ID: "clue_2", Type: "document", Description: "Draft of the new will, unsigned, with Douglas's stake crossed out", Location: "the study safe", Importance: 4},
			{ID: "clue_3", Type: "record", Description: "Security log shows the service lift moving at 10:47 pm despite being 'out of order'", Location: "the security office", Importance: 5},
			{ID: "clue_4", Type: "physical", Description: "A cufflink engraved 'DP' under the balcony door", Location: "the balcony", Importance: 4},
			{ID: "clue_5", Type: "testimony", Description: "The bartender remembers Douglas stepping out 'for a call' around 10:30 pm", Location: "the lobby bar", Importance: 4},
			{ID: "clue_6", Type: "record", Description: "A loan guarantee with a signature that doesn't match Victor's hand", Location: "the firm's files", Importance: 3},
			{ID: "clue_7", Type: "physical", Description: "Scuff marks on the service stairwell landing two floors down", Location: "the stairwell", Importance: 3},
		},
		Truth: models.Truth{
			Culprit:  "Douglas Pryce",
			Method:   "struck Victor during a confrontation over the buyout, then staged the scene and left by the service lift",
			Motive:   "the buyout would have exposed the forged loan guarantee and ruined him",
			Evidence: "the service lift log, the engraved cufflink, and the bartender's gap in his alibi",
		},
	}
}

func campusFallback() *models.Scenario {
	return &models.Scenario{
		Title:    "Night Terror in the Library",
		Overview: "Just before midnight, the student union president was found dead in the reading room of the university library. The doors were locked from the inside and no stranger passed the turnstiles. Five people connected to the dead student were still on campus that night.",
		Location: "University library reading room",
		Time:     "Wednesday, 11:30 pm",
		Victim: models.Victim{
			Name:        "Jordan Wells",
			Background:  "Student union president, ambitious and widely envied",
			DeathTime:   "around 11:00 pm",
			DeathMethod: "blow to the head with a heavy book-end",
		},
		Suspects: []models.Suspect{
			{
				Name:        "Sam Porter",
				Role:        "Roommate",
				Background:  "Jordan's roommate and the last person to see them alive",
				Personality: "nervous, easily flustered",
				Motive:      "no clear motive, but suspicious movements that night",
				Alibi:       "claims to have been out meeting someone from the internet",
				Secret:      "sneaked out that night and has no alibi at all",
			},
			{
				Name:        "Riley Chen",
				Role:        "Union vice-president",
				Background:  "Second-in-command who always wanted the top job",
				Personality: "ambitious, good at wearing a mask",
				Motive:      "taking control of the student union",
				Alibi:       "says the union office door log proves they left at 10:50 pm",
				Secret:      "had already quietly canvassed most of the union council",
			},
			{
				Name:        "Alex Mercer",
				Role:        "Ex-partner",
				Background:  "Recently and bitterly broken up with Jordan",
				Personality: "emotional, impulsive",
				Motive:      "revenge for the betrayal that ended the relationship",
				Alibi:       "claims to have been crying in a dorm common room",
				Secret:      "the breakup came after discovering Jordan's infidelity",
			},
			{
				Name:        "Priya Nair",
				Role:        "Top student",
				Background:  "Academic rival who lost a scholarship after a cheating report",
				Personality: "cool, precise, logical",
				Motive:      "Jordan's report cost her the scholarship",
				Alibi:       "library seat booking shows her two floors up",
				Secret:      "knows the reading room's side door doesn't latch properly",
			},
			{
				Name:        "Marcus Doyle",
				Role:        "Night security guard",
				Background:  "Responsible for the library overnight",
				Personality: "dutiful on the surface, something weighing on him",
				Motive:      "covering up a lapse on duty",
				Alibi:       "patrol log signed on the hour, every hour",
				Secret:      "slept through the 11 pm round and doctored the log",
			},
		},
		Clues: []models.Clue{
			{ID: "clue_1", Type: "digital", Description: "A threatening text on Jordan's phone from a withheld number", Location: "the scene", Importance: 5},
			{ID: "clue_2", Type: "record", Description: "The door access log shows an entry at 10:55 pm that nobody admits to", Location: "the security office", Importance: 5},
			{ID: "clue_3", Type: "document", Description: "Jordan's plan to restructure the union, removing the vice-president role", Location: "the reading desk", Importance: 4},
			{ID: "clue_4", Type: "physical", Description: "A torn-up letter in the wastebasket, pieced together it's a love letter", Location: "near the scene", Importance: 3},
			{ID: "clue_5", Type: "record", Description: "The camera covering the side corridor was facing a blind spot", Location: "the security office", Importance: 4},
			{ID: "clue_6", Type: "record", Description: "The patrol log's 11 pm signature in different ink from the rest", Location: "the security office", Importance: 4},
			{ID: "clue_7", Type: "record", Description: "Scholarship committee minutes naming Jordan as the cheating whistleblower", Location: "the registrar", Importance: 3},
			{ID: "clue_8", Type: "physical", Description: "A union council canvassing list in Riley's handwriting, dated before the murder", Location: "the union office", Importance: 5},
		},
		Truth: models.Truth{
			Culprit:  "Riley Chen",
			Method:   "waited for the reading room to empty, struck Jordan with a book-end, and slipped out the faulty side door",
			Motive:   "Jordan's restructuring plan would have abolished Riley's role and ended their union career",
			Evidence: "the unclaimed 10:55 pm door entry, the pre-dated canvassing list, and the disabled corridor camera",
		},
	}
}

func castleFallback() *models.Scenario {
	return &models.Scenario{
		Title:    "The Vanishing at Greyspire",
		Overview: "During a storm-bound weekend gathering at Greyspire Castle, the host's brother vanished from a tower room bolted from within. By morning a body lay at the foot of the cliff below the tower window, and every guest has a reason to lie about the night.",
		Location: "Greyspire Castle, north tower",
		Time:     "Saturday, past midnight",
		Victim: models.Victim{
			Name:        "Edmund Greyspire",
			Background:  "Younger brother of the castle's owner, recently returned from abroad with claims on the estate",
			DeathTime:   "shortly after midnight",
			DeathMethod: "fall from the tower window, helped along",
		},
		Suspects: []models.Suspect{
			{
				Name:        "Lady Constance Greyspire",
				Role:        "Castle owner",
				Background:  "Edmund's elder sister, sole mistress of Greyspire since their father's death",
				Personality: "proud, iron-willed",
				Motive:      "Edmund's claim threatened her hold on the estate",
				Alibi:       "says she retired to her chambers at eleven",
				Secret:      "the estate is mortgaged to the last stone",
			},
			{
				Name:        "Father Ambrose",
				Role:        "Family chaplain",
				Background:  "Served the family for thirty years and keeps its confessions",
				Personality: "gentle, evasive when pressed",
				Motive:      "Edmund knew what became of the father's last testament",
				Alibi:       "at prayer in the chapel, unwitnessed",
				Secret:      "burned the old lord's final will at Constance's request",
			},
			{
				Name:        "Captain Hale",
				Role:        "Old comrade",
				Background:  "Served with Edmund abroad, arrived uninvited that afternoon",
				Personality: "blunt, watchful",
				Motive:      "Edmund owed him a debt of honour and money",
				Alibi:       "drinking in the great hall, the steward confirms part of it",
				Secret:      "carried a letter proving Edmund deserted under fire",
			},
			{
				Name:        "Isolde Marsh",
				Role:        "Housekeeper",
				Background:  "Keeps Greyspire running and knows its hidden passages",
				Personality: "quiet, observant, loyal to the house",
				Motive:      "Edmund recognised her from a scandal years ago",
				Alibi:       "locking the east wing, keys account for her movements",
				Secret:      "is living under a name that is not her own",
			},
			{
				Name:        "Dr. Lucian Webb",
				Role:        "Family physician",
				Background:  "Summoned for Lady Constance's nerves, stayed for the storm",
				Personality: "smooth, professionally discreet",
				Motive:      "Edmund threatened to expose his morphine ledger",
				Alibi:       "claims he was mixing a draught in the stillroom",
				Secret:      "has been dosing Lady Constance far beyond any cure",
			},
		},
		Clues: []models.Clue{
			{ID: "clue_1", Type: "physical", Description: "The tower room's bolt was oiled and can be dropped from outside with a cord", Location: "the tower door", Importance: 5},
			{ID: "clue_2", Type: "physical", Description: "A length of waxed cord in the chapel's candle box", Location: "the chapel", Importance: 5},
			{ID: "clue_3", Type: "document", Description: "A charred corner of parchment bearing the old lord's seal", Location: "the chapel brazier", Importance: 4},
			{ID: "clue_4", Type: "testimony", Description: "The steward heard two voices in the tower stair near midnight, one of them calm", Location: "the great hall", Importance: 4},
			{ID: "clue_5", Type: "document", Description: "Edmund's letter demanding 'what our father truly left me' be produced by Sunday", Location: "Edmund's room", Importance: 5},
			{ID: "clue_6", Type: "physical", Description: "Fresh candle wax on the tower stair, though no sconce burns there", Location: "the tower stair", Importance: 3},
			{ID: "clue_7", Type: "record", Description: "The physician's ledger with pages razored out", Location: "the stillroom", Importance: 3},
		},
		Truth: models.Truth{
			Culprit:  "Father Ambrose",
			Method:   "lured Edmund to the tower to 'reveal the truth', pushed him from the window, and dropped the bolt from outside with a waxed cord",
			Motive:   "Edmund was about to expose that the chaplain destroyed their father's true will",
			Evidence: "the oiled bolt, the waxed cord in the candle box, and the charred sealed parchment",
		},
	}
}
