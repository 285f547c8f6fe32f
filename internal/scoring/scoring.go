package scoring

import "fmt"

// KillPointMultiplier is the number of points awarded per kill. It is the one
// tunable scoring parameter, so it lives here as a named constant rather than
// a literal in the formulas below.
const KillPointMultiplier = 1

// Bounds shared by manual entry validation and AI extraction validation.
const (
	MinPlacement = 1
	MaxPlacement = 18
	MaxKills     = 50
)

// placementPointsTable maps a final placement to its point reward. Placements
// outside the table score zero.
var placementPointsTable = map[int]int{
	1: 10,
	2: 6,
	3: 5,
	4: 4,
	5: 3,
	6: 2,
	7: 1,
	8: 1,
}

// PlacementPoints returns the points for a final placement. It is total: any
// integer outside the rewarded range scores 0.
func PlacementPoints(placement int) int {
	return placementPointsTable[placement]
}

// KillPoints returns the points for a kill count.
func KillPoints(kills int) int {
	return kills * KillPointMultiplier
}

// RecordPoints computes the points for a single match result. Every scoring
// path (extraction, manual entry, admin correction) goes through this
// function so stored points can never drift between paths.
func RecordPoints(placement, kills int) int {
	return PlacementPoints(placement) + KillPoints(kills)
}

// ValidatePlacement checks that a placement is one a PUBG lobby can produce.
func ValidatePlacement(placement int) error {
	if placement < MinPlacement || placement > MaxPlacement {
		return fmt.Errorf("placement %d out of range [%d, %d]", placement, MinPlacement, MaxPlacement)
	}
	return nil
}

// ValidateKills checks that a kill count is plausible for one match.
func ValidateKills(kills int) error {
	if kills < 0 || kills > MaxKills {
		return fmt.Errorf("kills %d out of range [0, %d]", kills, MaxKills)
	}
	return nil
}

// MatchEntry is the scoring-relevant slice of a match record. Placement and
// Kills are nil while a record awaits extraction or manual review.
type MatchEntry struct {
	Placement *int
	Kills     *int
}

// TeamTotals holds the six derived statistics for a team.
type TeamTotals struct {
	TotalPoints     int `json:"total_points"`
	PlacementPoints int `json:"placement_points"`
	KillPoints      int `json:"kill_points"`
	TotalKills      int `json:"total_kills"`
	MatchesPlayed   int `json:"matches_played"`
	FirstPlaceWins  int `json:"first_place_wins"`
}

// Aggregate recomputes a team's totals from its full record set. It replaces,
// never patches: callers overwrite all six stored fields with the result.
// Entries with nil placement or kills count toward MatchesPlayed only.
func Aggregate(entries []MatchEntry) TeamTotals {
	var totals TeamTotals
	totals.MatchesPlayed = len(entries)
	for _, entry := range entries {
		if entry.Kills != nil {
			totals.TotalKills += *entry.Kills
		}
		if entry.Placement != nil {
			totals.PlacementPoints += PlacementPoints(*entry.Placement)
			if *entry.Placement == 1 {
				totals.FirstPlaceWins++
			}
		}
	}
	totals.KillPoints = KillPoints(totals.TotalKills)
	totals.TotalPoints = totals.PlacementPoints + totals.KillPoints
	return totals
}
