package scoring

// RanksHigher reports whether totals a outrank totals b on the leaderboard:
// more total points first, more total kills breaking ties. Equal totals
// compare false both ways, so a stable sort keeps their existing order. This
// comparator is the single ranking rule for every renderer.
func RanksHigher(a, b TeamTotals) bool {
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	return a.TotalKills > b.TotalKills
}
