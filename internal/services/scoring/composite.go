package scoring

import "FinScore/internal/domain/models"

// Composite applies each dimension's formula to one rank set.
func Composite(r models.Ranks) models.DimensionScores {
	var out models.DimensionScores
	for _, d := range models.Dimensions() {
		out[d] = d.Compose(r)
	}
	return out
}

// BuildScoreTable normalizes the observations in both cohorts and derives
// the composite scores. Revenue growth is carried through as the raw fraction.
func BuildScoreTable(obs []models.Observation) models.ScoreTable {
	norm := Normalize(obs)
	rows := make([]models.ScoreRow, len(norm))
	for i, n := range norm {
		o := n.Observation
		rows[i] = models.ScoreRow{
			Company:       o.Company,
			Quarter:       o.Quarter,
			Date:          o.Date,
			RevenueGrowth: o.RevenueGrowth,
			Macro:         o.Macro,
			Local:         Composite(n.Local),
			Global:        Composite(n.Global),
		}
	}
	return models.NewScoreTable(rows)
}
