package scoring

import (
	"time"

	"FinScore/internal/domain/models"
	"FinScore/internal/services/features"
)

// RankCohort percentile-ranks every indicator of obs within the cohort.
// Local groups rows by company, Global groups rows by quarter date.
// The returned slice is aligned with obs.
func RankCohort(obs []models.Observation, c models.Cohort) []models.Ranks {
	out := make([]models.Ranks, len(obs))
	for _, group := range groupIndexes(obs, c) {
		for _, ind := range models.Indicators() {
			col := make([]models.NullFloat, len(group))
			for k, i := range group {
				col[k] = obs[i].Get(ind)
			}
			for k, r := range features.PercentileRanks(col) {
				out[group[k]][ind] = r
			}
		}
	}
	return out
}

// Normalize ranks the observations in both cohorts.
func Normalize(obs []models.Observation) []models.Normalized {
	local := RankCohort(obs, models.CohortLocal)
	global := RankCohort(obs, models.CohortGlobal)
	out := make([]models.Normalized, len(obs))
	for i, o := range obs {
		out[i] = models.Normalized{Observation: o, Local: local[i], Global: global[i]}
	}
	return out
}

func groupIndexes(obs []models.Observation, c models.Cohort) [][]int {
	var order []string
	groups := make(map[string][]int)
	for i, o := range obs {
		key := o.Company
		if c == models.CohortGlobal {
			key = o.Date.UTC().Format(time.DateOnly)
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	out := make([][]int, 0, len(order))
	for _, k := range order {
		out = append(out, groups[k])
	}
	return out
}
