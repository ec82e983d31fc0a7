package scoring

import "FinScore/internal/domain/models"

const (
	tagRevenueUp   models.AlertTag = "Rev ↑"
	tagRevenueDown models.AlertTag = "Rev ↓"
)

// Alerts returns the triggered tags in dimension order, revenue last.
// Local tags use arrows ("↑ Liquidity"), global tags words ("Low Liquidity").
// Revenue tags exist only for the local cohort.
func Alerts(scores models.DimensionScores, revenue models.NullFloat, bands models.BandSet) []models.AlertTag {
	tags := make([]models.AlertTag, 0, models.NumDimensions+1)
	for _, d := range models.Dimensions() {
		v, b := scores[d], bands.Band(d)
		switch {
		case b.Above(v):
			tags = append(tags, highTag(d, bands.Cohort))
		case b.Below(v):
			tags = append(tags, lowTag(d, bands.Cohort))
		}
	}
	if bands.Cohort == models.CohortLocal && revenue.Valid {
		switch {
		case revenue.Float64 > bands.RevenueBoost:
			tags = append(tags, tagRevenueUp)
		case revenue.Float64 < bands.RevenueDrop:
			tags = append(tags, tagRevenueDown)
		}
	}
	return tags
}

func highTag(d models.Dimension, c models.Cohort) models.AlertTag {
	if c == models.CohortGlobal {
		return models.AlertTag("High " + d.Title())
	}
	return models.AlertTag("↑ " + d.Title())
}

func lowTag(d models.Dimension, c models.Cohort) models.AlertTag {
	if c == models.CohortGlobal {
		return models.AlertTag("Low " + d.Title())
	}
	return models.AlertTag("↓ " + d.Title())
}
