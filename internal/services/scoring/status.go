package scoring

import "FinScore/internal/domain/models"

// minPresentDimensions is the fewest scores a row needs to be classified.
const minPresentDimensions = 3

// facts is everything a rule may look at for one row.
type facts struct {
	scores  models.DimensionScores
	revenue models.NullFloat
	bands   models.BandSet
	present int
	red     int
	green   int
}

func newFacts(scores models.DimensionScores, revenue models.NullFloat, bands models.BandSet) facts {
	f := facts{scores: scores, revenue: revenue, bands: bands, present: scores.PresentCount()}
	for _, d := range models.Dimensions() {
		b := bands.Band(d)
		switch {
		case b.Below(scores[d]):
			f.red++
		case b.Above(scores[d]):
			f.green++
		}
	}
	return f
}

func (f facts) leverage() (models.NullFloat, models.Band) {
	return f.scores[models.LeverageAdjusted], f.bands.Band(models.LeverageAdjusted)
}

func (f facts) allInBand() bool {
	for _, d := range models.Dimensions() {
		v := f.scores[d]
		if v.Valid && !f.bands.Band(d).Contains(v) {
			return false
		}
	}
	return true
}

// rule pairs a label with its predicate. Rules are evaluated in slice
// order and the first match wins.
type rule struct {
	status models.Status
	when   func(f facts) bool
}

var (
	ruleLeveragedRisk = rule{models.StatusLeveragedRisk, func(f facts) bool {
		v, b := f.leverage()
		return b.Below(v)
	}}
	ruleExcellentHealth = rule{models.StatusExcellentHealth, func(f facts) bool {
		v, b := f.leverage()
		return b.Above(v) && f.red == 0 && f.revenue.Valid && f.revenue.Float64 > f.bands.RevenueBoost
	}}
	ruleCriticalRisk = rule{models.StatusCriticalRisk, func(f facts) bool { return f.red >= 3 }}
	ruleDanger       = rule{models.StatusDanger, func(f facts) bool { return f.red == 2 }}
	ruleStrong       = rule{models.StatusStrong, func(f facts) bool { return f.green >= 2 && f.red == 0 }}
	ruleGoodSignal   = rule{models.StatusGoodSignal, func(f facts) bool { return f.green > 0 && f.red == 0 }}
	ruleMixedRisk    = rule{models.StatusMixedRisk, func(f facts) bool { return f.red == f.green && f.red > 0 }}
	ruleCaution      = rule{models.StatusCaution, func(f facts) bool { return f.red == 1 && f.green == 0 }}
	ruleStable       = rule{models.StatusStable, func(f facts) bool { return f.allInBand() }}
)

// localRules is the full cascade. The leverage and revenue overrides come
// first; Mixed Risk must stay ahead of Caution.
var localRules = []rule{
	ruleLeveragedRisk,
	ruleExcellentHealth,
	ruleCriticalRisk,
	ruleDanger,
	ruleStrong,
	ruleGoodSignal,
	ruleMixedRisk,
	ruleCaution,
	ruleStable,
}

// globalRules drops the leverage and revenue overrides: revenue has no
// global threshold.
var globalRules = []rule{
	ruleCriticalRisk,
	ruleDanger,
	ruleStrong,
	ruleGoodSignal,
	ruleMixedRisk,
	ruleCaution,
	ruleStable,
}

func rulesFor(c models.Cohort) []rule {
	if c == models.CohortGlobal {
		return globalRules
	}
	return localRules
}

// Classify returns the first matching status of the cohort's cascade.
// Rows with fewer than three scores are Insufficient Data; rows no rule
// matches are Watch.
func Classify(scores models.DimensionScores, revenue models.NullFloat, bands models.BandSet) models.Status {
	if scores.PresentCount() < minPresentDimensions {
		return models.StatusInsufficientData
	}
	f := newFacts(scores, revenue, bands)
	for _, r := range rulesFor(bands.Cohort) {
		if r.when(f) {
			return r.status
		}
	}
	return models.StatusWatch
}

// Rules lists the cohort's cascade in evaluation order, guard and fallback
// included.
func Rules(c models.Cohort) []models.Status {
	rs := rulesFor(c)
	out := make([]models.Status, 0, len(rs)+2)
	out = append(out, models.StatusInsufficientData)
	for _, r := range rs {
		out = append(out, r.status)
	}
	return append(out, models.StatusWatch)
}

// Assess builds the dashboard row of one score row in one cohort.
func Assess(row models.ScoreRow, bands models.BandSet) models.Assessment {
	scores := row.Scores(bands.Cohort)
	return models.Assessment{
		Company:       row.Company,
		Quarter:       row.Quarter,
		Date:          row.Date,
		Cohort:        bands.Cohort,
		Scores:        scores,
		RevenueGrowth: row.RevenueGrowth,
		Macro:         row.Macro,
		Status:        Classify(scores, row.RevenueGrowth, bands),
		Alerts:        Alerts(scores, row.RevenueGrowth, bands),
	}
}

// AssessTable assesses every row of the table.
func AssessTable(table models.ScoreTable, bands models.BandSet) []models.Assessment {
	out := make([]models.Assessment, len(table.Rows))
	for i, r := range table.Rows {
		out[i] = Assess(r, bands)
	}
	return out
}
