package models

import (
	"fmt"
	"strings"
)

// Cohort is the comparison population used for percentile ranks.
type Cohort string

const (
	// CohortLocal ranks a company against its own history.
	CohortLocal Cohort = "local"
	// CohortGlobal ranks all companies within the same quarter.
	CohortGlobal Cohort = "global"
)

// Cohorts lists both cohorts, local first.
func Cohorts() []Cohort { return []Cohort{CohortLocal, CohortGlobal} }

// ParseCohort accepts "local" or "global" (case-insensitive).
func ParseCohort(s string) (Cohort, error) {
	switch Cohort(strings.ToLower(strings.TrimSpace(s))) {
	case CohortLocal:
		return CohortLocal, nil
	case CohortGlobal:
		return CohortGlobal, nil
	}
	return "", fmt.Errorf("unknown cohort %q", s)
}

// Dimension is one of the four composite health scores.
type Dimension int

const (
	Profitability Dimension = iota
	Liquidity
	Solvency
	LeverageAdjusted
)

// NumDimensions is the size of the closed dimension set.
const NumDimensions = 4

type dimensionSpec struct {
	key      string
	title    string
	eventTag string
	compose  func(r Ranks) NullFloat
}

var dimensionSpecs = [NumDimensions]dimensionSpec{
	Profitability: {
		key:      "profitability",
		title:    "Profitability",
		eventTag: "profitability",
		compose: func(r Ranks) NullFloat {
			return Mean(r.Get(IndicatorROA), r.Get(IndicatorROE), r.Get(IndicatorNetMargin))
		},
	},
	Liquidity: {
		key:      "liquidity",
		title:    "Liquidity",
		eventTag: "liquidity",
		compose: func(r Ranks) NullFloat {
			return Mean(r.Get(IndicatorCurrentRatio), r.Get(IndicatorCashRatio))
		},
	},
	Solvency: {
		key:      "solvency",
		title:    "Solvency",
		eventTag: "solvency",
		compose: func(r Ranks) NullFloat {
			return Complement(r.Get(IndicatorDebtToEquity))
		},
	},
	LeverageAdjusted: {
		key:      "leverage_adjusted",
		title:    "Adj. Leverage",
		eventTag: "leverage",
		compose: func(r Ranks) NullFloat {
			return Mean(r.Get(IndicatorROE), Complement(r.Get(IndicatorDebtToEquity)))
		},
	},
}

// Dimensions lists all dimensions in their fixed evaluation order.
func Dimensions() []Dimension {
	return []Dimension{Profitability, Liquidity, Solvency, LeverageAdjusted}
}

// ParseDimension resolves a key such as "leverage_adjusted".
func ParseDimension(s string) (Dimension, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range Dimensions() {
		if dimensionSpecs[d].key == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown dimension %q", s)
}

// Valid reports whether d is one of the four dimensions.
func (d Dimension) Valid() bool { return d >= 0 && d < NumDimensions }

func (d Dimension) String() string {
	if !d.Valid() {
		return "unknown"
	}
	return dimensionSpecs[d].key
}

// Title is the label used inside alert tags.
func (d Dimension) Title() string { return dimensionSpecs[d].title }

// EventTag is the tag event annotations use to target this dimension.
func (d Dimension) EventTag() string { return dimensionSpecs[d].eventTag }

// Compose builds the dimension score from normalized ranks.
func (d Dimension) Compose(r Ranks) NullFloat { return dimensionSpecs[d].compose(r) }

// ScoreColumn is the wide-table column name, e.g. score_solvency_local.
func (d Dimension) ScoreColumn(c Cohort) string {
	return fmt.Sprintf("score_%s_%s", d, c)
}

func (d Dimension) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid dimension %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Dimension) UnmarshalText(b []byte) error {
	v, err := ParseDimension(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
