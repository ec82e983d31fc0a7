package models

import "time"

// Observation is one company's raw ratios for one quarter. Ratios are
// fractions (0.05 means 5%).
type Observation struct {
	Company string
	Quarter string
	Date    time.Time

	ROA           NullFloat
	ROE           NullFloat
	NetMargin     NullFloat
	CurrentRatio  NullFloat
	CashRatio     NullFloat
	DebtToEquity  NullFloat
	RevenueGrowth NullFloat

	Macro Macro
}

// Macro is the optional economic context of a quarter.
type Macro struct {
	Inflation    NullFloat `json:"inflation_yoy"`
	GDPGrowth    NullFloat `json:"gdp_growth_rate"`
	InterestRate NullFloat `json:"interest_rate"`
}

// Indicator is one normalized raw ratio.
type Indicator int

const (
	IndicatorROA Indicator = iota
	IndicatorROE
	IndicatorNetMargin
	IndicatorCurrentRatio
	IndicatorCashRatio
	IndicatorDebtToEquity
	IndicatorRevenueGrowth
	indicatorCount
)

var indicatorNames = [...]string{
	"roa", "roe", "net_margin", "current_ratio", "cash_ratio", "debt_to_equity", "revenue_growth",
}

// Indicators lists every indicator in column order.
func Indicators() []Indicator {
	out := make([]Indicator, indicatorCount)
	for i := range out {
		out[i] = Indicator(i)
	}
	return out
}

func (i Indicator) String() string {
	if i < 0 || i >= indicatorCount {
		return "unknown"
	}
	return indicatorNames[i]
}

// Get reads the raw value of an indicator.
func (o Observation) Get(i Indicator) NullFloat {
	switch i {
	case IndicatorROA:
		return o.ROA
	case IndicatorROE:
		return o.ROE
	case IndicatorNetMargin:
		return o.NetMargin
	case IndicatorCurrentRatio:
		return o.CurrentRatio
	case IndicatorCashRatio:
		return o.CashRatio
	case IndicatorDebtToEquity:
		return o.DebtToEquity
	case IndicatorRevenueGrowth:
		return o.RevenueGrowth
	}
	return NullFloat{}
}

// Ranks holds percentile ranks in (0,1] of every indicator for one
// observation within one cohort.
type Ranks [indicatorCount]NullFloat

// Get reads the rank of an indicator.
func (r Ranks) Get(i Indicator) NullFloat {
	if i < 0 || i >= indicatorCount {
		return NullFloat{}
	}
	return r[i]
}

// Normalized pairs an observation with its local and global ranks. The two
// rank sets come from different populations and are kept apart.
type Normalized struct {
	Observation Observation
	Local       Ranks
	Global      Ranks
}

// Ranks returns the rank set of the cohort.
func (n Normalized) Ranks(c Cohort) Ranks {
	if c == CohortGlobal {
		return n.Global
	}
	return n.Local
}
