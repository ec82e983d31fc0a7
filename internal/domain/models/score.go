package models

import (
	"encoding/json"
	"sort"
	"time"
)

// DimensionScores holds one value per dimension, indexed by Dimension.
type DimensionScores [NumDimensions]NullFloat

// PresentCount is the number of dimensions with a value.
func (s DimensionScores) PresentCount() int {
	n := 0
	for _, v := range s {
		if v.Valid {
			n++
		}
	}
	return n
}

// ScoreRow is the composite-score row of one company and quarter.
type ScoreRow struct {
	Company       string          `json:"company"`
	Quarter       string          `json:"quarter"`
	Date          time.Time       `json:"date"`
	RevenueGrowth NullFloat       `json:"revenue_growth"`
	Macro         Macro           `json:"macro"`
	Local         DimensionScores `json:"local"`
	Global        DimensionScores `json:"global"`
}

// Scores returns the dimension scores of the cohort.
func (r ScoreRow) Scores(c Cohort) DimensionScores {
	if c == CohortGlobal {
		return r.Global
	}
	return r.Local
}

// ScoreTable is the shared score table, ordered by company then date.
type ScoreTable struct {
	Rows []ScoreRow `json:"rows"`
}

// NewScoreTable copies and sorts the rows.
func NewScoreTable(rows []ScoreRow) ScoreTable {
	out := make([]ScoreRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Company != out[j].Company {
			return out[i].Company < out[j].Company
		}
		return out[i].Date.Before(out[j].Date)
	})
	return ScoreTable{Rows: out}
}

// Len is the number of rows.
func (t ScoreTable) Len() int { return len(t.Rows) }

// Companies returns the distinct companies in order.
func (t ScoreTable) Companies() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, r := range t.Rows {
		if _, ok := seen[r.Company]; ok {
			continue
		}
		seen[r.Company] = struct{}{}
		out = append(out, r.Company)
	}
	return out
}

// ForCompany returns the company's rows in date order.
func (t ScoreTable) ForCompany(company string) []ScoreRow {
	var out []ScoreRow
	for _, r := range t.Rows {
		if r.Company == company {
			out = append(out, r)
		}
	}
	return out
}

// Values returns one cohort column of the table, missing values included.
func (t ScoreTable) Values(d Dimension, c Cohort) []NullFloat {
	out := make([]NullFloat, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Scores(c)[d]
	}
	return out
}

// MarshalJSON encodes the scores keyed by dimension name.
func (s DimensionScores) MarshalJSON() ([]byte, error) {
	m := make(map[string]NullFloat, NumDimensions)
	for _, d := range Dimensions() {
		m[d.String()] = s[d]
	}
	return json.Marshal(m)
}

func (s *DimensionScores) UnmarshalJSON(b []byte) error {
	var m map[string]NullFloat
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*s = DimensionScores{}
	for k, v := range m {
		d, err := ParseDimension(k)
		if err != nil {
			return err
		}
		s[d] = v
	}
	return nil
}
