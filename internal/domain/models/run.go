package models

import "time"

// ScoringResult is the scoring dashboard output of one run.
type ScoringResult struct {
	Bands       map[Cohort]BandSet      `json:"bands"`
	Assessments map[Cohort][]Assessment `json:"assessments"`
}

// Run is the full output of one engine evaluation.
type Run struct {
	ID          string             `json:"id"`
	StartedAt   time.Time          `json:"started_at"`
	Duration    time.Duration      `json:"duration"`
	Fingerprint string             `json:"fingerprint"`
	Cached      bool               `json:"cached"`
	Table       ScoreTable         `json:"table"`
	Scoring     ScoringResult      `json:"scoring"`
	Anomalies   []CompanyAnomalies `json:"anomalies"`
}

// CompanyAnomalies returns the anomaly output of one company.
func (r *Run) CompanyAnomalies(company string) (CompanyAnomalies, bool) {
	for _, c := range r.Anomalies {
		if c.Company == company {
			return c, true
		}
	}
	return CompanyAnomalies{}, false
}

// AllRecords flattens every company's anomaly records.
func (r *Run) AllRecords() []AnomalyRecord {
	var out []AnomalyRecord
	for _, c := range r.Anomalies {
		out = append(out, c.Records()...)
	}
	return out
}
