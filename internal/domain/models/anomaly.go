package models

import (
	"fmt"
	"time"
)

// Nature says whether an anomaly is read as good or bad news.
type Nature string

const (
	NatureGood Nature = "good"
	NatureBad  Nature = "bad"
	NatureNone Nature = "none"
)

// ParseNature accepts good, bad or none.
func ParseNature(s string) (Nature, error) {
	switch Nature(s) {
	case NatureGood, NatureBad, NatureNone:
		return Nature(s), nil
	}
	return "", fmt.Errorf("unknown anomaly nature %q", s)
}

// Direction is the sign of the score move behind an anomaly.
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionNone     Direction = "none"
)

// AnomalyRecord is the model output of one company, quarter and dimension.
// IsAnomaly is always ReconstructionError > Threshold.
type AnomalyRecord struct {
	Company             string    `json:"company"`
	Date                time.Time `json:"date"`
	Quarter             string    `json:"quarter"`
	Dimension           Dimension `json:"dimension"`
	Score               float64   `json:"score"`
	Delta               float64   `json:"delta"`
	ReconstructionError float64   `json:"reconstruction_error"`
	Threshold           float64   `json:"threshold"`
	IsAnomaly           bool      `json:"is_anomaly"`
	Nature              Nature    `json:"nature"`
	Direction           Direction `json:"anomaly_type"`
	Events              []Event   `json:"events,omitempty"`
}

// Cluster is a padded window holding at least the minimum number of
// same-nature anomalies of one dimension.
type Cluster struct {
	Company   string    `json:"company"`
	Dimension Dimension `json:"dimension"`
	Nature    Nature    `json:"nature"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Count     int       `json:"count"`
}

// Contains reports whether t falls inside the window, bounds included.
func (c Cluster) Contains(t time.Time) bool {
	return !t.Before(c.Start) && !t.After(c.End)
}

// DimensionResult is one (company, dimension) anomaly pipeline output.
type DimensionResult struct {
	Dimension    Dimension       `json:"dimension"`
	Threshold    float64         `json:"threshold"`
	HealthyCount int             `json:"healthy_count"`
	Records      []AnomalyRecord `json:"records"`
	Clusters     []Cluster       `json:"clusters"`
}

// CompanyAnomalies gathers the per-dimension results of one company.
// Errors holds the dimensions whose pipeline failed, keyed by name.
type CompanyAnomalies struct {
	Company    string                        `json:"company"`
	Dimensions map[Dimension]DimensionResult `json:"dimensions"`
	Errors     map[string]string             `json:"errors,omitempty"`
}

// Records flattens every dimension's records in dimension order.
func (c CompanyAnomalies) Records() []AnomalyRecord {
	var out []AnomalyRecord
	for _, d := range Dimensions() {
		if r, ok := c.Dimensions[d]; ok {
			out = append(out, r.Records...)
		}
	}
	return out
}

// Clusters flattens every dimension's clusters in dimension order.
func (c CompanyAnomalies) Clusters() []Cluster {
	var out []Cluster
	for _, d := range Dimensions() {
		if r, ok := c.Dimensions[d]; ok {
			out = append(out, r.Clusters...)
		}
	}
	return out
}
