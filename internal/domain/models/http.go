package models

// Requests for dashboard HTTP endpoints. The cohort, dimension and
// nature_filter validate tags are registered by the API handler.

type AssessmentsRequest struct {
	Company string `query:"company" json:"company" validate:"omitempty,max=32"`
	Quarter string `query:"quarter" json:"quarter" validate:"omitempty,max=16"`
	Cohort  string `query:"cohort" json:"cohort" default:"local" validate:"cohort"`
}

type BandsRequest struct {
	Cohort string `query:"cohort" json:"cohort" default:"local" validate:"cohort"`
}

type AnomaliesRequest struct {
	Company   string `query:"company" json:"company" validate:"required,max=32"`
	Dimension string `query:"dimension" json:"dimension" validate:"omitempty,dimension"`
	Nature    string `query:"nature" json:"nature" default:"all" validate:"nature_filter"`
}

type ClustersRequest struct {
	Company   string `query:"company" json:"company" validate:"required,max=32"`
	Dimension string `query:"dimension" json:"dimension" validate:"omitempty,dimension"`
	Nature    string `query:"nature" json:"nature" default:"all" validate:"nature_filter"`
}

// RunSummary is the response of a triggered run.
type RunSummary struct {
	ID          string            `json:"id"`
	Fingerprint string            `json:"fingerprint"`
	Cached      bool              `json:"cached"`
	Rows        int               `json:"rows"`
	Companies   int               `json:"companies"`
	Anomalies   int               `json:"anomalies"`
	DurationMS  int64             `json:"duration_ms"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// Summary condenses a run for API responses and CLI output. Errors is
// keyed by "<company>/<dimension>".
func (r *Run) Summary() RunSummary {
	s := RunSummary{
		ID:          r.ID,
		Fingerprint: r.Fingerprint,
		Cached:      r.Cached,
		Rows:        r.Table.Len(),
		Companies:   len(r.Anomalies),
		DurationMS:  r.Duration.Milliseconds(),
	}
	for _, ca := range r.Anomalies {
		for _, rec := range ca.Records() {
			if rec.IsAnomaly {
				s.Anomalies++
			}
		}
		for dim, msg := range ca.Errors {
			if s.Errors == nil {
				s.Errors = make(map[string]string)
			}
			s.Errors[ca.Company+"/"+dim] = msg
		}
	}
	return s
}
