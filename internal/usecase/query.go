package usecase

import (
	"fmt"
	"strings"

	"FinScore/internal/domain/models"
)

// AssessmentFilter narrows the scoring dashboard rows. Empty fields match
// everything.
type AssessmentFilter struct {
	Company string
	Quarter string
	Cohort  models.Cohort
}

// AnomalyFilter narrows anomaly records and clusters. A nil Dimension
// matches all four; Nature "" or "all" matches every record, anomalous or
// not, while good/bad keep only anomalies of that nature.
type AnomalyFilter struct {
	Company   string
	Dimension *models.Dimension
	Nature    string
}

// Assessments returns the latest run's rows of one cohort.
func (uc *RunUseCase) Assessments(f AssessmentFilter) ([]models.Assessment, error) {
	run, err := uc.Latest()
	if err != nil {
		return nil, err
	}
	cohort := f.Cohort
	if cohort == "" {
		cohort = models.CohortLocal
	}
	if f.Company != "" && !hasCompany(run, f.Company) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompany, f.Company)
	}
	out := make([]models.Assessment, 0)
	for _, a := range run.Scoring.Assessments[cohort] {
		if f.Company != "" && !strings.EqualFold(a.Company, f.Company) {
			continue
		}
		if f.Quarter != "" && !strings.EqualFold(a.Quarter, f.Quarter) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Bands returns the latest run's threshold bands of one cohort.
func (uc *RunUseCase) Bands(c models.Cohort) (models.BandSet, error) {
	run, err := uc.Latest()
	if err != nil {
		return models.BandSet{}, err
	}
	set, ok := run.Scoring.Bands[c]
	if !ok {
		return models.BandSet{}, fmt.Errorf("no bands for cohort %q", c)
	}
	return set, nil
}

// Anomalies returns one company's records matching the filter, in
// dimension then date order.
func (uc *RunUseCase) Anomalies(f AnomalyFilter) ([]models.AnomalyRecord, error) {
	ca, err := uc.company(f.Company)
	if err != nil {
		return nil, err
	}
	nature, err := natureFilter(f.Nature)
	if err != nil {
		return nil, err
	}
	out := make([]models.AnomalyRecord, 0)
	for _, r := range ca.Records() {
		if f.Dimension != nil && r.Dimension != *f.Dimension {
			continue
		}
		if nature != "" && (!r.IsAnomaly || r.Nature != nature) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Clusters returns one company's clusters matching the filter.
func (uc *RunUseCase) Clusters(f AnomalyFilter) ([]models.Cluster, error) {
	ca, err := uc.company(f.Company)
	if err != nil {
		return nil, err
	}
	nature, err := natureFilter(f.Nature)
	if err != nil {
		return nil, err
	}
	out := make([]models.Cluster, 0)
	for _, c := range ca.Clusters() {
		if f.Dimension != nil && c.Dimension != *f.Dimension {
			continue
		}
		if nature != "" && c.Nature != nature {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// PipelineErrors returns the failed dimensions of one company.
func (uc *RunUseCase) PipelineErrors(company string) (map[string]string, error) {
	ca, err := uc.company(company)
	if err != nil {
		return nil, err
	}
	return ca.Errors, nil
}

func (uc *RunUseCase) company(name string) (models.CompanyAnomalies, error) {
	run, err := uc.Latest()
	if err != nil {
		return models.CompanyAnomalies{}, err
	}
	for _, ca := range run.Anomalies {
		if strings.EqualFold(ca.Company, name) {
			return ca, nil
		}
	}
	return models.CompanyAnomalies{}, fmt.Errorf("%w: %s", ErrUnknownCompany, name)
}

func hasCompany(run *models.Run, name string) bool {
	for _, c := range run.Table.Companies() {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

func natureFilter(s string) (models.Nature, error) {
	if s == "" || s == "all" {
		return "", nil
	}
	n, err := models.ParseNature(s)
	if err != nil {
		return "", err
	}
	if n == models.NatureNone {
		return "", fmt.Errorf("nature filter must be all, good or bad")
	}
	return n, nil
}
