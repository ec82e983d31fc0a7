package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is the single health label of a company-quarter in one cohort.
type Status string

const (
	StatusInsufficientData Status = "Insufficient Data"
	StatusLeveragedRisk    Status = "Leveraged Risk"
	StatusExcellentHealth  Status = "Excellent Health"
	StatusCriticalRisk     Status = "Critical Risk"
	StatusDanger           Status = "Danger"
	StatusStrong           Status = "Strong"
	StatusGoodSignal       Status = "Good Signal"
	StatusMixedRisk        Status = "Mixed Risk"
	StatusCaution          Status = "Caution"
	StatusStable           Status = "Stable"
	StatusWatch            Status = "Watch"
)

// Statuses lists every label.
func Statuses() []Status {
	return []Status{
		StatusInsufficientData, StatusLeveragedRisk, StatusExcellentHealth,
		StatusCriticalRisk, StatusDanger, StatusStrong, StatusGoodSignal,
		StatusMixedRisk, StatusCaution, StatusStable, StatusWatch,
	}
}

// AlertTag is a short directional marker such as "↑ Profitability" or "Rev ↓".
type AlertTag string

// Assessment is the scoring dashboard row: status and alerts of one
// company-quarter within one cohort.
type Assessment struct {
	Company       string          `json:"company"`
	Quarter       string          `json:"quarter"`
	Date          time.Time       `json:"date"`
	Cohort        Cohort          `json:"cohort"`
	Scores        DimensionScores `json:"scores"`
	RevenueGrowth NullFloat       `json:"revenue_growth"`
	Macro         Macro           `json:"macro"`
	Status        Status          `json:"status"`
	Alerts        []AlertTag      `json:"alerts"`
}

// AlertSummary joins the tags with ", ".
func (a Assessment) AlertSummary() string {
	parts := make([]string, len(a.Alerts))
	for i, t := range a.Alerts {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}


// NoConcern is the recommendation of a company-quarter without alerts in
// either cohort.
const NoConcern = "No specific concern or strength detected."

// Recommendation joins the local and global alerts of one company-quarter
// into one line. Either side may be the zero Assessment.
func Recommendation(local, global Assessment) string {
	if len(local.Alerts) == 0 && len(global.Alerts) == 0 {
		return NoConcern
	}
	return fmt.Sprintf("Local: %s. Global: %s.", local.AlertSummary(), global.AlertSummary())
}
