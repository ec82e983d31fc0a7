package models

import (
	"strings"
	"time"
)

// Event is an external annotation (earnings call, filing, macro shock)
// targeting one or more dimension tags. Read-only reference data.
type Event struct {
	Company     string    `json:"company,omitempty" yaml:"company"`
	Date        time.Time `json:"date" yaml:"date"`
	Description string    `json:"description" yaml:"description"`
	Targets     []string  `json:"targets" yaml:"targets"`
}

// SplitTargets splits "profitability/solvency" style tag lists.
func SplitTargets(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "/") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TargetsDimension reports whether the event is tagged for the dimension.
func (e Event) TargetsDimension(d Dimension) bool {
	tag := d.EventTag()
	for _, t := range e.Targets {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
