package events

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	"FinScore/pkg/util"
)

// Catalog is the static event reference data, keyed by company.
type Catalog struct {
	byCompany map[string][]models.Event
}

var _ domrepo.EventSource = (*Catalog)(nil)

type catalogFile struct {
	Events []rawEvent `yaml:"events"`
}

type rawEvent struct {
	Company     string   `yaml:"company"`
	Date        string   `yaml:"date"`
	Description string   `yaml:"description"`
	Targets     yamlTags `yaml:"targets"`
}

// yamlTags accepts either "profitability/solvency" or a YAML list.
type yamlTags []string

func (t *yamlTags) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*t = models.SplitTargets(n.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := n.Decode(&list); err != nil {
			return err
		}
		var out []string
		for _, s := range list {
			out = append(out, models.SplitTargets(s)...)
		}
		*t = out
		return nil
	}
	return fmt.Errorf("targets: unexpected yaml node kind %d", n.Kind)
}

// NewCatalog indexes events by company.
func NewCatalog(events []models.Event) *Catalog {
	c := &Catalog{byCompany: make(map[string][]models.Event)}
	for _, e := range events {
		key := strings.ToUpper(e.Company)
		c.byCompany[key] = append(c.byCompany[key], e)
	}
	for k := range c.byCompany {
		list := c.byCompany[k]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	}
	return c
}

// LoadCatalog reads a YAML event file. An empty path yields an empty catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(nil), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event catalog: %w", err)
	}
	return ParseCatalog(b)
}

// ParseCatalog decodes catalog YAML.
func ParseCatalog(b []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse event catalog: %w", err)
	}
	events := make([]models.Event, 0, len(f.Events))
	for i, r := range f.Events {
		d, ok := util.ParseTime(r.Date)
		if !ok {
			return nil, fmt.Errorf("event %d (%s): invalid date %q", i, r.Company, r.Date)
		}
		if r.Company == "" {
			return nil, fmt.Errorf("event %d: company is required", i)
		}
		events = append(events, models.Event{
			Company:     r.Company,
			Date:        d,
			Description: r.Description,
			Targets:     []string(r.Targets),
		})
	}
	return NewCatalog(events), nil
}

// For returns the company's events in date order.
func (c *Catalog) For(company string) []models.Event {
	return c.byCompany[strings.ToUpper(company)]
}

// Len is the total number of events.
func (c *Catalog) Len() int {
	n := 0
	for _, l := range c.byCompany {
		n += len(l)
	}
	return n
}

// All returns every event ordered by company then date.
func (c *Catalog) All() []models.Event {
	keys := make([]string, 0, len(c.byCompany))
	for k := range c.byCompany {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]models.Event, 0, c.Len())
	for _, k := range keys {
		out = append(out, c.byCompany[k]...)
	}
	return out
}
