package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	"FinScore/pkg/util"
)

var (
	_ domrepo.IndicatorSource = (*MemorySource)(nil)
	_ domrepo.ScoreSource     = (*MemorySource)(nil)
)

// MemorySource serves a fixed indicator table. It backs tests and the
// `memory` source type, where the table comes from a JSON file.
type MemorySource struct {
	mu     sync.RWMutex
	obs    []models.Observation
	scores *models.ScoreTable
}

func NewMemorySource(obs []models.Observation) *MemorySource {
	return &MemorySource{obs: obs}
}

// NewMemoryScoreSource serves precomputed scores.
func NewMemoryScoreSource(table models.ScoreTable) *MemorySource {
	return &MemorySource{scores: &table}
}

func (m *MemorySource) LoadObservations(ctx context.Context) ([]models.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Observation, len(m.obs))
	copy(out, m.obs)
	return out, nil
}

func (m *MemorySource) LoadScores(ctx context.Context) (models.ScoreTable, error) {
	if err := ctx.Err(); err != nil {
		return models.ScoreTable{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.scores == nil {
		return models.ScoreTable{}, fmt.Errorf("memory source has no precomputed scores")
	}
	return models.NewScoreTable(m.scores.Rows), nil
}

// Replace swaps the served observations.
func (m *MemorySource) Replace(obs []models.Observation) {
	m.mu.Lock()
	m.obs = obs
	m.mu.Unlock()
}

type observationJSON struct {
	Company       string           `json:"company"`
	Quarter       string           `json:"quarter"`
	Date          string           `json:"date"`
	ROA           models.NullFloat `json:"roa"`
	ROE           models.NullFloat `json:"roe"`
	NetMargin     models.NullFloat `json:"net_margin"`
	CurrentRatio  models.NullFloat `json:"current_ratio"`
	CashRatio     models.NullFloat `json:"cash_ratio"`
	DebtToEquity  models.NullFloat `json:"debt_to_equity"`
	RevenueGrowth models.NullFloat `json:"revenue_growth"`
	Inflation     models.NullFloat `json:"inflation_yoy"`
	GDPGrowth     models.NullFloat `json:"gdp_growth_rate"`
	InterestRate  models.NullFloat `json:"interest_rate"`
}

// ParseObservations decodes a JSON array of indicator rows. A row needs a
// date or a quarter label; the other one is derived.
func ParseObservations(b []byte) ([]models.Observation, error) {
	var raw []observationJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}

	out := make([]models.Observation, 0, len(raw))
	for i, r := range raw {
		if strings.TrimSpace(r.Company) == "" {
			return nil, fmt.Errorf("observation %d: company is required", i)
		}
		var date time.Time
		switch {
		case r.Date != "":
			t, ok := util.ParseTime(r.Date)
			if !ok {
				return nil, fmt.Errorf("observation %d: invalid date %q", i, r.Date)
			}
			date = t
		case r.Quarter != "":
			t, err := util.ParseQuarter(r.Quarter)
			if err != nil {
				return nil, fmt.Errorf("observation %d: %w", i, err)
			}
			date = t
		default:
			return nil, fmt.Errorf("observation %d: date or quarter is required", i)
		}

		o := models.Observation{
			Company:       r.Company,
			Quarter:       r.Quarter,
			Date:          date,
			ROA:           r.ROA,
			ROE:           r.ROE,
			NetMargin:     r.NetMargin,
			CurrentRatio:  r.CurrentRatio,
			CashRatio:     r.CashRatio,
			DebtToEquity:  r.DebtToEquity,
			RevenueGrowth: r.RevenueGrowth,
			Macro: models.Macro{
				Inflation:    r.Inflation,
				GDPGrowth:    r.GDPGrowth,
				InterestRate: r.InterestRate,
			},
		}
		normalizeKeys(&o.Company, &o.Quarter, o.Date)
		out = append(out, o)
	}
	return out, nil
}

// LoadMemorySource reads a JSON observation file.
func LoadMemorySource(path string) (*MemorySource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}
	obs, err := ParseObservations(b)
	if err != nil {
		return nil, err
	}
	return NewMemorySource(obs), nil
}
