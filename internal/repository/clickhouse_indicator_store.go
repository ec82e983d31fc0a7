package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	pkgch "FinScore/pkg/clickhouse"
	applogger "FinScore/pkg/logger"
	"FinScore/pkg/util"
)

var (
	_ domrepo.IndicatorSource = (*CHIndicatorStore)(nil)
	_ domrepo.ScoreSource     = (*CHIndicatorStore)(nil)
)

// CHIndicatorStore reads the quarterly indicator table from ClickHouse.
type CHIndicatorStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHIndicatorStore(ch *pkgch.Client, table string) *CHIndicatorStore {
	if !strings.Contains(table, ".") {
		table = ch.Database() + "." + table
	}
	return &CHIndicatorStore{db: ch.DB(), table: table, l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (s *CHIndicatorStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// rowScanner is satisfied by *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

var observationColumns = []string{
	"company", "quarter", "date",
	"roa", "roe", "net_margin", "current_ratio", "cash_ratio", "debt_to_equity", "revenue_growth",
	"inflation_yoy", "gdp_growth_rate", "interest_rate",
}

// scoreColumns lists score_<dimension>_<cohort> in table order.
func scoreColumns() []string {
	var out []string
	for _, c := range models.Cohorts() {
		for _, d := range models.Dimensions() {
			out = append(out, d.ScoreColumn(c))
		}
	}
	return out
}

func (s *CHIndicatorStore) LoadObservations(ctx context.Context) ([]models.Observation, error) {
	start := time.Now()
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY company, date",
		strings.Join(observationColumns, ", "), s.table)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse load_observations query error",
			applogger.String("table", s.table),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("load observations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Observation, 0, 1024)
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Info("clickhouse load_observations ok",
		applogger.String("table", s.table),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// LoadScores reads precomputed score columns instead of raw ratios.
func (s *CHIndicatorStore) LoadScores(ctx context.Context) (models.ScoreTable, error) {
	start := time.Now()
	cols := append([]string{"company", "quarter", "date", "revenue_growth",
		"inflation_yoy", "gdp_growth_rate", "interest_rate"}, scoreColumns()...)
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY company, date", strings.Join(cols, ", "), s.table)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse load_scores query error",
			applogger.String("table", s.table),
			applogger.Error(err),
		)
		return models.ScoreTable{}, fmt.Errorf("load scores: %w", err)
	}
	defer rows.Close()

	var out []models.ScoreRow
	for rows.Next() {
		r, err := scanScoreRow(rows)
		if err != nil {
			return models.ScoreTable{}, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return models.ScoreTable{}, fmt.Errorf("rows: %w", err)
	}

	s.l.Info("clickhouse load_scores ok",
		applogger.String("table", s.table),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return models.NewScoreTable(out), nil
}

func scanObservation(r rowScanner) (models.Observation, error) {
	var o models.Observation
	err := r.Scan(&o.Company, &o.Quarter, &o.Date,
		&o.ROA, &o.ROE, &o.NetMargin, &o.CurrentRatio, &o.CashRatio, &o.DebtToEquity, &o.RevenueGrowth,
		&o.Macro.Inflation, &o.Macro.GDPGrowth, &o.Macro.InterestRate,
	)
	if err != nil {
		return o, fmt.Errorf("scan observation: %w", err)
	}
	normalizeKeys(&o.Company, &o.Quarter, o.Date)
	return o, nil
}

func scanScoreRow(r rowScanner) (models.ScoreRow, error) {
	var row models.ScoreRow
	dest := []any{&row.Company, &row.Quarter, &row.Date, &row.RevenueGrowth,
		&row.Macro.Inflation, &row.Macro.GDPGrowth, &row.Macro.InterestRate}
	for i := range row.Local {
		dest = append(dest, &row.Local[i])
	}
	for i := range row.Global {
		dest = append(dest, &row.Global[i])
	}
	if err := r.Scan(dest...); err != nil {
		return row, fmt.Errorf("scan score row: %w", err)
	}
	normalizeKeys(&row.Company, &row.Quarter, row.Date)
	return row, nil
}

// normalizeKeys upper-cases the ticker and fills a missing quarter label
// from the date.
func normalizeKeys(company, quarter *string, date time.Time) {
	*company = strings.ToUpper(strings.TrimSpace(*company))
	if strings.TrimSpace(*quarter) == "" && !date.IsZero() {
		*quarter = util.QuarterLabel(date)
	}
}

// IndicatorSchema returns the DDL of the input table.
func IndicatorSchema(db, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
            company String,
            quarter String,
            date Date,
            roa Nullable(Float64),
            roe Nullable(Float64),
            net_margin Nullable(Float64),
            current_ratio Nullable(Float64),
            cash_ratio Nullable(Float64),
            debt_to_equity Nullable(Float64),
            revenue_growth Nullable(Float64),
            inflation_yoy Nullable(Float64),
            gdp_growth_rate Nullable(Float64),
            interest_rate Nullable(Float64)
        ) ENGINE = ReplacingMergeTree ORDER BY (company, date)`, db, table),
	}
}
