package usecase

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	domsvc "FinScore/internal/domain/service"
	"FinScore/internal/services/anomaly"
	"FinScore/internal/services/cluster"
	applogger "FinScore/pkg/logger"
)

// AnomalyUseCase runs one detector pipeline per (company, dimension),
// then clusters and annotates each pipeline's records.
type AnomalyUseCase struct {
	detector   domsvc.AnomalyDetector
	correlator domsvc.EventCorrelator
	events     domrepo.EventSource
	clusters   cluster.Params
	workers    int
	metrics    domrepo.Metrics
	l          *applogger.Logger
}

func NewAnomalyUseCase(
	detector domsvc.AnomalyDetector,
	correlator domsvc.EventCorrelator,
	events domrepo.EventSource,
	clusters cluster.Params,
	workers int,
	m domrepo.Metrics,
) *AnomalyUseCase {
	if workers < 1 {
		workers = 1
	}
	return &AnomalyUseCase{
		detector:   detector,
		correlator: correlator,
		events:     events,
		clusters:   clusters,
		workers:    workers,
		metrics:    m,
		l:          applogger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (uc *AnomalyUseCase) SetLogger(l *applogger.Logger) {
	if l != nil {
		uc.l = l
	}
}

type pipelineResult struct {
	res models.DimensionResult
	err error
}

// Run evaluates every company of the table. A failing pipeline is
// reported in CompanyAnomalies.Errors under the dimension key and does not
// stop its siblings. Only context cancellation fails the run.
func (uc *AnomalyUseCase) Run(ctx context.Context, table models.ScoreTable) ([]models.CompanyAnomalies, error) {
	start := time.Now()
	companies := table.Companies()
	results := make([][models.NumDimensions]pipelineResult, len(companies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)

	for ci, company := range companies {
		rows := table.ForCompany(company)
		for _, d := range models.Dimensions() {
			ci, d := ci, d
			series := models.SeriesFromRows(rows, d)
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := uc.detector.Detect(gctx, series)
				if err != nil && isContextErr(err) {
					return err
				}
				results[ci][d] = pipelineResult{res: res, err: err}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.CompanyAnomalies, len(companies))
	var flagged, failed int
	for ci, company := range companies {
		ca := models.CompanyAnomalies{
			Company:    company,
			Dimensions: make(map[models.Dimension]models.DimensionResult, models.NumDimensions),
		}
		events := uc.events.For(company)
		for _, d := range models.Dimensions() {
			pr := results[ci][d]
			if pr.err != nil {
				failed++
				if ca.Errors == nil {
					ca.Errors = make(map[string]string)
				}
				ca.Errors[d.String()] = pr.err.Error()
				uc.metrics.RecordPipelineFailure(d.String(), failureReason(pr.err))
				uc.l.Warn("anomaly.pipeline failed",
					applogger.String("company", company),
					applogger.String("dimension", d.String()),
					applogger.Error(pr.err),
				)
				continue
			}
			res := pr.res
			res.Records = uc.correlator.Annotate(res.Records, events)
			res.Clusters = cluster.ForDimension(res.Records, d, uc.clusters)
			flagged += uc.record(d, res.Records)
			ca.Dimensions[d] = res
		}
		out[ci] = ca
	}

	uc.l.Info("anomaly.run ok",
		applogger.Int("companies", len(companies)),
		applogger.Int("anomalies", flagged),
		applogger.Int("failed_pipelines", failed),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (uc *AnomalyUseCase) record(d models.Dimension, records []models.AnomalyRecord) int {
	counts := map[models.Nature]int{}
	total := 0
	for _, r := range records {
		if r.IsAnomaly {
			counts[r.Nature]++
			total++
		}
	}
	for n, c := range counts {
		uc.metrics.RecordAnomalies(d.String(), string(n), c)
	}
	return total
}

func failureReason(err error) string {
	if errors.Is(err, anomaly.ErrNoHealthyData) {
		return "no_healthy_data"
	}
	return "error"
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
