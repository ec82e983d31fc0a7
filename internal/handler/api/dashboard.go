package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"FinScore/internal/domain/models"
	"FinScore/internal/service/metrics"
	"FinScore/internal/service/ratelimit"
	"FinScore/internal/services/scoring"
	"FinScore/internal/usecase"
	xhttp "FinScore/pkg/http"
	xlogger "FinScore/pkg/logger"
)

// Dashboard is what the handler needs from the run use case.
type Dashboard interface {
	Run(ctx context.Context) (*models.Run, error)
	Latest() (*models.Run, error)
	Assessments(f usecase.AssessmentFilter) ([]models.Assessment, error)
	Bands(c models.Cohort) (models.BandSet, error)
	Anomalies(f usecase.AnomalyFilter) ([]models.AnomalyRecord, error)
	Clusters(f usecase.AnomalyFilter) ([]models.Cluster, error)
}

var _ Dashboard = (*usecase.RunUseCase)(nil)

// DashboardHandler serves the engine outputs to the scoring and anomaly
// dashboards. It never recomputes: reads come from the latest run and
// POST /api/runs triggers a new one.
type DashboardHandler struct {
	logger *xlogger.Logger
	dash   Dashboard
	rl     *ratelimit.Limiter
}

func NewDashboardHandler(logger *xlogger.Logger, dash Dashboard, rl *ratelimit.Limiter) *DashboardHandler {
	metrics.Register()
	registerEnums()
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &DashboardHandler{logger: logger, dash: dash, rl: rl}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/assessments", h.Assessments)
	g.GET("/bands", h.Bands)
	g.GET("/anomalies", h.Anomalies)
	g.GET("/clusters", h.Clusters)
	g.GET("/rules", h.Rules)
	g.GET("/runs/latest", h.LatestRun)
	g.POST("/runs", h.TriggerRun)
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
}

func (h *DashboardHandler) Assessments(c echo.Context) error {
	defer observe("assessments", time.Now())
	req := &models.AssessmentsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.dash.Assessments(usecase.AssessmentFilter{
		Company: req.Company,
		Quarter: req.Quarter,
		Cohort:  models.Cohort(req.Cohort),
	})
	if err != nil {
		return h.fail(c, "assessments", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *DashboardHandler) Bands(c echo.Context) error {
	defer observe("bands", time.Now())
	req := &models.BandsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	set, err := h.dash.Bands(models.Cohort(req.Cohort))
	if err != nil {
		return h.fail(c, "bands", err)
	}
	return xhttp.SuccessResponse(c, set)
}

func (h *DashboardHandler) Anomalies(c echo.Context) error {
	defer observe("anomalies", time.Now())
	req := &models.AnomaliesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	f, err := anomalyFilter(req.Company, req.Dimension, req.Nature)
	if err != nil {
		return h.fail(c, "anomalies", err)
	}
	recs, err := h.dash.Anomalies(f)
	if err != nil {
		return h.fail(c, "anomalies", err)
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

func (h *DashboardHandler) Clusters(c echo.Context) error {
	defer observe("clusters", time.Now())
	req := &models.ClustersRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	f, err := anomalyFilter(req.Company, req.Dimension, req.Nature)
	if err != nil {
		return h.fail(c, "clusters", err)
	}
	out, err := h.dash.Clusters(f)
	if err != nil {
		return h.fail(c, "clusters", err)
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

// Rules lists the status cascade of a cohort in evaluation order.
func (h *DashboardHandler) Rules(c echo.Context) error {
	req := &models.BandsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, scoring.Rules(models.Cohort(req.Cohort)))
}

func (h *DashboardHandler) LatestRun(c echo.Context) error {
	run, err := h.dash.Latest()
	if err != nil {
		return h.fail(c, "latest_run", err)
	}
	return xhttp.SuccessResponse(c, run.Summary())
}

func (h *DashboardHandler) TriggerRun(c echo.Context) error {
	defer observe("runs", time.Now())
	if h.rl != nil && !h.rl.Allow(c.RealIP()+":runs") {
		h.logger.Warn("api.runs rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("run rate limit exceeded"))
	}
	run, err := h.dash.Run(c.Request().Context())
	if run == nil {
		return h.fail(c, "runs", err)
	}
	if err != nil {
		// computed but a sink failed; the run is still served
		h.logger.Warn("api.runs delivery failed", xlogger.String("run_id", run.ID), xlogger.Error(err))
	}
	return xhttp.AcceptedResponse(c, run.Summary())
}

func (h *DashboardHandler) fail(c echo.Context, endpoint string, err error) error {
	metrics.APIErrors.WithLabelValues(endpoint).Inc()
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("api."+endpoint+" error", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, usecase.ErrUnknownCompany):
		return xhttp.NotFoundErrorf("ERR_UNKNOWN_COMPANY", "%v", err)
	case errors.Is(err, usecase.ErrNoRun):
		return xhttp.UnavailableError("ERR_NO_RUN", "no completed run yet")
	case errors.Is(err, scoring.ErrInsufficientSample):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_SAMPLE", err.Error())
	}
	return xhttp.InternalError("engine error").WithError(err)
}

func anomalyFilter(company, dimension, nature string) (usecase.AnomalyFilter, error) {
	f := usecase.AnomalyFilter{Company: company, Nature: nature}
	if dimension == "" {
		return f, nil
	}
	d, err := models.ParseDimension(dimension)
	if err != nil {
		return f, xhttp.BadRequestErrorf("dimension", "%v", err)
	}
	f.Dimension = &d
	return f, nil
}

var enumsOnce sync.Once

// registerEnums binds the request validate tags to the domain enums.
func registerEnums() {
	enumsOnce.Do(func() {
		var cohorts, dims []string
		for _, c := range models.Cohorts() {
			cohorts = append(cohorts, string(c))
		}
		for _, d := range models.Dimensions() {
			dims = append(dims, d.String())
		}
		natures := []string{"all", string(models.NatureGood), string(models.NatureBad)}
		for tag, vals := range map[string][]string{"cohort": cohorts, "dimension": dims, "nature_filter": natures} {
			if err := xhttp.RegisterEnum(tag, vals...); err != nil {
				panic(err)
			}
		}
	})
}

func observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
