package di

import (
	"context"
	"fmt"
	"time"

	"FinScore/internal/domain/repository"
	"FinScore/internal/domain/service"
	"FinScore/internal/handler/api"
	internalrepo "FinScore/internal/repository"
	icache "FinScore/internal/service/cache"
	"FinScore/internal/service/ratelimit"
	"FinScore/internal/services/anomaly"
	"FinScore/internal/services/cluster"
	"FinScore/internal/services/events"
	"FinScore/internal/services/scoring"
	"FinScore/internal/usecase"
	pkgch "FinScore/pkg/clickhouse"
	"FinScore/pkg/config"
	pkgkafka "FinScore/pkg/kafka"
	applogger "FinScore/pkg/logger"
	"FinScore/pkg/metrics"
	"FinScore/pkg/server"
)

const schemaTimeout = 10 * time.Second

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Noop{}
	}
	return metrics.New()
}

// ProvideClickHouseClient connects to ClickHouse when the source or the
// result store needs it, and returns nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Source.Type != "clickhouse" && !cfg.ClickHouse.StoreResults {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideIndicatorSource selects the input table reader.
func ProvideIndicatorSource(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.IndicatorSource, error) {
	switch cfg.Source.Type {
	case "memory":
		src, err := internalrepo.LoadMemorySource(cfg.Source.Path)
		if err != nil {
			return nil, fmt.Errorf("memory source: %w", err)
		}
		return src, nil
	case "clickhouse":
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if err := ch.InitSchema(ctx, internalrepo.IndicatorSchema(cfg.ClickHouse.Database, cfg.Source.Table)); err != nil {
			return nil, fmt.Errorf("indicator schema: %w", err)
		}
		store := internalrepo.NewCHIndicatorStore(ch, cfg.Source.Table)
		store.SetLogger(l)
		return store, nil
	}
	return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
}

// ProvideResultStore returns the ClickHouse result store, or nil when
// results are not persisted.
func ProvideResultStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.ResultStore, error) {
	if ch == nil || !cfg.ClickHouse.StoreResults {
		return nil, nil
	}
	store := internalrepo.NewCHResultStore(ch)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("result schema: %w", err)
	}
	return store, nil
}

// ProvidePublisher returns the Kafka result publisher, or a no-op when
// Kafka is disabled.
func ProvidePublisher(cfg *config.Config) (repository.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.AssessmentsTopic, cfg.Kafka.AnomaliesTopic), nil
}

// ProvideExporter returns the CSV exporter when an output dir is set.
func ProvideExporter(cfg *config.Config) repository.Exporter {
	if cfg.Output.Dir == "" {
		return nil
	}
	return internalrepo.NewCSVExporter(cfg.Output.Dir)
}

// ProvideCache builds the run cache: an in-process TTL cache, backed by
// Redis when enabled. Returns nil when caching is off.
func ProvideCache(cfg *config.Config, l *applogger.Logger) icache.BytesCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	l1 := icache.NewTTLCache(cfg.Cache.MaxEntries)
	var l2 icache.BytesCache
	if cfg.Cache.Redis.Enabled {
		l2 = icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
	}
	lc := icache.NewLayeredCache(l1, l2, cfg.Cache.TTL)
	lc.SetLogger(l)
	return lc
}

// ProvideEventCatalog loads the event reference data.
func ProvideEventCatalog(cfg *config.Config) (*events.Catalog, error) {
	return events.LoadCatalog(cfg.Events.CatalogPath)
}

// ProvideEventSource exposes the catalog through the domain interface.
func ProvideEventSource(c *events.Catalog) repository.EventSource {
	return c
}

// ProvideEventCorrelator applies the canonical event tolerance.
func ProvideEventCorrelator(cfg *config.Config) service.EventCorrelator {
	return events.NewCorrelator(cfg.Events.Tolerance)
}

// AnomalyParams maps the anomaly section to detector hyperparameters.
func AnomalyParams(cfg *config.Config) anomaly.Params {
	a := cfg.Anomaly
	return anomaly.Params{
		EncodingDim:        a.EncodingDim,
		Epochs:             a.Epochs,
		BatchSize:          a.BatchSize,
		LearningRate:       a.LearningRate,
		ValidationFraction: a.ValidationFraction,
		ThresholdQuantile:  a.ThresholdQuantile,
		Seed:               a.Seed,
		MinHealthy:         a.MinHealthy,
		HealthyPLow:        a.HealthyPLow,
		HealthyPHigh:       a.HealthyPHigh,
		Convention:         anomaly.Convention(a.NatureConvention),
	}
}

// ThresholdConfig maps the scoring section.
func ThresholdConfig(cfg *config.Config) scoring.ThresholdConfig {
	s := cfg.Scoring
	return scoring.ThresholdConfig{
		PLow:         s.PLow,
		PHigh:        s.PHigh,
		MinSamples:   s.MinSamples,
		RevenueDrop:  s.RevenueDrop,
		RevenueBoost: s.RevenueBoost,
	}
}

// ClusterParams maps the cluster section.
func ClusterParams(cfg *config.Config) cluster.Params {
	return cluster.Params{
		MinCount: cfg.Cluster.MinCount,
		MaxSpan:  cfg.Cluster.MaxSpan,
		Padding:  cfg.Cluster.Padding,
	}
}

// ProvideDetector builds the autoencoder detector.
func ProvideDetector(cfg *config.Config, l *applogger.Logger) (service.AnomalyDetector, error) {
	d, err := anomaly.NewDetector(AnomalyParams(cfg))
	if err != nil {
		return nil, fmt.Errorf("anomaly detector: %w", err)
	}
	d.SetLogger(l)
	return d, nil
}

// ProvideScoringUseCase creates the scoring use case.
func ProvideScoringUseCase(cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.ScoringUseCase {
	uc := usecase.NewScoringUseCase(ThresholdConfig(cfg), m)
	uc.SetLogger(l)
	return uc
}

// ProvideAnomalyUseCase creates the per-dimension pipeline runner.
func ProvideAnomalyUseCase(
	cfg *config.Config,
	det service.AnomalyDetector,
	corr service.EventCorrelator,
	ev repository.EventSource,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AnomalyUseCase {
	uc := usecase.NewAnomalyUseCase(det, corr, ev, ClusterParams(cfg), cfg.Anomaly.Workers, m)
	uc.SetLogger(l)
	return uc
}

// engineSettings is everything besides the input table that changes a
// run's output. It is hashed into the run cache key.
type engineSettings struct {
	Thresholds  scoring.ThresholdConfig `json:"thresholds"`
	Anomaly     anomaly.Params          `json:"anomaly"`
	Cluster     cluster.Params          `json:"cluster"`
	Tolerance   time.Duration           `json:"event_tolerance"`
	Events      any                     `json:"events"`
	Precomputed bool                    `json:"precomputed"`
}

// ProvideRunUseCase assembles the batch runner with its optional sinks.
func ProvideRunUseCase(
	cfg *config.Config,
	src repository.IndicatorSource,
	sc *usecase.ScoringUseCase,
	an *usecase.AnomalyUseCase,
	m repository.Metrics,
	c icache.BytesCache,
	store repository.ResultStore,
	pub repository.Publisher,
	exp repository.Exporter,
	catalog *events.Catalog,
	l *applogger.Logger,
) *usecase.RunUseCase {
	opts := []usecase.RunOption{
		usecase.WithPrecomputedScores(cfg.Source.PrecomputedScores),
		usecase.WithPublisher(pub),
		usecase.WithSettings(engineSettings{
			Thresholds:  ThresholdConfig(cfg),
			Anomaly:     AnomalyParams(cfg),
			Cluster:     ClusterParams(cfg),
			Tolerance:   cfg.Events.Tolerance,
			Events:      catalog.All(),
			Precomputed: cfg.Source.PrecomputedScores,
		}),
	}
	if c != nil {
		opts = append(opts, usecase.WithCache(c, cfg.Cache.TTL))
	}
	if store != nil {
		opts = append(opts, usecase.WithResultStore(store))
	}
	if exp != nil {
		opts = append(opts, usecase.WithExporter(exp))
	}
	uc := usecase.NewRunUseCase(src, sc, an, m, opts...)
	uc.SetLogger(l)
	return uc
}

// ProvideRateLimiter guards run triggers on the API.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RunRateLimit.PerSecond, cfg.Server.RunRateLimit.Burst)
}

// ProvideDashboardHandler creates the query API handler.
func ProvideDashboardHandler(l *applogger.Logger, run *usecase.RunUseCase, rl *ratelimit.Limiter) *api.DashboardHandler {
	return api.NewDashboardHandler(l, run, rl)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	run *usecase.RunUseCase,
	h *api.DashboardHandler,
	ch *pkgch.Client,
	pub repository.Publisher,
	c icache.BytesCache,
) *server.App {
	app := server.New(cfg, l, run, h)
	if ch != nil {
		app.OnClose("clickhouse", ch)
	}
	app.OnClose("publisher", pub)
	if lc, ok := c.(*icache.LayeredCache); ok {
		app.OnClose("cache", lc)
	}
	return app
}
