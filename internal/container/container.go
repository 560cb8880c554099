package container

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GAL1LAO/A2D-Project/internal/capture"
	"github.com/GAL1LAO/A2D-Project/internal/clock"
	"github.com/GAL1LAO/A2D-Project/internal/config"
	"github.com/GAL1LAO/A2D-Project/internal/export"
	"github.com/GAL1LAO/A2D-Project/internal/extraction"
	"github.com/GAL1LAO/A2D-Project/internal/factory"
	"github.com/GAL1LAO/A2D-Project/internal/geometry"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/observer"
	"github.com/GAL1LAO/A2D-Project/internal/publish"
	"github.com/GAL1LAO/A2D-Project/internal/repository"
	"github.com/GAL1LAO/A2D-Project/internal/scheduler"
	"github.com/GAL1LAO/A2D-Project/internal/service"
	"github.com/GAL1LAO/A2D-Project/internal/transport"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// runHistory is how many finished runs the status API keeps.
const runHistory = 20

// Container holds all application dependencies
type Container struct {
	config    *config.Config
	log       logrus.FieldLogger
	profiles  config.Profiles
	sources   []models.SourceSpec
	backend   *factory.Backend
	batch     *service.BatchService
	exporter  *export.Exporter
	publisher *publish.Publisher
	archiver  *publish.Archiver
	runs      *repository.MemoryRunRepository
	metrics   *observer.MetricsObserver
	scheduler *scheduler.Scheduler
	handler   http.Handler
}

// NewContainer loads the profile and source files and builds the batch
// pipeline. Missing or malformed files fail here, before any work starts.
func NewContainer(cfg *config.Config, log logrus.FieldLogger) (*Container, error) {
	log = logger.OrDefault(log)

	profiles, err := config.LoadProfiles(cfg.ProfilesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}

	components := factory.NewComponentFactory(log)
	backend, err := components.ExtractorFactory.CreateExtractor(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	images, blobs, err := components.StorageFactory.CreateImageRepository(cfg)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to create image repository: %w", err)
	}

	normOpts := []geometry.Option{geometry.WithLogger(log)}
	if cfg.DebugDir != "" {
		normOpts = append(normOpts, geometry.WithDebugSink(geometry.NewDirSink(cfg.DebugDir)))
	}
	normalizer := geometry.NewNormalizer(normOpts...)

	rules := extraction.DefaultRules()
	rules.OverviewMinRecords = cfg.OverviewMinRecords
	engine := extraction.NewEngine(backend.Extractor, clock.Real(), extraction.Config{
		GaugeMaxAttempts:    cfg.GaugeMaxAttempts,
		OverviewMaxAttempts: cfg.OverviewMaxAttempts,
		RetryDelay:          cfg.RetryDelay,
		FailureDelay:        cfg.FailureDelay,
		Rules:               rules,
		Separator:           backend.Separator,
	}, log)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher(log)
	events.Subscribe(observer.NewLoggingObserver(log))
	events.Subscribe(metrics)

	batch := service.NewBatchService(images, profiles, normalizer, engine,
		service.WithParallelism(cfg.Parallelism),
		service.WithDefaultSystem(cfg.DefaultSystem),
		service.WithEvents(events),
		service.WithLogger(log),
	)

	httpClient := publish.NewHTTPClient(cfg.RequestTimeout)
	c := &Container{
		config:   cfg,
		log:      log,
		profiles: profiles,
		sources:  sources,
		backend:  backend,
		batch:    batch,
		exporter: export.NewExporter(log),
		runs:     repository.NewMemoryRunRepository(runHistory),
		metrics:  metrics,
	}
	if cfg.PublishURL != "" {
		c.publisher = publish.NewPublisher(cfg.PublishURL, cfg.APIToken, httpClient, log)
	}
	if blobs != nil && cfg.AzureArchiveContainer != "" {
		c.archiver = publish.NewArchiver(blobs, cfg.AzureArchiveContainer, log)
	}

	schedCfg := scheduler.Config{
		Batch:    batch,
		Sources:  service.SourcesFromSpecs(sources),
		Renderer: c.exporter,
		Runs:     c.runs,
		Interval: cfg.PollInterval,
		Logger:   log,
	}
	// An empty URL makes every status check fail, so scheduled cycles idle.
	schedCfg.Status = publish.NewStatusClient(cfg.StatusURL, cfg.APIToken, httpClient, log)
	if cfg.StatusURL == "" {
		log.Warn("STATUS_URL is not set, scheduled cycles will not run batches")
	}
	if cfg.APIToken == "" {
		log.Warn("API_TOKEN is not set, POST /api/v1/runs accepts unauthenticated requests")
	}
	if c.publisher != nil {
		schedCfg.Publisher = c.publisher
	}
	if c.archiver != nil {
		schedCfg.Archiver = c.archiver
	}
	c.scheduler = scheduler.New(schedCfg)

	c.handler = transport.NewHandler(transport.Deps{
		Runs:    c.runs,
		Cycle:   c.scheduler,
		Metrics: metrics,
		Token:   cfg.APIToken,
		Logger:  log,
	})

	log.WithFields(logrus.Fields{
		"backend":     backend.Name,
		"sources":     len(sources),
		"systems":     profiles.Systems(),
		"publish":     c.publisher != nil,
		"archive":     c.archiver != nil,
		"status_poll": cfg.StatusURL != "",
	}).Info("Container initialized")
	return c, nil
}

// NewCaptureDevice builds the capture loop for the camera host
func NewCaptureDevice(cfg *config.Config, log logrus.FieldLogger) (*capture.Device, error) {
	if cfg.SettingsURL == "" || cfg.CaptureURL == "" {
		return nil, fmt.Errorf("CAMERA_SETTINGS_URL and CAMERA_CAPTURE_URL are required")
	}
	log = logger.OrDefault(log)
	settings := capture.NewSettingsClient(cfg.SettingsURL, publish.NewHTTPClient(5*time.Second), cfg.CaptureFallbackInterval, log)
	camera := capture.NewCamera(capture.ExecRunner{}, cfg.CameraCommand, log)
	uploader := publish.NewUploader(cfg.CaptureURL, cfg.APIToken, publish.NewHTTPClient(cfg.RequestTimeout), log)
	return capture.NewDevice(settings, camera, uploader, clock.Real(), cfg.CapturePollInterval, log), nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Scheduler returns the polling scheduler
func (c *Container) Scheduler() *scheduler.Scheduler {
	return c.scheduler
}

// Batch returns the batch service
func (c *Container) Batch() *service.BatchService {
	return c.batch
}

// Sources returns the configured sources in batch order
func (c *Container) Sources() []service.Source {
	return service.SourcesFromSpecs(c.sources)
}

// Exporter returns the workbook exporter
func (c *Container) Exporter() *export.Exporter {
	return c.exporter
}

// Publisher returns the workbook publisher, or nil without PUBLISH_URL
func (c *Container) Publisher() *publish.Publisher {
	return c.publisher
}

// Archiver returns the blob archiver, or nil when archiving is off
func (c *Container) Archiver() *publish.Archiver {
	return c.archiver
}

// Close releases the extraction backend
func (c *Container) Close() error {
	return c.backend.Close()
}
