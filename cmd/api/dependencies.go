package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/FACorreiaa/coverage-reports/internal/domain/import/decoder"
	importhandler "github.com/FACorreiaa/coverage-reports/internal/domain/import/handler"
	importservice "github.com/FACorreiaa/coverage-reports/internal/domain/import/service"
	"github.com/FACorreiaa/coverage-reports/internal/domain/import/source"
	reporthandler "github.com/FACorreiaa/coverage-reports/internal/domain/report/handler"
	"github.com/FACorreiaa/coverage-reports/pkg/config"
	"github.com/FACorreiaa/coverage-reports/pkg/cron"
	"github.com/FACorreiaa/coverage-reports/pkg/storage"
	"github.com/FACorreiaa/coverage-reports/pkg/telemetry"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry

	// Infrastructure
	FileStorage     storage.Storage
	Scheduler       *cron.Scheduler
	ShutdownTracing telemetry.ShutdownFunc

	// Services
	Resolver      *source.Resolver
	Decoder       *decoder.Decoder
	ImportService *importservice.ImportService

	// Handlers
	ImportHandler *importhandler.ImportHandler
	ReportHandler *reporthandler.ReportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initInfrastructure(ctx context.Context) error {
	shutdown, err := telemetry.InitTracing(d.Config.Observability.TracingEnabled, os.Stderr)
	if err != nil {
		return err
	}
	d.ShutdownTracing = shutdown

	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	fileStorage, err := storage.New(ctx, &d.Config.Storage)
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	d.Logger.Info("infrastructure initialized",
		slog.String("storage", string(d.Config.Storage.Type)),
		slog.Bool("tracing", d.Config.Observability.TracingEnabled),
	)
	return nil
}

func (d *Dependencies) initServices() error {
	d.Resolver = source.NewResolver(source.NewPresets(
		d.Config.PresetBaseURL(),
		d.Config.Samples.CSVName,
		d.Config.Samples.JSONName,
	))

	d.Decoder = decoder.New(d.Logger).WithMaxBytes(d.Config.Import.MaxBytes)
	if objects, ok := d.FileStorage.(decoder.ObjectOpener); ok {
		d.Decoder.WithObjectStore(objects)
	}

	d.ImportService = importservice.NewImportService(d.Decoder, d.Logger).
		WithMetrics(importservice.NewMetrics(d.Registry))

	d.Scheduler = cron.NewScheduler(d.Config.Import.RefreshSchedule, d.ImportService, d.Logger)

	d.Logger.Info("services initialized",
		slog.String("csv_preset", d.Resolver.Presets().CSV),
		slog.String("json_preset", d.Resolver.Presets().JSON),
	)
	return nil
}

func (d *Dependencies) initHandlers() {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Resolver, d.Logger).
		WithMaxUploadBytes(d.Config.Server.MaxUploadBytes)
	d.ReportHandler = reporthandler.NewReportHandler(d.ImportService, d.Logger)

	d.Logger.Info("handlers initialized")
}

// SelectDefaultSource starts loading the configured preset.
func (d *Dependencies) SelectDefaultSource(ctx context.Context) error {
	sel := source.Selection(strings.ToLower(d.Config.Import.DefaultSource))
	desc, err := d.Resolver.Resolve(sel, nil)
	if err != nil {
		return err
	}
	if desc == nil {
		return nil
	}
	id := d.ImportService.Select(ctx, desc)
	d.Logger.Info("default source selected",
		slog.String("selection", string(sel)),
		slog.String("load_id", id.String()),
	)
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup(ctx context.Context) {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.ImportService != nil {
		d.ImportService.Close()
	}
	if d.ShutdownTracing != nil {
		if err := d.ShutdownTracing(ctx); err != nil {
			d.Logger.Warn("failed to flush traces", slog.Any("error", err))
		}
	}
	d.Logger.Info("cleanup completed")
}
