package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/FACorreiaa/formfill-api/internal/domain/formfill/handler"
	"github.com/FACorreiaa/formfill-api/internal/domain/formfill/pdf"
	"github.com/FACorreiaa/formfill-api/internal/domain/formfill/service"

	"github.com/FACorreiaa/formfill-api/pkg/config"
	"github.com/FACorreiaa/formfill-api/pkg/cron"
	"github.com/FACorreiaa/formfill-api/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	// Holding areas
	Uploads *storage.LocalStorage
	Outputs *storage.LocalStorage

	// Services
	Filler          *pdf.Filler
	FormFillService *service.FormFillService
	Scheduler       *cron.Scheduler

	// Handlers
	FormFillHandler *handler.FormFillHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize holding areas and template directory
	if err := deps.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// Initialize services
	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	// Initialize handlers
	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initStorage creates the upload, output and template directories
func (d *Dependencies) initStorage() error {
	uploads, err := storage.NewLocalStorage(d.Config.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("upload area: %w", err)
	}
	d.Uploads = uploads

	outputs, err := storage.NewLocalStorage(d.Config.Storage.OutputDir)
	if err != nil {
		return fmt.Errorf("output area: %w", err)
	}
	d.Outputs = outputs

	templateDir := filepath.Dir(d.Config.Storage.TemplatePath)
	if err := os.MkdirAll(templateDir, 0755); err != nil {
		return fmt.Errorf("failed to create template directory: %w", err)
	}

	d.Logger.Info("storage initialized",
		slog.String("uploads", uploads.Dir()),
		slog.String("outputs", outputs.Dir()),
		slog.String("template", d.Config.Storage.TemplatePath),
	)
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.Filler = pdf.NewFiller(d.Config.Storage.TemplatePath)

	d.FormFillService = service.NewFormFillService(d.Uploads, d.Outputs, d.Filler, d.Logger)
	d.FormFillService.AuditTemplate(context.Background())

	if d.Config.Cleanup.Enabled {
		d.Scheduler = cron.NewScheduler(d.FormFillService, d.Config.Cleanup.Schedule, d.Logger)
	}

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.FormFillHandler = handler.NewFormFillHandler(
		d.FormFillService,
		d.Logger,
		d.Config.Server.Port,
		d.Config.Server.MaxUploadBytes,
	)

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup stops background jobs
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	d.Logger.Info("cleanup completed")
}
