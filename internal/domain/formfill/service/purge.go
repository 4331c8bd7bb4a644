package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/formfill-api/pkg/metrics"
	"github.com/FACorreiaa/formfill-api/pkg/storage"
)

// Trigger names what started a purge.
type Trigger string

const (
	TriggerAPI      Trigger = "api"
	TriggerSchedule Trigger = "schedule"
	TriggerCLI      Trigger = "cli"
)

// PurgeResult reports a purge sweep.
type PurgeResult struct {
	FilesDeleted   int
	UploadsDeleted int
	OutputsDeleted int
	// Errors holds per-file failures; the sweep continued past each one.
	Errors []error
}

// Purge deletes every file in the upload area and every output older than
// the retention threshold. Both areas are swept concurrently. An error is
// returned only when an area cannot be listed at all.
func (s *FormFillService) Purge(ctx context.Context, trigger Trigger) (*PurgeResult, error) {
	ctx, span := s.tracer.Start(ctx, "FormFillService.Purge")
	defer span.End()
	span.SetAttributes(attribute.String("formfill.trigger", string(trigger)))

	now := s.now()
	var uploads, outputs *storage.SweepResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.uploads.Sweep(gctx, 0, now)
		if err != nil {
			return fmt.Errorf("uploads: %w", err)
		}
		uploads = res
		return nil
	})
	g.Go(func() error {
		res, err := s.outputs.Sweep(gctx, s.retention, now)
		if err != nil {
			return fmt.Errorf("outputs: %w", err)
		}
		outputs = res
		return nil
	})

	if err := g.Wait(); err != nil {
		metrics.PurgeRuns.WithLabelValues(string(trigger), "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("purge failed", slog.String("trigger", string(trigger)), slog.Any("error", err))
		return nil, fmt.Errorf("cleanup failed: %w", err)
	}

	result := &PurgeResult{
		UploadsDeleted: uploads.Deleted,
		OutputsDeleted: outputs.Deleted,
		FilesDeleted:   uploads.Deleted + outputs.Deleted,
	}
	result.Errors = append(result.Errors, uploads.Errors...)
	result.Errors = append(result.Errors, outputs.Errors...)

	metrics.PurgedFiles.WithLabelValues("uploads").Add(float64(uploads.Deleted))
	metrics.PurgedFiles.WithLabelValues("outputs").Add(float64(outputs.Deleted))
	metrics.CleanupFailures.WithLabelValues("uploads").Add(float64(len(uploads.Errors)))
	metrics.CleanupFailures.WithLabelValues("outputs").Add(float64(len(outputs.Errors)))

	outcome := "success"
	if len(result.Errors) > 0 {
		outcome = "partial"
		s.logger.Warn("purge could not delete some files",
			slog.String("trigger", string(trigger)),
			slog.Int("failed", len(result.Errors)),
			slog.Any("error", multierr.Combine(result.Errors...)),
		)
	}
	metrics.PurgeRuns.WithLabelValues(string(trigger), outcome).Inc()

	span.SetAttributes(attribute.Int("formfill.files_deleted", result.FilesDeleted))
	s.logger.Info("purge completed",
		slog.String("trigger", string(trigger)),
		slog.Int("uploads_deleted", uploads.Deleted),
		slog.Int("outputs_deleted", outputs.Deleted),
	)

	return result, nil
}
