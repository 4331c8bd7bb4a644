// Package service implements the spreadsheet to PDF fill pipeline and the
// housekeeping of its transient files.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/FACorreiaa/formfill-api/internal/domain/formfill"
	"github.com/FACorreiaa/formfill-api/internal/domain/formfill/excel"
	"github.com/FACorreiaa/formfill-api/pkg/metrics"
	"github.com/FACorreiaa/formfill-api/pkg/storage"
)

const (
	// DefaultRetention is how long generated documents are kept before a
	// purge may delete them.
	DefaultRetention = time.Hour

	// DownloadPrefix is the suggested filename stem of a filled document.
	DownloadPrefix = "Letter_of_Representation_Filled"

	stampLayout = "20060102_150405"
)

// Filler produces filled copies of the template.
type Filler interface {
	TemplatePath() string
	TemplateAvailable() bool
	Fill(ctx context.Context, values map[string]string, w io.Writer) error
	MissingFields(want []string) ([]string, error)
}

// RecordReader extracts the record from a stored spreadsheet.
type RecordReader func(path string) (formfill.Record, error)

// FillResult describes a generated document.
type FillResult struct {
	ID           uuid.UUID
	OutputPath   string
	DownloadName string
	Size         int64
	Record       formfill.Record
	CreatedAt    time.Time
}

// FormFillService runs the fill pipeline over two holding areas.
type FormFillService struct {
	uploads    storage.Storage
	outputs    storage.Storage
	filler     Filler
	readRecord RecordReader
	logger     *slog.Logger
	tracer     trace.Tracer
	retention  time.Duration
	now        func() time.Time
}

// NewFormFillService creates the service. uploads and outputs must be
// distinct areas.
func NewFormFillService(uploads, outputs storage.Storage, filler Filler, logger *slog.Logger) *FormFillService {
	return &FormFillService{
		uploads:    uploads,
		outputs:    outputs,
		filler:     filler,
		readRecord: excel.ReadFirstRecord,
		logger:     logger,
		tracer:     otel.Tracer("github.com/FACorreiaa/formfill-api/internal/domain/formfill/service"),
		retention:  DefaultRetention,
		now:        time.Now,
	}
}

// WithClock overrides the time source used for names and purge ages.
func (s *FormFillService) WithClock(now func() time.Time) *FormFillService {
	s.now = now
	return s
}

// WithRetention overrides the output retention threshold.
func (s *FormFillService) WithRetention(d time.Duration) *FormFillService {
	s.retention = d
	return s
}

// WithRecordReader overrides how spreadsheets are read.
func (s *FormFillService) WithRecordReader(r RecordReader) *FormFillService {
	s.readRecord = r
	return s
}

// Retention returns the output retention threshold.
func (s *FormFillService) Retention() time.Duration {
	return s.retention
}

// Fill stores the uploaded spreadsheet, fills the template from its first
// record and returns the generated document. The upload is removed before
// Fill returns; the document stays in the output area until purged.
//
// On any failure after the upload is stored both transient files are
// removed and a *formfill.Error is returned.
func (s *FormFillService) Fill(ctx context.Context, filename string, r io.Reader) (result *FillResult, err error) {
	started := s.now()
	ctx, span := s.tracer.Start(ctx, "FormFillService.Fill",
		trace.WithAttributes(attribute.String("formfill.filename", filename)))
	defer func() {
		s.observeFill(span, started, err)
		span.End()
	}()

	if !formfill.IsSpreadsheet(filename) {
		return nil, formfill.NewError(formfill.KindInvalidInput,
			"Invalid file type. Please upload an Excel file (.xlsx or .xls)", nil)
	}

	if !s.filler.TemplateAvailable() {
		return nil, formfill.NewError(formfill.KindConfiguration,
			fmt.Sprintf("PDF template not found. Please ensure %s is in place.", s.filler.TemplatePath()), nil)
	}

	id := uuid.New()
	stamp := started.Format(stampLayout)
	logger := s.logger.With(
		slog.String("request_id", id.String()),
		slog.String("filename", filename),
	)

	upload, err := s.uploads.Save(ctx, id, filename, r)
	if err != nil {
		logger.Error("failed to store upload", slog.Any("error", err))
		return nil, formfill.NewError(formfill.KindProcessing, "failed to store upload", err)
	}

	var outputPath string
	defer func() {
		if err != nil {
			s.rollback(ctx, logger, upload.Path, outputPath)
		}
	}()

	record, err := s.readRecord(upload.Path)
	if err != nil {
		if errors.Is(err, formfill.ErrEmptyInput) {
			logger.Info("spreadsheet has no data rows")
			return nil, err
		}
		logger.Error("failed to read spreadsheet", slog.Any("error", err))
		return nil, formfill.NewError(formfill.KindProcessing, "failed to read spreadsheet", err)
	}

	outputName := fmt.Sprintf("filled_pdf_%s_%s.pdf", stamp, id)
	w, outputPath, err := s.outputs.Create(ctx, outputName)
	if err != nil {
		logger.Error("failed to create output", slog.Any("error", err))
		return nil, formfill.NewError(formfill.KindProcessing, "failed to create output", err)
	}

	cw := &countingWriter{w: w}
	err = multierr.Append(s.filler.Fill(ctx, record.Values(), cw), w.Close())
	if err != nil {
		logger.Error("failed to fill template", slog.Any("error", err))
		return nil, formfill.NewError(formfill.KindProcessing, "failed to fill PDF", err)
	}

	if delErr := s.uploads.Delete(ctx, upload.Path); delErr != nil {
		metrics.CleanupFailures.WithLabelValues("uploads").Inc()
		logger.Warn("failed to delete upload",
			slog.String("path", upload.Path),
			slog.Any("error", delErr),
		)
	}

	logger.Info("document generated",
		slog.String("output", outputPath),
		slog.Int64("bytes", cw.n),
		slog.Duration("took", s.now().Sub(started)),
	)

	return &FillResult{
		ID:           id,
		OutputPath:   outputPath,
		DownloadName: fmt.Sprintf("%s_%s.pdf", DownloadPrefix, stamp),
		Size:         cw.n,
		Record:       record,
		CreatedAt:    started,
	}, nil
}

// FillBatch is reserved for multi-row generation, which is not supported.
// It never reads r.
func (s *FormFillService) FillBatch(ctx context.Context, filename string, r io.Reader) (*FillResult, error) {
	return nil, formfill.NewError(formfill.KindNotImplemented, "Batch processing not yet implemented", nil)
}

// rollback removes whatever transient files exist. Each deletion is
// attempted regardless of the other; failures are logged only.
func (s *FormFillService) rollback(ctx context.Context, logger *slog.Logger, uploadPath, outputPath string) {
	var errs error

	if uploadPath != "" {
		if err := s.uploads.Delete(ctx, uploadPath); err != nil {
			metrics.CleanupFailures.WithLabelValues("uploads").Inc()
			errs = multierr.Append(errs, err)
		}
	}

	if outputPath != "" {
		if err := s.outputs.Delete(ctx, outputPath); err != nil {
			metrics.CleanupFailures.WithLabelValues("outputs").Inc()
			errs = multierr.Append(errs, err)
		}
	}

	if errs != nil {
		logger.Warn("failed to clean up after error", slog.Any("error", errs))
	}
}

func (s *FormFillService) observeFill(span trace.Span, started time.Time, err error) {
	metrics.FillDuration.Observe(s.now().Sub(started).Seconds())

	if err == nil {
		metrics.FillRequests.WithLabelValues("success").Inc()
		span.SetStatus(codes.Ok, "")
		return
	}

	kind := formfill.KindOf(err)
	metrics.FillRequests.WithLabelValues(string(kind)).Inc()
	span.SetAttributes(attribute.String("formfill.error_kind", string(kind)))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// countingWriter counts bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
