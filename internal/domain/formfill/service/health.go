package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/FACorreiaa/formfill-api/internal/domain/formfill"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the readiness report of the service.
type HealthStatus struct {
	Status            string    `json:"status"`
	TemplateAvailable bool      `json:"template_available"`
	Timestamp         time.Time `json:"timestamp"`
}

// Health reports whether fill requests can currently be served.
func (s *FormFillService) Health(ctx context.Context) HealthStatus {
	available := s.filler.TemplateAvailable()

	status := StatusUnhealthy
	if available {
		status = StatusHealthy
	}

	return HealthStatus{
		Status:            status,
		TemplateAvailable: available,
		Timestamp:         s.now(),
	}
}

// AuditTemplate logs the fields the service fills that the template does
// not define. A missing template is logged and otherwise ignored.
func (s *FormFillService) AuditTemplate(ctx context.Context) []string {
	if !s.filler.TemplateAvailable() {
		s.logger.Warn("pdf template not found", slog.String("path", s.filler.TemplatePath()))
		return nil
	}

	missing, err := s.filler.MissingFields(formfill.FieldNames)
	if err != nil {
		s.logger.Warn("failed to inspect pdf template",
			slog.String("path", s.filler.TemplatePath()),
			slog.Any("error", err),
		)
		return nil
	}

	if len(missing) > 0 {
		s.logger.Warn("pdf template does not define some fields; they will be left empty",
			slog.String("path", s.filler.TemplatePath()),
			slog.Any("fields", missing),
		)
	}
	return missing
}
