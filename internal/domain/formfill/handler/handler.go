package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/formfill-api/internal/domain/formfill"
	"github.com/FACorreiaa/formfill-api/internal/domain/formfill/service"
)

// Version is reported by the banner endpoint.
const Version = "1.0.0"

// uploadField is the multipart field carrying the spreadsheet.
const uploadField = "file"

// FormFiller is the part of the service the handler needs
type FormFiller interface {
	Fill(ctx context.Context, filename string, r io.Reader) (*service.FillResult, error)
	FillBatch(ctx context.Context, filename string, r io.Reader) (*service.FillResult, error)
	Purge(ctx context.Context, trigger service.Trigger) (*service.PurgeResult, error)
	Health(ctx context.Context) service.HealthStatus
}

// FormFillHandler serves the form-fill HTTP API
type FormFillHandler struct {
	svc            FormFiller
	logger         *slog.Logger
	port           int
	maxUploadBytes int64
}

// NewFormFillHandler creates a new form-fill handler
func NewFormFillHandler(svc FormFiller, logger *slog.Logger, port int, maxUploadBytes int64) *FormFillHandler {
	return &FormFillHandler{
		svc:            svc,
		logger:         logger,
		port:           port,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes mounts the API on r
func (h *FormFillHandler) Routes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Post("/fill-pdf", h.FillPDF)
	r.Post("/fill-pdf-batch", h.FillPDFBatch)
	r.Delete("/cleanup", h.Cleanup)
}

type bannerResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
	Port    string `json:"port"`
}

type cleanupResponse struct {
	Status       string   `json:"status"`
	FilesDeleted int      `json:"files_deleted"`
	Errors       []string `json:"errors,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Root returns the service banner
func (h *FormFillHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bannerResponse{
		Status:  service.StatusHealthy,
		Message: "PDF Form Filler API is running",
		Version: Version,
		Port:    strconv.Itoa(h.port),
	})
}

// Health reports template availability
func (h *FormFillHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Health(r.Context()))
}

// FillPDF accepts a spreadsheet upload and streams back the filled PDF
func (h *FormFillHandler) FillPDF(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		h.writeTooLarge(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeTooLarge(w)
			return
		}
		writeDetail(w, http.StatusUnprocessableEntity, "Missing file upload in form field \"file\"")
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	result, err := h.svc.Fill(r.Context(), header.Filename, file)
	if err != nil {
		h.writeError(w, err)
		return
	}

	doc, err := os.Open(result.OutputPath)
	if err != nil {
		h.logger.Error("failed to open generated document",
			slog.String("path", result.OutputPath),
			slog.Any("error", err),
		)
		writeDetail(w, http.StatusInternalServerError, "Error processing file: generated document is unavailable")
		return
	}
	defer doc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", result.DownloadName))
	http.ServeContent(w, r, result.DownloadName, result.CreatedAt, doc)
}

// FillPDFBatch is not implemented and always answers 501
func (h *FormFillHandler) FillPDFBatch(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.FillBatch(r.Context(), "", nil)
	h.writeError(w, err)
}

// Cleanup purges transient files
func (h *FormFillHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Purge(r.Context(), service.TriggerAPI)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error during cleanup: %v", err))
		return
	}

	resp := cleanupResponse{
		Status:       "success",
		FilesDeleted: result.FilesDeleted,
	}
	if len(result.Errors) > 0 {
		resp.Status = "partial"
		for _, e := range result.Errors {
			resp.Errors = append(resp.Errors, e.Error())
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *FormFillHandler) writeTooLarge(w http.ResponseWriter) {
	writeDetail(w, http.StatusBadRequest, fmt.Sprintf("File too large. Maximum upload size is %d bytes", h.maxUploadBytes))
}

func (h *FormFillHandler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		h.logger.Error("request failed", slog.Int("status", status), slog.Any("error", err))
	}
	writeDetail(w, status, DetailFor(err))
}

// StatusFor maps a pipeline error onto an HTTP status code
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch formfill.KindOf(err) {
	case formfill.KindInvalidInput:
		return http.StatusBadRequest
	case formfill.KindNotImplemented:
		return http.StatusNotImplemented
	default:
		// Configuration, empty input and processing failures are all
		// server-side from the caller's point of view
		return http.StatusInternalServerError
	}
}

// DetailFor renders the client-facing message of a pipeline error
func DetailFor(err error) string {
	var e *formfill.Error
	if !errors.As(err, &e) {
		return fmt.Sprintf("Error processing file: %v", err)
	}

	switch e.Kind {
	case formfill.KindEmptyInput, formfill.KindProcessing:
		return fmt.Sprintf("Error processing file: %v", e)
	default:
		return e.Message
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
