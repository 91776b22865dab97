package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "flightops/internal/errors"
	"flightops/internal/exporter"
)

// DefaultExportName is the download name when none is configured
const DefaultExportName = "filtered_flight_data.csv"

// ExportHandler serves full-table downloads
type ExportHandler struct {
	service      DashboardServiceInterface
	fileName     string
	options      exporter.WriteOptions
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler. fileName's extension is
// replaced by the requested format's.
func NewExportHandler(service DashboardServiceInterface, fileName string, options exporter.WriteOptions,
	logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	if fileName == "" {
		fileName = DefaultExportName
	}
	return &ExportHandler{
		service:      service,
		fileName:     fileName,
		options:      options,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{format}", h.Download)
	return r
}

// Download handles GET /api/export/{format}. The file is rendered in full
// before any header is written so failures still produce a problem response.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), &buf, format, h.options); err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}

	name := h.downloadName(format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export download interrupted",
			slog.String("file", name),
			slog.String("error", err.Error()))
	}
}

func (h *ExportHandler) downloadName(format exporter.Format) string {
	base := filepath.Base(h.fileName)
	return strings.TrimSuffix(base, filepath.Ext(base)) + format.Extension()
}
