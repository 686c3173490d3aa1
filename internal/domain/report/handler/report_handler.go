package handler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	importservice "github.com/FACorreiaa/coverage-reports/internal/domain/import/service"
	"github.com/FACorreiaa/coverage-reports/internal/domain/report"
	"github.com/FACorreiaa/coverage-reports/internal/domain/report/export"
	"github.com/FACorreiaa/coverage-reports/pkg/apierrors"
)

// SnapshotSource exposes the current load.
type SnapshotSource interface {
	Snapshot() importservice.Snapshot
}

// ReportHandler serves reports built from the current snapshot
type ReportHandler struct {
	snapshots SnapshotSource
	logger    *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(snapshots SnapshotSource, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		snapshots: snapshots,
		logger:    logger.With(slog.String("component", "report_handler")),
	}
}

// Routes mounts the report endpoints on r.
func (h *ReportHandler) Routes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/companies", h.GetCompanies)
		r.Get("/regions", h.GetRegions)
		r.Get("/summary", h.GetSummary)
		r.Get("/export", h.Export)
	})
}

// ReportResponse wraps a report with the load it was built from.
type ReportResponse[T any] struct {
	LoadID uuid.UUID           `json:"load_id"`
	State  importservice.State `json:"state"`
	Rows   []T                 `json:"rows"`
}

// SummaryResponse carries the period summary, or null with no records.
type SummaryResponse struct {
	LoadID  uuid.UUID             `json:"load_id"`
	State   importservice.State   `json:"state"`
	Period  string                `json:"period"`
	Summary *report.PeriodSummary `json:"summary"`
}

// GetCompanies handles GET /reports/companies
func (h *ReportHandler) GetCompanies(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Snapshot()
	render.JSON(w, r, ReportResponse[report.CompanyReportRow]{
		LoadID: snap.LoadID,
		State:  snap.State,
		Rows:   report.BuildCompanyReport(snap.Records),
	})
}

// GetRegions handles GET /reports/regions
func (h *ReportHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Snapshot()
	render.JSON(w, r, ReportResponse[report.RegionReportRow]{
		LoadID: snap.LoadID,
		State:  snap.State,
		Rows:   report.BuildRegionReport(snap.Records),
	})
}

// GetSummary handles GET /reports/summary
func (h *ReportHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Snapshot()
	render.JSON(w, r, SummaryResponse{
		LoadID:  snap.LoadID,
		State:   snap.State,
		Period:  report.PeriodLabel(snap.Records),
		Summary: report.BuildSummary(snap.Records),
	})
}

// Export handles GET /reports/export?report=companies|regions&format=csv|xlsx
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind, err := export.ParseKind(r.URL.Query().Get("report"))
	if err != nil {
		apierrors.Write(w, r, apierrors.InvalidRequest(err.Error()))
		return
	}
	format := export.FormatCSV
	if q := r.URL.Query().Get("format"); q != "" {
		if format, err = export.ParseFormat(q); err != nil {
			apierrors.Write(w, r, apierrors.InvalidRequest(err.Error()))
			return
		}
	}

	snap := h.snapshots.Snapshot()
	var buf bytes.Buffer
	if err := export.Write(&buf, kind, format, snap.Records); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to export report",
			slog.String("report", string(kind)),
			slog.String("format", string(format)),
			slog.Any("error", err),
		)
		if errors.Is(err, export.ErrUnknownFormat) || errors.Is(err, export.ErrUnknownKind) {
			apierrors.Write(w, r, apierrors.InvalidRequest(err.Error()))
			return
		}
		apierrors.Write(w, r, apierrors.Internal())
		return
	}

	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(kind, format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
