package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/FACorreiaa/coverage-reports/internal/domain/billing"
	importservice "github.com/FACorreiaa/coverage-reports/internal/domain/import/service"
	"github.com/FACorreiaa/coverage-reports/internal/domain/import/source"
	"github.com/FACorreiaa/coverage-reports/pkg/apierrors"
)

// DefaultMaxUploadBytes caps multipart uploads when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// Importer is the part of the import service the handler drives.
type Importer interface {
	Select(ctx context.Context, desc *source.Descriptor) uuid.UUID
	Snapshot() importservice.Snapshot
}

// ImportHandler handles source selection and load state requests
type ImportHandler struct {
	importSvc Importer
	resolver  *source.Resolver
	validate  *validator.Validate
	logger    *slog.Logger
	maxUpload int64
}

// NewImportHandler creates a new import handler
func NewImportHandler(importSvc Importer, resolver *source.Resolver, logger *slog.Logger) *ImportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportHandler{
		importSvc: importSvc,
		resolver:  resolver,
		validate:  apierrors.NewValidator(),
		logger:    logger.With(slog.String("component", "import_handler")),
		maxUpload: DefaultMaxUploadBytes,
	}
}

// WithMaxUploadBytes sets the multipart upload limit.
func (h *ImportHandler) WithMaxUploadBytes(n int64) *ImportHandler {
	if n > 0 {
		h.maxUpload = n
	}
	return h
}

// Routes mounts the import endpoints on r.
func (h *ImportHandler) Routes(r chi.Router) {
	r.Post("/sources/select", h.SelectSource)
	r.Post("/sources/upload", h.UploadSource)
	r.Post("/sources/inline", h.InlineSource)
	r.Get("/state", h.GetState)
}

type selectRequest struct {
	Selection string `json:"selection" validate:"required,oneof=csv json none"`
}

type inlineRequest struct {
	Format string `json:"format" validate:"required,oneof=csv json"`
	Text   string `json:"text"`
}

// StateResponse is the JSON view of a snapshot. ErrorMessage is null unless
// the load failed.
type StateResponse struct {
	LoadID       uuid.UUID               `json:"load_id"`
	State        importservice.State     `json:"state"`
	Records      []billing.ServiceRecord `json:"records"`
	ErrorMessage *string                 `json:"error_message"`
	Source       *source.Descriptor      `json:"source,omitempty"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// NewStateResponse converts a snapshot for the wire.
func NewStateResponse(s importservice.Snapshot) StateResponse {
	resp := StateResponse{
		LoadID:    s.LoadID,
		State:     s.State,
		Records:   s.Records,
		Source:    s.Source,
		UpdatedAt: s.UpdatedAt,
	}
	if resp.Records == nil {
		resp.Records = []billing.ServiceRecord{}
	}
	if s.ErrorMessage != "" {
		msg := s.ErrorMessage
		resp.ErrorMessage = &msg
	}
	return resp
}

// SelectSource handles POST /sources/select
func (h *ImportHandler) SelectSource(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierrors.Write(w, r, apierrors.InvalidRequest("request body must be JSON"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apierrors.Write(w, r, apierrors.FromValidation(err))
		return
	}

	desc, err := h.resolver.Resolve(source.Selection(req.Selection), nil)
	if err != nil {
		apierrors.Write(w, r, apierrors.InvalidRequest(err.Error()))
		return
	}
	h.start(w, r, desc)
}

// UploadSource handles POST /sources/upload with a multipart "file" field.
// The upload stays in memory.
func (h *ImportHandler) UploadSource(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		apierrors.Write(w, r, apierrors.PayloadTooLarge(importservice.MsgTooLarge))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.Write(w, r, apierrors.PayloadTooLarge(importservice.MsgTooLarge))
			return
		}
		apierrors.Write(w, r, apierrors.InvalidRequest("request must be multipart/form-data with a file field"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.Write(w, r, apierrors.InvalidRequest("file field is required"))
		return
	}
	defer file.Close()

	if _, err := source.FormatFromFilename(header.Filename); err != nil {
		apierrors.Write(w, r, apierrors.UnsupportedMediaType(err.Error()))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to read upload",
			slog.String("filename", header.Filename),
			slog.Any("error", err),
		)
		apierrors.Write(w, r, apierrors.InvalidRequest(importservice.MsgFileRead))
		return
	}

	desc, err := h.resolver.Resolve(source.SelectionUpload, source.NewBytesFile(header.Filename, data))
	if err != nil {
		if errors.Is(err, source.ErrUnsupportedFormat) {
			apierrors.Write(w, r, apierrors.UnsupportedMediaType(err.Error()))
			return
		}
		apierrors.Write(w, r, apierrors.InvalidRequest(err.Error()))
		return
	}
	h.start(w, r, desc)
}

// InlineSource handles POST /sources/inline
func (h *ImportHandler) InlineSource(w http.ResponseWriter, r *http.Request) {
	var req inlineRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierrors.Write(w, r, apierrors.InvalidRequest("request body must be JSON"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apierrors.Write(w, r, apierrors.FromValidation(err))
		return
	}

	format, err := source.ParseFormat(req.Format)
	if err != nil {
		apierrors.Write(w, r, apierrors.UnsupportedMediaType(err.Error()))
		return
	}
	h.start(w, r, source.NewText(format, req.Text))
}

// GetState handles GET /state
func (h *ImportHandler) GetState(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, NewStateResponse(h.importSvc.Snapshot()))
}

func (h *ImportHandler) start(w http.ResponseWriter, r *http.Request, desc *source.Descriptor) {
	id := h.importSvc.Select(r.Context(), desc)
	if id == uuid.Nil {
		apierrors.Write(w, r, apierrors.New(http.StatusServiceUnavailable, "SHUTTING_DOWN", "the import service is shutting down"))
		return
	}

	attrs := []any{slog.String("load_id", id.String())}
	if desc != nil {
		attrs = append(attrs, slog.String("source", desc.Name()))
	}
	h.logger.InfoContext(r.Context(), "source selected", attrs...)

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, NewStateResponse(h.importSvc.Snapshot()))
}
