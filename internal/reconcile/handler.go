package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gudang-app/gudang/internal/platform/httpx"
)

// TabularOpener builds a record source from an uploaded spreadsheet.
type TabularOpener func(filename string, body io.Reader) RecordSource

// ExtractionOpener builds an item source that sends an uploaded document to extraction.
type ExtractionOpener func(filename, contentType string, body io.Reader) ItemSource

// HandlerConfig groups handler dependencies that vary per deployment.
type HandlerConfig struct {
	Tabular        TabularOpener
	Extraction     ExtractionOpener
	MaxUploadBytes int64
}

const defaultMaxUploadBytes = 10 << 20

// Handler exposes imports and grid merging over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	pending   PendingStore
	cfg       HandlerConfig
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, pending PendingStore, cfg HandlerConfig) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{logger: logger, service: service, pending: pending, cfg: cfg, validator: validator.New()}
}

// Routes mounts the import endpoints. aiLimit, when set, wraps the extraction upload.
func (h *Handler) Routes(r chi.Router, aiLimit func(http.Handler) http.Handler) {
	r.Post("/imports/tabular", h.importTabular)
	if aiLimit != nil {
		r.With(aiLimit).Post("/imports/ai", h.importAI)
	} else {
		r.Post("/imports/ai", h.importAI)
	}
	r.Get("/imports/ai/{id}", h.showPending)
	r.Post("/imports/ai/{id}/confirm", h.confirm)
	r.Delete("/imports/ai/{id}", h.discard)
	r.Post("/grid/merge", h.merge)
}

type gridResponse struct {
	Grid []ListRow `json:"grid"`
}

type confirmRequest struct {
	Grid     []ListRow `json:"grid" validate:"required"`
	Selected []string  `json:"selected" validate:"dive,required,max=64"`
	Persist  *bool     `json:"persist" validate:"required"`
}

type mergeRequest struct {
	Existing []ListRow `json:"existing" validate:"required"`
	Incoming []ListRow `json:"incoming"`
}

type upload struct {
	filename    string
	contentType string
	body        []byte
	grid        []ListRow
}

func (h *Handler) importTabular(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Tabular == nil {
		httpx.Problem(w, http.StatusNotImplemented, "Not Implemented", "tabular import is not configured")
		return
	}
	up, err := h.readUpload(w, r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	src := h.cfg.Tabular(up.filename, bytes.NewReader(up.body))
	grid, err := h.service.RunTabularImport(r.Context(), up.grid, src)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gridResponse{Grid: grid})
}

func (h *Handler) importAI(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Extraction == nil {
		httpx.Problem(w, http.StatusNotImplemented, "Not Implemented", "extraction is not configured")
		return
	}
	up, err := h.readUpload(w, r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	src := h.cfg.Extraction(up.filename, up.contentType, bytes.NewReader(up.body))
	result, err := h.service.RunAIImport(r.Context(), up.grid, src)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if result.Pending == nil {
		httpx.JSON(w, http.StatusOK, result)
		return
	}
	if err := h.pending.Save(r.Context(), *result.Pending); err != nil {
		h.logger.Error("save pending import", slog.String("import_id", result.Pending.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, result)
}

func (h *Handler) showPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.pending.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pending)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	pending, err := h.pending.Load(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	result, err := h.service.ConfirmCandidates(r.Context(), pending, req.Grid, NewSelection(req.Selected...), *req.Persist)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.pending.Delete(r.Context(), id); err != nil && !errors.Is(err, ErrPendingNotFound) {
		h.logger.Warn("delete confirmed import", slog.String("import_id", id), slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) discard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pending, err := h.pending.Load(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.service.Discard(pending); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.pending.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gridResponse{Grid: h.service.MergeRows(req.Existing, req.Incoming)})
}

func (h *Handler) decode(r *http.Request, dest any) error {
	if err := httpx.DecodeJSON(r, dest); err != nil {
		return err
	}
	if err := h.validator.Struct(dest); err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return nil
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		return upload{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, fmt.Errorf("%w: file: %v", httpx.ErrValidation, err)
	}
	defer file.Close()
	body, err := io.ReadAll(file)
	if err != nil {
		return upload{}, fmt.Errorf("%w: file: %v", httpx.ErrValidation, err)
	}
	up := upload{
		filename:    header.Filename,
		contentType: header.Header.Get("Content-Type"),
		body:        body,
		grid:        []ListRow{},
	}
	if raw := r.FormValue("grid"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &up.grid); err != nil {
			return upload{}, fmt.Errorf("%w: grid: %v", httpx.ErrValidation, err)
		}
	}
	return up, nil
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrPersistence):
		h.logger.Error("import persistence failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Persistence Failed", err.Error())
	default:
		if !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrNotFound) {
			h.logger.Error("import failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
