package units

import (
	"log/slog"
	"net/http"

	"github.com/gudang-app/gudang/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	units, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list units failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if units == nil {
		units = []Unit{}
	}
	httpx.JSON(w, http.StatusOK, units)
}
