package odontogram

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/molaris/molaris/internal/platform/httpx"
	"github.com/molaris/molaris/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/patients/{patientID}/odontogram", h.Chart)
	r.Put("/patients/{patientID}/odontogram", h.Upsert)
	r.Get("/patients/{patientID}/odontogram/history", h.History)
}

func patientID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "patientID"), 10, 64)
}

func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	id, err := patientID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Patient ID", "")
		return
	}
	entries, err := h.service.Chart(r.Context(), id)
	if err != nil {
		h.logger.Error("load odontogram", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	id, err := patientID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Patient ID", "")
		return
	}

	var req UpsertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	changedBy := ""
	if identity, ok := shared.IdentityFromContext(r.Context()); ok {
		changedBy = identity.Name
	}

	entry, err := h.service.Upsert(r.Context(), id, req, changedBy)
	if err != nil {
		h.logger.Error("upsert odontogram entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, err := patientID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Patient ID", "")
		return
	}
	entries, err := h.service.History(r.Context(), id, r.URL.Query().Get("tooth"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}
